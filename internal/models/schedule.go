package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

// Schedule is a recurring rule that starts a session at Time on each of Days.
// Days use 0 for Sunday through 6 for Saturday.
type Schedule struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Type     SessionType `json:"type" yaml:"type"`
	Time     string      `json:"time" yaml:"time"` // HH:MM
	Days     []int       `json:"days" yaml:"days"`
	Duration int         `json:"duration" yaml:"duration"` // minutes, 0 = until stopped
	Enabled  bool        `json:"enabled" yaml:"enabled"`
}

// Clock parses the HH:MM start time.
func (s Schedule) Clock() (hour, minute int, err error) {
	parts := strings.Split(s.Time, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidSchedule, s.Time)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour in %q", ErrInvalidSchedule, s.Time)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute in %q", ErrInvalidSchedule, s.Time)
	}
	return hour, minute, nil
}

// Validate checks the fields the options page requires before saving.
func (s Schedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSchedule)
	}
	if s.Type == "" {
		return fmt.Errorf("%w: session type is required", ErrInvalidSchedule)
	}
	if len(s.Days) == 0 {
		return fmt.Errorf("%w: at least one day is required", ErrInvalidSchedule)
	}
	for _, day := range s.Days {
		if day < 0 || day > 6 {
			return fmt.Errorf("%w: day %d out of range", ErrInvalidSchedule, day)
		}
	}
	if s.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidSchedule)
	}
	if _, _, err := s.Clock(); err != nil {
		return err
	}
	return nil
}
