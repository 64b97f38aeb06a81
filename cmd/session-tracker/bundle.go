package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
)

// bundle is the YAML document accepted by the import command.
type bundle struct {
	Settings       *models.GeneralSettings                     `yaml:"settings"`
	SessionConfigs map[models.SessionType]models.SessionConfig `yaml:"sessionConfigs"`
	Schedules      []models.Schedule                           `yaml:"schedules"`
}

func loadBundle(path string) (*bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var b bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, schedule := range b.Schedules {
		if err := schedule.Validate(); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", schedule.Name, err)
		}
	}
	return &b, nil
}

// Requests turns the sections present in the bundle into agent requests.
func (b *bundle) Requests() []message.Request {
	var reqs []message.Request
	if b.Settings != nil {
		reqs = append(reqs, message.SaveGeneralSettings{Settings: b.Settings})
	}
	if len(b.SessionConfigs) > 0 {
		reqs = append(reqs, message.UpdateSessionConfigs{Configs: b.SessionConfigs})
	}
	if b.Schedules != nil {
		reqs = append(reqs, message.UpdateSchedules{Schedules: b.Schedules})
	}
	return reqs
}
