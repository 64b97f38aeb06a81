// Package message defines the closed sets of inbound requests, platform
// events and outbound tab messages exchanged with the browser extension.
package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"Mansoor88-6/session-tracker/internal/models"
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidRequest = errors.New("invalid request")
)

const (
	ActionStartSession         = "startSession"
	ActionStopSession          = "stopSession"
	ActionGetSessionStatus     = "getSessionStatus"
	ActionGetTodayStats        = "getTodayStats"
	ActionOverrideWarning      = "overrideWarning"
	ActionPageVisibility       = "pageVisibilityChanged"
	ActionActivityUpdate       = "activityUpdate"
	ActionUpdateSchedules      = "updateSchedules"
	ActionSaveGeneralSettings  = "saveGeneralSettings"
	ActionUpdateSessionConfigs = "updateSessionConfigs"
	ActionClearHistory         = "clearHistory"
	ActionGetHistoryStats      = "getHistoryStats"
	ActionGetSiteStats         = "getSiteStats"
)

// Request is an inbound request/response message from the extension UI.
type Request interface {
	Action() string
}

type StartSession struct {
	SessionType models.SessionType `json:"sessionType"`
}

type StopSession struct{}

type GetSessionStatus struct{}

type GetTodayStats struct{}

type OverrideWarning struct {
	URL string `json:"url"`
}

type PageVisibilityChanged struct {
	Visible bool   `json:"visible"`
	URL     string `json:"url"`
}

type ActivityUpdate struct {
	Active bool   `json:"active"`
	URL    string `json:"url"`
}

type UpdateSchedules struct {
	Schedules []models.Schedule `json:"schedules"`
}

// SaveGeneralSettings asks the agent to reload settings. When Settings is
// set it is persisted first.
type SaveGeneralSettings struct {
	Settings *models.GeneralSettings `json:"settings,omitempty"`
}

type UpdateSessionConfigs struct {
	Configs map[models.SessionType]models.SessionConfig `json:"configs"`
}

// Timeframe selects which archived sessions clearHistory removes.
type Timeframe string

const (
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeAll   Timeframe = "all"
)

type ClearHistory struct {
	Timeframe Timeframe `json:"timeframe"`
}

type GetHistoryStats struct{}

// SiteSort orders per-site statistics.
type SiteSort string

const (
	SortByTime   SiteSort = "time"
	SortByVisits SiteSort = "visits"
	SortByName   SiteSort = "name"
)

type GetSiteStats struct {
	Sort  SiteSort `json:"sort,omitempty"`
	Limit int      `json:"limit,omitempty"`
}

func (StartSession) Action() string { return ActionStartSession }
func (StopSession) Action() string { return ActionStopSession }
func (GetSessionStatus) Action() string { return ActionGetSessionStatus }
func (GetTodayStats) Action() string { return ActionGetTodayStats }
func (OverrideWarning) Action() string { return ActionOverrideWarning }
func (PageVisibilityChanged) Action() string { return ActionPageVisibility }
func (ActivityUpdate) Action() string { return ActionActivityUpdate }
func (UpdateSchedules) Action() string { return ActionUpdateSchedules }
func (SaveGeneralSettings) Action() string { return ActionSaveGeneralSettings }
func (UpdateSessionConfigs) Action() string { return ActionUpdateSessionConfigs }
func (ClearHistory) Action() string { return ActionClearHistory }
func (GetHistoryStats) Action() string { return ActionGetHistoryStats }
func (GetSiteStats) Action() string { return ActionGetSiteStats }

// Decode parses an action-tagged JSON message into its typed request.
func Decode(data []byte) (Request, error) {
	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	switch envelope.Action {
	case ActionStartSession:
		return decodeAs[StartSession](data)
	case ActionStopSession:
		return StopSession{}, nil
	case ActionGetSessionStatus:
		return GetSessionStatus{}, nil
	case ActionGetTodayStats:
		return GetTodayStats{}, nil
	case ActionOverrideWarning:
		return decodeAs[OverrideWarning](data)
	case ActionPageVisibility:
		return decodeAs[PageVisibilityChanged](data)
	case ActionActivityUpdate:
		return decodeAs[ActivityUpdate](data)
	case ActionUpdateSchedules:
		return decodeAs[UpdateSchedules](data)
	case ActionSaveGeneralSettings:
		return decodeAs[SaveGeneralSettings](data)
	case ActionUpdateSessionConfigs:
		return decodeAs[UpdateSessionConfigs](data)
	case ActionClearHistory:
		return decodeAs[ClearHistory](data)
	case ActionGetHistoryStats:
		return GetHistoryStats{}, nil
	case ActionGetSiteStats:
		return decodeAs[GetSiteStats](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, envelope.Action)
	}
}

// Encode renders a request with its action tag, as the extension sends it.
func Encode(req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", req.Action(), err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", req.Action(), err)
	}
	action, _ := json.Marshal(req.Action())
	fields["action"] = action
	return json.Marshal(fields)
}

func decodeAs[T Request](data []byte) (Request, error) {
	var req T
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, req.Action(), err)
	}
	return req, nil
}
