package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"Mansoor88-6/session-tracker/internal/models"
)

var ErrUnknownEvent = errors.New("unknown event type")

const (
	EventTabActivated       = "tabActivated"
	EventTabUpdated         = "tabUpdated"
	EventTabRemoved         = "tabRemoved"
	EventWindowFocusChanged = "windowFocusChanged"
	EventTabsSnapshot       = "tabsSnapshot"
)

// Event is a tab or window notification forwarded by the extension.
type Event interface {
	EventType() string
}

type TabActivated struct {
	TabID    int `json:"tabId"`
	WindowID int `json:"windowId"`
}

// TabUpdated reports a completed navigation inside a tab.
type TabUpdated struct {
	TabID    int    `json:"tabId"`
	WindowID int    `json:"windowId"`
	URL      string `json:"url"`
	Active   bool   `json:"active"`
}

type TabRemoved struct {
	TabID int `json:"tabId"`
}

// WindowFocusChanged carries models.NoWindow when every window lost focus.
type WindowFocusChanged struct {
	WindowID int `json:"windowId"`
}

// TabsSnapshot replaces the whole tab mirror, sent when the extension connects.
type TabsSnapshot struct {
	Tabs []models.Tab `json:"tabs"`
}

func (TabActivated) EventType() string { return EventTabActivated }
func (TabUpdated) EventType() string { return EventTabUpdated }
func (TabRemoved) EventType() string { return EventTabRemoved }
func (WindowFocusChanged) EventType() string { return EventWindowFocusChanged }
func (TabsSnapshot) EventType() string { return EventTabsSnapshot }

// DecodeEvent parses a type-tagged JSON platform event.
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	switch envelope.Type {
	case EventTabActivated:
		return decodeEventAs[TabActivated](data)
	case EventTabUpdated:
		return decodeEventAs[TabUpdated](data)
	case EventTabRemoved:
		return decodeEventAs[TabRemoved](data)
	case EventWindowFocusChanged:
		return decodeEventAs[WindowFocusChanged](data)
	case EventTabsSnapshot:
		return decodeEventAs[TabsSnapshot](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, envelope.Type)
	}
}

func decodeEventAs[T Event](data []byte) (Event, error) {
	var ev T
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, ev.EventType(), err)
	}
	return ev, nil
}
