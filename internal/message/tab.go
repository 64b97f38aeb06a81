package message

import "Mansoor88-6/session-tracker/internal/models"

const (
	TabStartGradualWarning = "startGradualWarning"
	TabHideWarning         = "hideWarning"
	TabPlaySound           = "playSound"
)

// TabMessage is sent to the content script of a single tab.
type TabMessage struct {
	Action       string             `json:"action"`
	SessionType  models.SessionType `json:"sessionType,omitempty"`
	WarningDelay int                `json:"warningDelay,omitempty"`
}

// StartGradualWarning begins the delayed block overlay in a tab.
func StartGradualWarning(sessionType models.SessionType, warningDelay int) TabMessage {
	return TabMessage{
		Action:       TabStartGradualWarning,
		SessionType:  sessionType,
		WarningDelay: warningDelay,
	}
}

// HideWarning removes the overlay from a tab.
func HideWarning() TabMessage {
	return TabMessage{Action: TabHideWarning}
}

// PlaySound asks the extension to play the blocked-site alert. It is
// broadcast rather than addressed to a tab.
func PlaySound() TabMessage {
	return TabMessage{Action: TabPlaySound}
}
