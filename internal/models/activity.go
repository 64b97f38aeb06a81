package models

// ActivityAction is the kind of an ActivityEvent.
type ActivityAction string

const (
	ActionNavigate        ActivityAction = "navigate"
	ActionPageVisible     ActivityAction = "page_visible"
	ActionPageHidden      ActivityAction = "page_hidden"
	ActionUserActive      ActivityAction = "user_active"
	ActionUserInactive    ActivityAction = "user_inactive"
	ActionWarningOverride ActivityAction = "warning_override"
)

// ActivityEvent is an immutable entry of a session's activity log.
type ActivityEvent struct {
	Timestamp int64          `json:"timestamp"` // Unix timestamp in milliseconds
	Action    ActivityAction `json:"action"`
	URL       string         `json:"url"`
	Domain    string         `json:"domain"`
}
