package models

// NoWindow is the window id the browser reports when focus leaves every window.
const NoWindow = -1

// Tab mirrors a browser tab as last reported by the extension.
type Tab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	URL      string `json:"url"`
	Active   bool   `json:"active"`
}
