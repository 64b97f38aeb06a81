// Package platform holds the OS-specific pieces of the agent: the
// single-instance lock and opening URLs in the user's browser.
package platform

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// ErrLocked means another agent already holds the instance lock.
var ErrLocked = errors.New("another session tracker instance is running")

// UnsupportedPlatformError represents an error for unsupported platforms
type UnsupportedPlatformError struct {
	OS string
}

func (e *UnsupportedPlatformError) Error() string {
	return "unsupported platform: " + e.OS
}

// OpenBrowser opens the default browser with the given URL
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		for _, browser := range []string{"xdg-open", "x-www-browser", "firefox", "google-chrome", "chromium"} {
			if err := exec.Command(browser, url).Start(); err == nil {
				return nil
			}
		}
		return fmt.Errorf("no browser found")
	default:
		return &UnsupportedPlatformError{OS: runtime.GOOS}
	}
}
