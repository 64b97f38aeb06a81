// Package tray shows the running session in the system tray and offers
// start and stop shortcuts.
package tray

import (
	"context"
	"fmt"
	"time"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
)

const refreshInterval = 5 * time.Second

// Dispatcher answers extension-style requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req message.Request) (any, error)
}

// Tray owns the tray icon menu.
type Tray struct {
	dispatcher   Dispatcher
	sessionTypes []models.SessionType
	optionsURL   string
	openURL      func(url string) error
	onQuit       func()
	logger       *zap.Logger
	stopChan     chan struct{}
}

// NewTray creates a new tray
func NewTray(dispatcher Dispatcher, optionsURL string, openURL func(string) error, onQuit func(), logger *zap.Logger) *Tray {
	return &Tray{
		dispatcher: dispatcher,
		sessionTypes: []models.SessionType{
			models.SessionWork,
			models.SessionStudy,
			models.SessionBreak,
			models.SessionPersonal,
		},
		optionsURL: optionsURL,
		openURL:    openURL,
		onQuit:     onQuit,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Run blocks on the tray event loop. It must be called from the main
// goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and returns from Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Session Tracker")
	systray.SetTooltip("Session Tracker")

	status := systray.AddMenuItem("No active session", "Current session")
	status.Disable()
	systray.AddSeparator()

	for _, sessionType := range t.sessionTypes {
		item := systray.AddMenuItem(fmt.Sprintf("Start %s session", sessionType), "")
		go t.watch(item, func() {
			t.dispatch(message.StartSession{SessionType: sessionType})
		})
	}

	stop := systray.AddMenuItem("Stop session", "End the running session")
	go t.watch(stop, func() { t.dispatch(message.StopSession{}) })

	systray.AddSeparator()
	options := systray.AddMenuItem("Options", "Open the options page")
	go t.watch(options, func() {
		if t.optionsURL == "" || t.openURL == nil {
			return
		}
		if err := t.openURL(t.optionsURL); err != nil {
			t.logger.Warn("Failed to open options page", zap.Error(err))
		}
	})

	quit := systray.AddMenuItem("Quit", "Stop the agent")
	go t.watch(quit, func() {
		systray.Quit()
	})

	go t.refreshLoop(status, stop)
}

func (t *Tray) onExit() {
	close(t.stopChan)
	if t.onQuit != nil {
		t.onQuit()
	}
}

func (t *Tray) watch(item *systray.MenuItem, onClick func()) {
	for {
		select {
		case <-item.ClickedCh:
			onClick()
		case <-t.stopChan:
			return
		}
	}
}

func (t *Tray) refreshLoop(status, stop *systray.MenuItem) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		t.refresh(status, stop)
		select {
		case <-ticker.C:
		case <-t.stopChan:
			return
		}
	}
}

func (t *Tray) refresh(status, stop *systray.MenuItem) {
	resp := t.dispatch(message.GetSessionStatus{})
	current, ok := resp.(message.SessionStatus)
	if !ok {
		return
	}
	status.SetTitle(StatusLine(current))
	if current.Active {
		stop.Enable()
	} else {
		stop.Disable()
	}
}

func (t *Tray) dispatch(req message.Request) any {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := t.dispatcher.Dispatch(ctx, req)
	if err != nil {
		t.logger.Warn("Tray action failed",
			zap.String("action", req.Action()),
			zap.Error(err),
		)
		return nil
	}
	return resp
}

// StatusLine renders a session status for the tray menu.
func StatusLine(status message.SessionStatus) string {
	if !status.Active {
		return "No active session"
	}
	line := fmt.Sprintf("%s session", status.SessionType)
	if status.Duration != nil {
		line += " · " + FormatDuration(time.Duration(*status.Duration)*time.Millisecond)
	}
	if status.CurrentSite != nil && *status.CurrentSite != "" {
		line += " · " + *status.CurrentSite
	}
	return line
}

// FormatDuration renders d as "1h 05m" or "12m".
func FormatDuration(d time.Duration) string {
	d = d.Truncate(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
