package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
	"Mansoor88-6/session-tracker/internal/notifier"
	"Mansoor88-6/session-tracker/internal/repository"
	"Mansoor88-6/session-tracker/internal/storage"
	"Mansoor88-6/session-tracker/internal/tabs"
	"Mansoor88-6/session-tracker/internal/timer"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type sentMessage struct {
	tabID int
	msg   message.TabMessage
}

// fakeMessenger records messages and reports every delivery as failed, the
// way a tab without a content script behaves.
type fakeMessenger struct {
	sent       []sentMessage
	broadcasts []message.TabMessage
}

func (f *fakeMessenger) SendToTab(tabID int, msg message.TabMessage) error {
	f.sent = append(f.sent, sentMessage{tabID: tabID, msg: msg})
	return errors.New("no listener")
}

func (f *fakeMessenger) Broadcast(msg message.TabMessage) error {
	f.broadcasts = append(f.broadcasts, msg)
	return nil
}

func (f *fakeMessenger) count(tabID int, action string) int {
	n := 0
	for _, s := range f.sent {
		if s.tabID == tabID && s.msg.Action == action {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	notified []notifier.Notification
	cleared  []string
}

func (r *recordingNotifier) Notify(_ context.Context, n notifier.Notification) error {
	r.notified = append(r.notified, n)
	return nil
}

func (r *recordingNotifier) Clear(_ context.Context, id string) error {
	r.cleared = append(r.cleared, id)
	return nil
}

func (r *recordingNotifier) titled(title string) int {
	n := 0
	for _, note := range r.notified {
		if note.Title == title {
			n++
		}
	}
	return n
}

type harness struct {
	ctx       context.Context
	tracker   *SessionTracker
	clock     *timer.Manual
	tabs      *tabs.Registry
	store     *storage.MemoryStore
	repo      *repository.StateRepository
	messenger *fakeMessenger
	notes     *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := &harness{
		ctx:       context.Background(),
		clock:     timer.NewManual(epoch),
		tabs:      tabs.NewRegistry(logger),
		store:     storage.NewMemoryStore(),
		messenger: &fakeMessenger{},
		notes:     &recordingNotifier{},
	}
	h.repo = repository.NewStateRepository(h.store, repository.DefaultHistoryLimit)
	h.tracker = NewSessionTracker(h.repo, h.tabs, h.messenger, h.notes, h.clock, h.clock, DefaultBlockedReminder, logger)
	return h
}

func (h *harness) openTab(id, window int, url string, active bool) {
	h.tabs.Update(models.Tab{ID: id, WindowID: window, URL: url, Active: active})
	if active {
		h.tabs.Focus(window)
	}
}

func (h *harness) saveSettings(t *testing.T, mutate func(*models.GeneralSettings)) {
	t.Helper()
	settings := models.DefaultGeneralSettings()
	mutate(&settings)
	if err := h.repo.SaveGeneralSettings(h.ctx, settings); err != nil {
		t.Fatalf("SaveGeneralSettings: %v", err)
	}
	if err := h.tracker.ReloadSettings(h.ctx); err != nil {
		t.Fatalf("ReloadSettings: %v", err)
	}
}

func (h *harness) history(t *testing.T) []*models.Session {
	t.Helper()
	history, err := h.repo.LoadHistory(h.ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	return history
}

func mustStart(t *testing.T, h *harness, sessionType models.SessionType) {
	t.Helper()
	if err := h.tracker.Start(h.ctx, sessionType); err != nil {
		t.Fatalf("Start(%s): %v", sessionType, err)
	}
}

func mustStop(t *testing.T, h *harness) {
	t.Helper()
	if err := h.tracker.Stop(h.ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
