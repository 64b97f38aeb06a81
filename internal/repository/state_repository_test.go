package repository

import (
	"context"
	"fmt"
	"testing"

	"Mansoor88-6/session-tracker/internal/models"
	"Mansoor88-6/session-tracker/internal/storage"
)

func TestAppendHistoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepository(storage.NewMemoryStore(), DefaultHistoryLimit)

	history := make([]*models.Session, 0, DefaultHistoryLimit)
	for i := 0; i < DefaultHistoryLimit; i++ {
		history = append(history, models.NewSession(models.SessionWork, int64(i)))
	}
	if err := repo.SaveHistory(ctx, history); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	newest := models.NewSession(models.SessionStudy, 5000)
	if err := repo.AppendHistory(ctx, newest); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	got, err := repo.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(got) != DefaultHistoryLimit {
		t.Fatalf("history length = %d, want %d", len(got), DefaultHistoryLimit)
	}
	if got[0].ID != history[1].ID || got[0].StartTime != 1 {
		t.Fatalf("oldest entry = %s at %d, want %s", got[0].ID, got[0].StartTime, history[1].ID)
	}
	if got[len(got)-1].ID != newest.ID {
		t.Fatalf("newest entry = %s, want %s", got[len(got)-1].ID, newest.ID)
	}
}

func TestCurrentSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepository(storage.NewMemoryStore(), 0)

	session, err := repo.LoadCurrentSession(ctx)
	if err != nil || session != nil {
		t.Fatalf("LoadCurrentSession on empty store = %v, %v", session, err)
	}

	active := models.NewSession(models.SessionWork, 1000)
	active.Visit("github.com", 1000)
	if err := repo.SaveCurrentSession(ctx, active); err != nil {
		t.Fatalf("SaveCurrentSession: %v", err)
	}
	loaded, err := repo.LoadCurrentSession(ctx)
	if err != nil {
		t.Fatalf("LoadCurrentSession: %v", err)
	}
	if loaded.ID != active.ID || loaded.Sites["github.com"].Visits != 1 {
		t.Fatalf("loaded session = %+v", loaded)
	}

	if err := repo.RemoveCurrentSession(ctx); err != nil {
		t.Fatalf("RemoveCurrentSession: %v", err)
	}
	if loaded, _ := repo.LoadCurrentSession(ctx); loaded != nil {
		t.Fatal("current session still present after remove")
	}
}

func TestGeneralSettingsDefaults(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewStateRepository(store, 0)

	settings, err := repo.LoadGeneralSettings(ctx)
	if err != nil {
		t.Fatalf("LoadGeneralSettings: %v", err)
	}
	if settings != models.DefaultGeneralSettings() {
		t.Fatalf("settings = %+v, want defaults", settings)
	}

	// A record saved before dataRetention existed keeps the default.
	if err := store.Set(ctx, KeyGeneralSettings, []byte(`{"warningDelay":15,"autoStop":false}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	settings, err = repo.LoadGeneralSettings(ctx)
	if err != nil {
		t.Fatalf("LoadGeneralSettings: %v", err)
	}
	if settings.WarningDelay != 15 || settings.AutoStop {
		t.Fatalf("stored fields not applied: %+v", settings)
	}
	if settings.DataRetention != models.DefaultDataRetention || !settings.Notifications {
		t.Fatalf("missing fields not defaulted: %+v", settings)
	}
}

func TestSessionConfigFallback(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepository(storage.NewMemoryStore(), 0)

	configs := map[models.SessionType]models.SessionConfig{
		models.SessionWork: {BlockedSites: []string{"facebook.com"}},
	}
	if err := repo.SaveSessionConfigs(ctx, configs); err != nil {
		t.Fatalf("SaveSessionConfigs: %v", err)
	}

	work, err := repo.SessionConfig(ctx, models.SessionWork)
	if err != nil {
		t.Fatalf("SessionConfig: %v", err)
	}
	if len(work.BlockedSites) != 1 {
		t.Fatalf("work config = %+v", work)
	}
	study, _ := repo.SessionConfig(ctx, models.SessionStudy)
	if len(study.AllowedSites) != 0 || len(study.BlockedSites) != 0 {
		t.Fatalf("unset config = %+v, want empty", study)
	}
}

func TestWriteFailureIsWrapped(t *testing.T) {
	store := storage.NewMemoryStore()
	boom := fmt.Errorf("quota exceeded")
	store.SetFailWrites(boom)
	repo := NewStateRepository(store, 0)

	err := repo.SaveSchedules(context.Background(), []models.Schedule{{ID: "a"}})
	if err == nil {
		t.Fatal("SaveSchedules succeeded on failing store")
	}
}
