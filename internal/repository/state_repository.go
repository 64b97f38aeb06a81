package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"Mansoor88-6/session-tracker/internal/models"
	"Mansoor88-6/session-tracker/internal/storage"
)

// Persisted keys, shared with the extension's storage layout.
const (
	KeyCurrentSession  = "currentSession"
	KeySessionHistory  = "sessionHistory"
	KeySessionConfigs  = "sessionConfigs"
	KeySchedules       = "schedules"
	KeyGeneralSettings = "generalSettings"
)

const DefaultHistoryLimit = 1000

// StateRepository is the typed view over the key-value store.
type StateRepository struct {
	store        storage.Store
	historyLimit int
}

func NewStateRepository(store storage.Store, historyLimit int) *StateRepository {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &StateRepository{store: store, historyLimit: historyLimit}
}

// LoadCurrentSession returns nil when no session is persisted.
func (r *StateRepository) LoadCurrentSession(ctx context.Context) (*models.Session, error) {
	var session models.Session
	found, err := r.get(ctx, KeyCurrentSession, &session)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

func (r *StateRepository) SaveCurrentSession(ctx context.Context, session *models.Session) error {
	return r.set(ctx, KeyCurrentSession, session)
}

func (r *StateRepository) RemoveCurrentSession(ctx context.Context) error {
	if err := r.store.Remove(ctx, KeyCurrentSession); err != nil {
		return fmt.Errorf("failed to remove current session: %w", err)
	}
	return nil
}

// LoadHistory returns archived sessions, oldest first.
func (r *StateRepository) LoadHistory(ctx context.Context) ([]*models.Session, error) {
	history := make([]*models.Session, 0)
	if _, err := r.get(ctx, KeySessionHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// SaveHistory replaces the archive, keeping only the newest entries.
func (r *StateRepository) SaveHistory(ctx context.Context, history []*models.Session) error {
	return r.set(ctx, KeySessionHistory, r.capHistory(history))
}

// AppendHistory archives a finished session, evicting the oldest beyond the limit.
func (r *StateRepository) AppendHistory(ctx context.Context, session *models.Session) error {
	history, err := r.LoadHistory(ctx)
	if err != nil {
		return err
	}
	return r.SaveHistory(ctx, append(history, session))
}

// ClearHistory removes the whole archive.
func (r *StateRepository) ClearHistory(ctx context.Context) error {
	if err := r.store.Remove(ctx, KeySessionHistory); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (r *StateRepository) capHistory(history []*models.Session) []*models.Session {
	if len(history) > r.historyLimit {
		history = history[len(history)-r.historyLimit:]
	}
	return history
}

func (r *StateRepository) LoadSessionConfigs(ctx context.Context) (map[models.SessionType]models.SessionConfig, error) {
	configs := make(map[models.SessionType]models.SessionConfig)
	if _, err := r.get(ctx, KeySessionConfigs, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// SessionConfig returns the policy for one session type, empty when unset.
func (r *StateRepository) SessionConfig(ctx context.Context, sessionType models.SessionType) (models.SessionConfig, error) {
	configs, err := r.LoadSessionConfigs(ctx)
	if err != nil {
		return models.SessionConfig{}, err
	}
	return configs[sessionType], nil
}

func (r *StateRepository) SaveSessionConfigs(ctx context.Context, configs map[models.SessionType]models.SessionConfig) error {
	return r.set(ctx, KeySessionConfigs, configs)
}

func (r *StateRepository) LoadSchedules(ctx context.Context) ([]models.Schedule, error) {
	schedules := make([]models.Schedule, 0)
	if _, err := r.get(ctx, KeySchedules, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *StateRepository) SaveSchedules(ctx context.Context, schedules []models.Schedule) error {
	return r.set(ctx, KeySchedules, schedules)
}

// LoadGeneralSettings overlays the stored record on the defaults, so fields
// missing from an older record keep their default value.
func (r *StateRepository) LoadGeneralSettings(ctx context.Context) (models.GeneralSettings, error) {
	settings := models.DefaultGeneralSettings()
	if _, err := r.get(ctx, KeyGeneralSettings, &settings); err != nil {
		return models.DefaultGeneralSettings(), err
	}
	return settings, nil
}

func (r *StateRepository) SaveGeneralSettings(ctx context.Context, settings models.GeneralSettings) error {
	return r.set(ctx, KeyGeneralSettings, settings)
}

func (r *StateRepository) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *StateRepository) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
