package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"Mansoor88-6/session-tracker/internal/config"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, "schedules", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "schedules", []byte(`[]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := s.Get(ctx, "schedules")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte(`[]`)) {
		t.Fatalf("Get = %s, want []", got)
	}
	if err := s.Remove(ctx, "schedules"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, "schedules"); err != nil {
		t.Fatalf("Remove of absent key: %v", err)
	}
	if _, err := s.Get(ctx, "schedules"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after remove error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreFailWrites(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("disk full")
	s.SetFailWrites(boom)
	if err := s.Set(context.Background(), "k", []byte("1")); !errors.Is(err, boom) {
		t.Fatalf("Set error = %v, want wrapped %v", err, boom)
	}
}

func TestSQLiteStore(t *testing.T) {
	cfg := config.StorageConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tracker.db"),
	}
	s, err := Open(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Driver: "etcd"}, zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("Open accepted an unknown driver")
	}
}
