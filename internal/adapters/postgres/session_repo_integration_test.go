//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/samirrijal/trackcluster/internal/adapters/postgres"
	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/pkg/config"
)

// setupTestDB connects to the configured database and applies the schema.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("trackcluster-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	schema, err := os.ReadFile("../../../migrations/001_sessions.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id LIKE 'it-%'`); err != nil {
		t.Fatalf("clean: %v", err)
	}
	return db
}

func TestSessionRepo_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewSessionRepo(db, "postgres")
	ctx := context.Background()

	bounds, _ := domain.ParseGeoBounds("47.3702", "47.3601", "8.5455", "8.5301")
	in := []domain.Session{
		{
			ID:          "it-1",
			SportTypeID: "1",
			StartTime:   time.Date(2015, 6, 1, 8, 0, 0, 0, time.UTC),
			Duration:    time.Hour,
			Distance:    10200,
			Bounds:      bounds,
			TrackPoints: 120,
			HeartRate:   true,
			PhotoIDs:    []string{"p1"},
		},
		{ID: "it-2", StartTime: time.Date(2015, 6, 2, 8, 0, 0, 0, time.UTC)},
	}
	if err := repo.UpsertBatch(ctx, in); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Upserting again must not duplicate rows.
	if err := repo.UpsertBatch(ctx, in); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.Get(ctx, "it-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Bounds.Equal(bounds) {
		t.Errorf("bounds = %v, want %v", got.Bounds, bounds)
	}
	if got.Duration != time.Hour || !got.HeartRate || len(got.PhotoIDs) != 1 {
		t.Errorf("unexpected session: %+v", got)
	}

	other, err := repo.Get(ctx, "it-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if other.HasBounds() {
		t.Errorf("it-2 should have no bounds, got %v", other.Bounds)
	}

	if _, err := repo.Get(ctx, "it-missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	res, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Origin != "postgres" {
		t.Errorf("origin = %q", res.Origin)
	}
	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(res.Sessions) {
		t.Errorf("count %d != loaded %d", n, len(res.Sessions))
	}
}
