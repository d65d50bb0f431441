package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/screener-core/internal/infrastructure/database"
	"github.com/nerrad567/screener-core/migrations"
)

// setupTestDB opens a migrated database in a temp directory.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "screener.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo := NewSQLiteRepository(setupTestDB(t))
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	var n int
	repo.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return repo
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := &Entry{
		Action:     "create",
		EntityType: "scenes",
		EntityID:   "s1",
		Subject:    "desk",
		Source:     SourceAPI,
		Details:    map[string]any{"status": float64(201)},
	}
	if err := repo.Record(ctx, first); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Errorf("Record() did not fill id/createdAt: %+v", first)
	}
	if err := repo.Record(ctx, &Entry{Action: "undo", EntityType: "history", Source: SourceMQTT}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 2 || len(res.Entries) != 2 {
		t.Fatalf("List() = %d entries, total %d, want 2", len(res.Entries), res.Total)
	}
	if res.Entries[0].Action != "undo" {
		t.Errorf("newest entry = %q, want undo first", res.Entries[0].Action)
	}
	if res.Entries[0].EntityID != "" || res.Entries[0].Subject != "" {
		t.Errorf("NULL columns not mapped to empty: %+v", res.Entries[0])
	}

	got := res.Entries[1]
	if got.EntityID != "s1" || got.Subject != "desk" || got.Source != SourceAPI {
		t.Errorf("entry = %+v", got)
	}
	if got.Details["status"] != float64(201) {
		t.Errorf("details = %v", got.Details)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, first.CreatedAt)
	}
	if res.Limit != defaultLimit {
		t.Errorf("limit = %d, want default %d", res.Limit, defaultLimit)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, e := range []*Entry{
		{Action: "create", EntityType: "scenes", EntityID: "s1", Subject: "desk", Source: SourceAPI},
		{Action: "update", EntityType: "scenes", EntityID: "s1", Subject: "desk", Source: SourceAPI},
		{Action: "update", EntityType: "scenes", EntityID: "s2", Subject: "tablet", Source: SourceAPI},
		{Action: "invoke", EntityType: "components", EntityID: "v1", Source: SourceMQTT},
	} {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by action", Filter{Action: "update"}, 2},
		{"by entity type", Filter{EntityType: "scenes"}, 3},
		{"by entity", Filter{EntityType: "scenes", EntityID: "s1"}, 2},
		{"by subject", Filter{Subject: "tablet"}, 1},
		{"no match", Filter{Action: "delete"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.want || len(res.Entries) != tt.want {
				t.Errorf("List(%+v) = %d entries, total %d, want %d", tt.filter, len(res.Entries), res.Total, tt.want)
			}
		})
	}
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for i := 0; i < 5; i++ {
		if err := repo.Record(ctx, &Entry{Action: "update", EntityType: "slices", Source: SourceAPI}); err != nil {
			t.Fatal(err)
		}
	}

	res, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 5 || len(res.Entries) != 1 {
		t.Errorf("page = %d entries, total %d, want 1 of 5", len(res.Entries), res.Total)
	}

	res, err = repo.List(ctx, Filter{Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Limit != maxLimit || res.Offset != 0 {
		t.Errorf("clamped limit/offset = %d/%d, want %d/0", res.Limit, res.Offset, maxLimit)
	}
}
