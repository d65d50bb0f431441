package project

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/screener-core/internal/manager"
)

func TestRestoreEmptyRepository(t *testing.T) {
	m := manager.New(manager.Options{})
	t.Cleanup(m.Close)

	snap, err := Restore(context.Background(), &mockRepository{}, m)
	if err != nil || snap != nil {
		t.Errorf("Restore() = %v, %v; want nil, nil", snap, err)
	}
}

func TestRestoreRoundTripThroughSQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))

	source := manager.New(manager.Options{})
	t.Cleanup(source.Close)
	source.CreateScene("Finale")
	data, err := source.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Save(ctx, AutosaveLabel, data, 5); err != nil {
		t.Fatal(err)
	}

	target := manager.New(manager.Options{})
	t.Cleanup(target.Close)
	snap, err := Restore(ctx, repo, target)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if snap == nil {
		t.Fatal("Restore() returned no snapshot")
	}

	restored, err := target.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != string(data) {
		t.Errorf("restored state differs:\n got %s\nwant %s", restored, data)
	}
	if target.ActiveScene().Name != "Finale" {
		t.Errorf("active scene = %q", target.ActiveScene().Name)
	}
	if target.CanUndo() {
		t.Error("restore left an undo step")
	}
}

func TestRestoreErrors(t *testing.T) {
	tests := []struct {
		name string
		repo *mockRepository
	}{
		{"read failure", &mockRepository{err: errors.New("locked")}},
		{"invalid data", &mockRepository{latest: &Snapshot{ID: 7, Data: []byte(`{"scenes":`)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := manager.New(manager.Options{})
			t.Cleanup(m.Close)
			if _, err := Restore(context.Background(), tt.repo, m); err == nil {
				t.Error("Restore() expected error")
			}
		})
	}
}
