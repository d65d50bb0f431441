package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/screener-core/internal/manager"
)

// Restore loads the newest snapshot into m without recording history and
// makes the restored state the base of the undo buffer.
//
// Returns:
//   - the restored snapshot, or nil when the repository is empty
//   - error if the snapshot could not be read or applied
func Restore(ctx context.Context, repo Repository, m *manager.Manager) (*Snapshot, error) {
	snap, err := repo.Latest(ctx)
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest snapshot: %w", err)
	}

	if err := m.FromJSON(snap.Data, manager.WithoutHistory()); err != nil {
		return nil, fmt.Errorf("applying snapshot %d: %w", snap.ID, err)
	}

	data, err := m.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("capturing restored state: %w", err)
	}
	m.History().Reset(data)
	return snap, nil
}
