package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/screener-core/internal/infrastructure/database"
)

// Snapshot is one saved copy of the manager state.
type Snapshot struct {
	ID        int64           `json:"id"`
	Label     string          `json:"label"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Repository stores snapshots.
type Repository interface {
	// Save inserts a snapshot and, when keep > 0, deletes all but the
	// newest keep rows in the same transaction.
	Save(ctx context.Context, label string, data []byte, keep int) (*Snapshot, error)

	// Latest returns the newest snapshot or ErrSnapshotNotFound.
	Latest(ctx context.Context) (*Snapshot, error)

	// Get returns one snapshot by id or ErrSnapshotNotFound.
	Get(ctx context.Context, id int64) (*Snapshot, error)

	// List returns snapshot metadata newest first, without Data.
	List(ctx context.Context, limit int) ([]Snapshot, error)
}

// timeFormat is how created_at is stored; it sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepository implements Repository over the snapshots table.
type SQLiteRepository struct {
	db  *database.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository. The snapshots migration must
// already be applied.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Save inserts a snapshot and prunes old rows.
func (r *SQLiteRepository) Save(ctx context.Context, label string, data []byte, keep int) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, ErrEmptySnapshot
	}

	snap := &Snapshot{
		Label:     label,
		Data:      append(json.RawMessage(nil), data...),
		CreatedAt: r.now().UTC(),
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (label, data, created_at) VALUES (?, ?, ?)`,
			snap.Label, string(snap.Data), snap.CreatedAt.Format(timeFormat))
		if err != nil {
			return fmt.Errorf("inserting snapshot: %w", err)
		}
		if snap.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading snapshot id: %w", err)
		}

		if keep > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`,
				keep); err != nil {
				return fmt.Errorf("pruning snapshots: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Latest returns the newest snapshot.
func (r *SQLiteRepository) Latest(ctx context.Context) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, label, data, created_at FROM snapshots ORDER BY id DESC LIMIT 1`)
	return scanSnapshot(row, "latest")
}

// Get returns one snapshot by id.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, label, data, created_at FROM snapshots WHERE id = ?`, id)
	return scanSnapshot(row, fmt.Sprintf("id %d", id))
}

// List returns snapshot metadata newest first. limit <= 0 returns all rows.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, label, created_at FROM snapshots ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s       Snapshot
			created string
		)
		if err := rows.Scan(&s.ID, &s.Label, &created); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if s.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
			return nil, fmt.Errorf("parsing snapshot %d created_at: %w", s.ID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}

func scanSnapshot(row *sql.Row, what string) (*Snapshot, error) {
	var (
		s       Snapshot
		data    string
		created string
	)
	if err := row.Scan(&s.ID, &s.Label, &data, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, what)
		}
		return nil, fmt.Errorf("querying snapshot %s: %w", what, err)
	}
	s.Data = json.RawMessage(data)

	var err error
	if s.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return nil, fmt.Errorf("parsing snapshot %d created_at: %w", s.ID, err)
	}
	return &s, nil
}
