// Package snapshot persists computed dashboard views to SQLite so they can be
// served or inspected without reloading the source dataset.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"
)

// Sentinel error kinds for this package.
var (
	ErrSnapshot = errors.New("snapshot store")
	ErrNotFound = errors.New("snapshot not found")
)

// timeLayout is fixed width so created_at sorts as text in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// View is one named payload to persist.
type View struct {
	Name    string
	Payload any
}

// Snapshot is a stored view.
type Snapshot struct {
	LoadID    string
	View      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (s Snapshot) Decode(v any) error {
	if err := sonic.Unmarshal(s.Payload, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrSnapshot, s.View, err)
	}
	return nil
}

// Store writes view snapshots keyed by load id and view name.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (and migrates) the SQLite database at path.
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrSnapshot)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrSnapshot, err)
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes every view for loadID in one transaction. Saving the same
// view for the same load again replaces it.
func (s *Store) Save(ctx context.Context, loadID string, views []View) (err error) {
	if loadID == "" {
		return fmt.Errorf("%w: load id is required", ErrSnapshot)
	}
	if len(views) == 0 {
		return nil
	}

	payloads := make([][]byte, len(views))
	for i, v := range views {
		if payloads[i], err = sonic.Marshal(v.Payload); err != nil {
			return fmt.Errorf("%w: encode %s: %w", ErrSnapshot, v.Name, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO view_snapshots (load_id, view, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(load_id, view)
		DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	defer func() { _ = stmt.Close() }()

	createdAt := s.now().UTC().Format(timeLayout)
	for i, v := range views {
		if _, err = stmt.ExecContext(ctx, loadID, v.Name, string(payloads[i]), createdAt); err != nil {
			return fmt.Errorf("%w: write %s: %w", ErrSnapshot, v.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	return nil
}

// Latest returns the most recently written snapshot of view.
func (s *Store) Latest(ctx context.Context, view string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT load_id, view, payload, created_at
		FROM view_snapshots
		WHERE view = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, view)
	return scan(row, view)
}

// Get returns the snapshot of view written for loadID.
func (s *Store) Get(ctx context.Context, loadID, view string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT load_id, view, payload, created_at
		FROM view_snapshots
		WHERE load_id = ? AND view = ?
	`, loadID, view)
	return scan(row, view)
}

func scan(row *sql.Row, view string) (Snapshot, error) {
	var (
		snap      Snapshot
		payload   string
		createdAt string
	)
	if err := row.Scan(&snap.LoadID, &snap.View, &payload, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, view)
		}
		return Snapshot{}, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	snap.Payload = []byte(payload)
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		snap.CreatedAt = t
	}
	return snap, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS view_snapshots (
			load_id TEXT NOT NULL,
			view TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (load_id, view)
		);`,
		`CREATE INDEX IF NOT EXISTS view_snapshots_view_created
			ON view_snapshots (view, created_at);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}
