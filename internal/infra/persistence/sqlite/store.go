// Package sqlite provides a SQLite-backed persistent store. Transactions run
// against the embedded in-memory store; the committed snapshot is written to
// SQLite inside the same critical section.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"inventorycore/internal/infra/persistence/memory"
	"inventorycore/internal/infra/persistence/migrations"
	"inventorycore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "inventory.db"

// Store persists the in-memory state to a single SQLite table as JSON blobs.
type Store struct {
	*memory.Store
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (or creates) the database at path, applies migrations, and
// hydrates the in-memory state from the stored snapshot.
func NewStore(ctx context.Context, path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := migrations.UpSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{
		Store: memory.NewStore(engine),
		db:    db,
		path:  path,
		now:   func() time.Time { return time.Now().UTC() },
	}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.SetCommitHook(s.persist)
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	payloads := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return nil
	}
	snapshot, err := memory.DecodeBuckets(payloads)
	if err != nil {
		return err
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) (retErr error) {
	payloads, err := memory.EncodeBuckets(snapshot)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	stamp := s.now().Format(time.RFC3339Nano)
	for _, bucket := range memory.Buckets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket,payload,updated_at) VALUES(?,?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
			bucket, payloads[bucket], stamp); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
