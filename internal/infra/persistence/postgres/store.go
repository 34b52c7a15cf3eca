// Package postgres provides a Postgres-backed persistent store that mirrors
// the in-memory semantics and writes each committed snapshot to a JSONB table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"inventorycore/internal/infra/persistence/memory"
	"inventorycore/internal/infra/persistence/migrations"
	"inventorycore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/inventory?sslmode=disable"
)

var (
	sqlOpen   = sql.Open
	migrateDB = migrations.UpPostgres
	openMu    sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory implementation for transactions.
type Store struct {
	*memory.Store
	db  *sql.DB
	now func() time.Time
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to defaultDSN).
// It applies migrations and hydrates the in-memory store from any existing snapshot.
func NewStore(ctx context.Context, dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	open, migrate := sqlOpen, migrateDB
	openMu.Unlock()
	db, err := open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore(engine)
	mem.ImportState(snapshot)
	s := &Store{Store: mem, db: db, now: func() time.Time { return time.Now().UTC() }}
	mem.SetCommitHook(s.persist)
	return s, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payloads := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return memory.DecodeBuckets(payloads)
}

func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) error {
	payloads, err := memory.EncodeBuckets(snapshot)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	stamp := s.now()
	for _, bucket := range memory.Buckets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket,payload,updated_at) VALUES($1,$2,$3) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at`,
			bucket, string(payloads[bucket]), stamp); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

// OverrideMigrate swaps the migration runner for tests and returns a restore function.
func OverrideMigrate(fn func(ctx context.Context, db *sql.DB) error) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := migrateDB
	migrateDB = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		migrateDB = prev
	}
}
