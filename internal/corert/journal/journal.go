// Package journal implements an optional SQLite-backed record of pending
// work, so a caller can recover undelivered jobs across a process restart.
// It persists pending *work*, not actor state: an opaque encoded payload and
// a deadline, never anything about an actor's internal fields. corertctl's
// submit command is one such caller: opt in with --journal.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	defaultMaxConns         = 5
	defaultConnMaxLifetime  = 10 * time.Minute
)

// Entry is one pending unit of deferred work as persisted in the journal.
type Entry struct {
	WorkID     string
	DeadlineNs int64
	Payload    []byte
}

// Store is a SQLite-backed journal of pending scheduled work.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// any outstanding migrations, setting the usual WAL/foreign-key/busy-timeout
// pragmas and migrating on startup.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, corerterrors.Wrap(corerterrors.KindIO, err, "journal: create directory")
	}

	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path,
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, corerterrors.Wrap(corerterrors.KindIO, err, "journal: open database")
	}

	db.SetMaxOpenConns(defaultMaxConns)
	db.SetMaxIdleConns(defaultMaxConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return corerterrors.Wrap(corerterrors.KindIO, err, "journal: migration driver")
	}

	src, err := httpfs.New(http.FS(migrationFiles), "migrations")
	if err != nil {
		return corerterrors.Wrap(corerterrors.KindIO, err, "journal: migration source")
	}

	m, err := migrate.NewWithInstance("httpfs", src, "sqlite3", driver)
	if err != nil {
		return corerterrors.Wrap(corerterrors.KindIO, err, "journal: migration init")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return corerterrors.Wrap(corerterrors.KindIO, err, "journal: apply migrations")
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces the journal row for workID.
func (s *Store) Put(ctx context.Context, e Entry, nowNs int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_work (work_id, deadline_ns, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(work_id) DO UPDATE SET
			deadline_ns = excluded.deadline_ns,
			payload = excluded.payload
	`, e.WorkID, e.DeadlineNs, e.Payload, nowNs)
	if err != nil {
		return corerterrors.Wrap(corerterrors.KindIO, err, "journal: put %q", e.WorkID)
	}
	return nil
}

// Remove deletes the journal row for workID, e.g. once the work has fired
// or been cancelled.
func (s *Store) Remove(ctx context.Context, workID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_work WHERE work_id = ?`, workID)
	if err != nil {
		return corerterrors.Wrap(corerterrors.KindIO, err, "journal: remove %q", workID)
	}
	return nil
}

// LoadPending returns every still-pending entry, ordered by ascending
// deadline, for a caller to re-arm against a fresh Scheduler on startup.
func (s *Store) LoadPending(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT work_id, deadline_ns, payload FROM scheduled_work
		ORDER BY deadline_ns ASC
	`)
	if err != nil {
		return nil, corerterrors.Wrap(corerterrors.KindIO, err, "journal: load pending")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.WorkID, &e.DeadlineNs, &e.Payload); err != nil {
			return nil, corerterrors.Wrap(corerterrors.KindIO, err, "journal: scan row")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, corerterrors.Wrap(corerterrors.KindIO, err, "journal: iterate rows")
	}
	return out, nil
}
