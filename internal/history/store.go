// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records export outcomes in a local SQLite ledger.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/revit-ifc-export/pkg/types"
)

// DBFile is the ledger filename used when no path is configured.
const DBFile = "history.db"

const defaultLimit = 50

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the ledger at path, creating its parent
// directory and schema when missing.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS exports (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			title TEXT,
			full_path TEXT,
			status TEXT NOT NULL,
			message TEXT,
			ifc_version TEXT,
			exported_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_exported_at ON exports(exported_at)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_status ON exports(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts an entry. A missing ID is generated and a zero ExportedAt
// is set to now. The stored entry is returned.
func (s *Store) Record(ctx context.Context, e types.HistoryEntry) (types.HistoryEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ExportedAt.IsZero() {
		e.ExportedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (id, source_path, title, full_path, status, message, ifc_version, exported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SourcePath, e.Title, e.FullPath, string(e.Status), e.Message,
		string(e.IFCVersion), e.ExportedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return e, fmt.Errorf("recording export %s: %w", e.ID, err)
	}
	return e, nil
}

// ListOptions filters List. A zero Limit uses the default (50).
type ListOptions struct {
	Status types.ResultStatus
	Limit  int
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.HistoryEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT id, source_path, title, full_path, status, message, ifc_version, exported_at FROM exports`
	args := []any{}
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY exported_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var (
			e                       types.HistoryEntry
			status, version, exTime string
		)
		if err := rows.Scan(&e.ID, &e.SourcePath, &e.Title, &e.FullPath, &status, &e.Message, &version, &exTime); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Status = types.ResultStatus(status)
		e.IFCVersion = types.IFCVersion(version)
		if e.ExportedAt, err = time.Parse(time.RFC3339Nano, exTime); err != nil {
			return nil, fmt.Errorf("parsing export time for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
