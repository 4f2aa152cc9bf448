// Package ledger records an append-only audit trail of successful
// compiles to a SQLite database: one row per build, carrying the
// module's identity, capabilities, checksums, and a build ID. It is
// audit/provenance only and never consulted by the compile pipeline
// itself — there is no incremental compilation here.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chazu/akmc/akm/binary"
)

// Ledger wraps a SQLite database holding the build_log table.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: opening %s: %w", path, err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS build_log (
		build_id         TEXT PRIMARY KEY,
		source_path      TEXT NOT NULL,
		module_name      TEXT NOT NULL,
		module_version   TEXT NOT NULL,
		capabilities     INTEGER NOT NULL,
		header_checksum  INTEGER NOT NULL,
		content_checksum INTEGER NOT NULL,
		built_at         TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: creating table: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts one row describing a successful compile of sourcePath
// into header, stamping it with a fresh build ID and the current time.
func (l *Ledger) Record(sourcePath string, h *binary.Header) (string, error) {
	id := uuid.New().String()
	_, err := l.db.Exec(
		`INSERT INTO build_log (build_id, source_path, module_name, module_version,
			capabilities, header_checksum, content_checksum, built_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sourcePath, h.Name, h.Version, h.Capabilities,
		h.HeaderChecksum, h.ContentChecksum, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("ledger: recording build: %w", err)
	}
	return id, nil
}

// Entry is one row read back from the ledger.
type Entry struct {
	BuildID         string
	SourcePath      string
	ModuleName      string
	ModuleVersion   string
	Capabilities    uint32
	HeaderChecksum  uint32
	ContentChecksum uint32
	BuiltAt         string
}

// Recent returns the most recent n entries, newest first.
func (l *Ledger) Recent(n int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT build_id, source_path, module_name, module_version,
			capabilities, header_checksum, content_checksum, built_at
		 FROM build_log ORDER BY built_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("ledger: querying recent builds: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.BuildID, &e.SourcePath, &e.ModuleName, &e.ModuleVersion,
			&e.Capabilities, &e.HeaderChecksum, &e.ContentChecksum, &e.BuiltAt); err != nil {
			return nil, fmt.Errorf("ledger: scanning row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
