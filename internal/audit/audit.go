// Package audit keeps an append-only mutation log in SQLite. The log is a
// best-effort audit trail: recording failures are reported to the caller
// so they can be logged, but they never fail the mutation that produced
// them. Correctness of the engine does not depend on this package.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bookplate/internal/config"
)

// Entry is one recorded mutation.
type Entry struct {
	ID        int64
	OpID      string
	Operation string
	ISBN      string
	BookID    string
	Detail    string
	CreatedAt time.Time
}

// Log manages audit persistence backed by SQLite.
type Log struct {
	db   *sql.DB
	path string
}

const schema = `CREATE TABLE IF NOT EXISTS audit_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    op_id TEXT NOT NULL,
    operation TEXT NOT NULL,
    isbn TEXT,
    book_id TEXT,
    detail TEXT,
    created_at TEXT NOT NULL
)`

// Open initializes or connects to the audit database. Returns (nil, nil)
// when auditing is disabled in the config.
func Open(cfg *config.Config) (*Log, error) {
	if cfg == nil || !cfg.Audit.Enabled {
		return nil, nil
	}

	db, err := sql.Open("sqlite", cfg.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}

	return &Log{db: db, path: cfg.Audit.Path}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record appends one mutation to the log. Safe to call on a nil log.
func (l *Log) Record(ctx context.Context, operation, isbnValue, bookID, detail string) error {
	if l == nil || l.db == nil {
		return nil
	}
	if operation == "" {
		return errors.New("operation is required")
	}
	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO audit_entries (op_id, operation, isbn, book_id, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		operation,
		nullableString(isbnValue),
		nullableString(bookID),
		nullableString(detail),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(
		ctx,
		`SELECT id, op_id, operation, isbn, book_id, detail, created_at
         FROM audit_entries ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			isbnValue  sql.NullString
			bookID     sql.NullString
			detail     sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.OpID, &entry.Operation, &isbnValue, &bookID, &detail, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ISBN = isbnValue.String
		entry.BookID = bookID.String
		entry.Detail = detail.String
		if created, parseErr := time.Parse(time.RFC3339Nano, createdRaw); parseErr == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
