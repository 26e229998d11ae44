// Package journal keeps an audit trail of outbound booking requests and
// contact messages in SQLite. It is never read to decide slot availability.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Delivery statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Entry is one recorded delivery attempt.
type Entry struct {
	ID        int64
	Kind      string
	Name      string
	Email     string
	Detail    string // booking datetime or contact subject
	Status    string
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// Journal wraps sql.DB for the delivery journal.
type Journal struct {
	db *sql.DB
}

// Open opens the journal at path, creating its directory if needed, and
// runs migrations.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS deliveries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			name TEXT,
			email TEXT,
			detail TEXT,
			status TEXT NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_created ON deliveries(created_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// Record inserts an entry and returns its id. A zero CreatedAt is set to now.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO deliveries (kind, name, email, detail, status, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Kind, e.Name, e.Email, e.Detail, e.Status, e.Error,
		e.Duration.Milliseconds(), e.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("record delivery: %w", err)
	}
	return res.LastInsertId()
}

// List returns entries created in [from, to), oldest first. Zero bounds are
// open.
func (j *Journal) List(ctx context.Context, from, to time.Time) ([]Entry, error) {
	q := `SELECT id, kind, name, email, detail, status, error, duration_ms, created_at
		FROM deliveries WHERE 1=1`
	var args []any
	if !from.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		q += " AND created_at < ?"
		args = append(args, to.UTC())
	}
	q += " ORDER BY created_at, id"

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                           Entry
			name, email, detail, errStr sql.NullString
			ms                          int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &name, &email, &detail, &e.Status, &errStr, &ms, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		e.Name, e.Email, e.Detail, e.Error = name.String, email.String, detail.String, errStr.String
		e.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes entries created before cutoff.
func (j *Journal) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM deliveries WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete deliveries: %w", err)
	}
	return res.RowsAffected()
}

// PingContext checks the database connection.
func (j *Journal) PingContext(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

func (j *Journal) Close() error {
	return j.db.Close()
}
