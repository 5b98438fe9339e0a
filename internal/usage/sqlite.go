package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS usage_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  TEXT NOT NULL,
	service     TEXT NOT NULL DEFAULT '',
	firm        TEXT NOT NULL DEFAULT '',
	prospect    TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	issues      TEXT NOT NULL DEFAULT '[]',
	memo_number INTEGER NOT NULL DEFAULT 0,
	model       TEXT NOT NULL DEFAULT ''
);
`

// SQLiteQuota persists the usage log so the demo limit survives restarts.
type SQLiteQuota struct {
	db    *sqlx.DB
	limit int
	mu    sync.Mutex
}

// OpenSQLite opens (or creates) the usage database and applies the schema.
func OpenSQLite(path string, limit int) (*SQLiteQuota, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteQuota{db: db, limit: limit}, nil
}

func (q *SQLiteQuota) Close() error {
	return q.db.Close()
}

func (q *SQLiteQuota) Check(ctx context.Context) (int, int, error) {
	var used int
	if err := q.db.GetContext(ctx, &used, "SELECT COUNT(*) FROM usage_log"); err != nil {
		return 0, 0, fmt.Errorf("count usage: %w", err)
	}
	remaining := q.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return used, remaining, nil
}

func (q *SQLiteQuota) Record(ctx context.Context, e Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var used int
	if err := q.db.GetContext(ctx, &used, "SELECT COUNT(*) FROM usage_log"); err != nil {
		return fmt.Errorf("count usage: %w", err)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	issues, _ := json.Marshal(e.Issues)
	_, err := q.db.ExecContext(ctx, `INSERT INTO usage_log (created_at, service, firm, prospect, industry, issues, memo_number, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Service, e.Firm, e.Prospect, e.Industry,
		string(issues), used+1, e.Model,
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func (q *SQLiteQuota) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.QueryContext(ctx, `SELECT created_at, service, firm, prospect, industry, issues, memo_number, model
		FROM usage_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var createdAt, issuesJSON string
		if err := rows.Scan(&createdAt, &e.Service, &e.Firm, &e.Prospect, &e.Industry, &issuesJSON, &e.MemoNumber, &e.Model); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		_ = json.Unmarshal([]byte(issuesJSON), &e.Issues)
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ Quota = (*SQLiteQuota)(nil)
var _ Quota = (*MemoryQuota)(nil)
