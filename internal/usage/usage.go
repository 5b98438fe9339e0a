// Package usage tracks demo memo generation against a hard limit and keeps
// an audit log of what was generated.
package usage

import (
	"context"
	"sync"
	"time"
)

// Entry is one recorded generation.
type Entry struct {
	Timestamp  time.Time `json:"timestamp" db:"created_at"`
	Service    string    `json:"service" db:"service"`
	Firm       string    `json:"firm" db:"firm"`
	Prospect   string    `json:"prospect" db:"prospect"`
	Industry   string    `json:"industry,omitempty" db:"industry"`
	Issues     []string  `json:"issues,omitempty" db:"-"`
	MemoNumber int       `json:"memoNumber" db:"memo_number"`
	Model      string    `json:"model,omitempty" db:"model"`
}

// Quota is checked before generation and recorded after success. Check
// never consumes; Record does.
type Quota interface {
	Check(ctx context.Context) (used, remaining int, err error)
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// MemoryQuota is the in-process implementation, used when no database path
// is configured and by tests.
type MemoryQuota struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
}

func NewMemoryQuota(limit int) *MemoryQuota {
	return &MemoryQuota{limit: limit}
}

func (q *MemoryQuota) Check(ctx context.Context) (int, int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	used := len(q.entries)
	remaining := q.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return used, remaining, nil
}

func (q *MemoryQuota) Record(ctx context.Context, e Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	e.MemoNumber = len(q.entries) + 1
	q.entries = append(q.entries, e)
	return nil
}

func (q *MemoryQuota) Recent(ctx context.Context, limit int) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if limit <= 0 || limit > len(q.entries) {
		limit = len(q.entries)
	}
	out := make([]Entry, limit)
	// Newest first.
	for i := 0; i < limit; i++ {
		out[i] = q.entries[len(q.entries)-1-i]
	}
	return out, nil
}
