package history

import (
	"context"
	"fmt"
	"time"

	"github.com/nexa-assistant/nexa/internal/intent"
)

// Entry is one recorded pipeline outcome.
type Entry struct {
	ID        string        `json:"id"`
	Request   string        `json:"request"`
	Status    intent.Status `json:"status"`
	Data      string        `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
}

// Store records result envelopes. It implements the pipeline's Recorder.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Record inserts one envelope under its request id.
func (s *Store) Record(ctx context.Context, id string, env intent.Envelope) error {
	_, err := s.db.db.ExecContext(ctx,
		s.db.bind(`INSERT INTO envelopes (id, request, status, data, created_at) VALUES (?, ?, ?, ?, ?)`),
		id, env.Request, string(env.Status), env.Data, env.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording envelope %s: %w", id, err)
	}
	return nil
}

// Recent returns the n most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.db.db.QueryContext(ctx,
		s.db.bind(`SELECT id, request, status, data, created_at FROM envelopes ORDER BY created_at DESC LIMIT ?`), n)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status, createdAt string
		if err := rows.Scan(&e.ID, &e.Request, &status, &e.Data, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Status = intent.Status(status)
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
