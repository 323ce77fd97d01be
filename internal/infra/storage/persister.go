package storage

import (
	"context"
	"time"

	"github.com/zombiotrack/zombiotrack/internal/events"
)

// SQLitePersister bridges the in-memory event log to the SQLite ledger.
// It satisfies events.Persister so the log can write through without the
// events package knowing about the database.
type SQLitePersister struct {
	repo    EventRepository
	timeout time.Duration
}

func NewSQLitePersister(repo EventRepository) *SQLitePersister {
	return &SQLitePersister{repo: repo, timeout: 5 * time.Second}
}

func (p *SQLitePersister) Append(event events.SimEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.repo.Append(ctx, EventRecord{
		ID:        event.ID,
		SessionID: event.SessionID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		Turn:      event.Turn,
		Payload:   event.Payload,
	})
}
