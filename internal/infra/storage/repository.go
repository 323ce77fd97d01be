// Package storage provides the persistence layer for the simulation host.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"time"
)

// EventRecord mirrors the simulation event structure for persistence.
// The domain packages should NOT import this; use interfaces instead.
type EventRecord struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	Turn      int                    `json:"turn" db:"turn"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event EventRecord) error

	// GetBySessionID retrieves all events for a session (for replay).
	GetBySessionID(ctx context.Context, sessionID string) ([]EventRecord, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, sessionID, eventType string) ([]EventRecord, error)

	// GetSinceTurn retrieves events at or after a specific turn.
	GetSinceTurn(ctx context.Context, sessionID string, turn int) ([]EventRecord, error)
}

// SessionSnapshot represents the latest persisted state of a session for
// quick reads, without replaying the event ledger.
type SessionSnapshot struct {
	SessionID     string    `json:"session_id" db:"session_id"`
	Turn          int       `json:"turn" db:"turn"`
	FloorsCount   int       `json:"floors_count" db:"floors_count"`
	RoomsPerFloor int       `json:"rooms_per_floor" db:"rooms_per_floor"`
	Stochastic    bool      `json:"stochastic" db:"stochastic"`
	StateJSON     string    `json:"state_json" db:"state_json"`
	LastUpdated   time.Time `json:"last_updated" db:"last_updated"`
}

// SessionRepository defines the interface for session snapshots.
type SessionRepository interface {
	// Upsert updates or inserts a session snapshot.
	Upsert(ctx context.Context, snapshot SessionSnapshot) error

	// GetBySessionID retrieves a specific session's snapshot.
	GetBySessionID(ctx context.Context, sessionID string) (*SessionSnapshot, error)

	// List retrieves all known session snapshots, most recent first.
	List(ctx context.Context) ([]SessionSnapshot, error)
}
