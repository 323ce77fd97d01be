// Package events provides the append-only log of simulation events.
// Every engine operation leaves an immutable record here, consumed by
// observability tooling (WebSocket observers, the replay API, archives).
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a simulation event.
type EventType string

const (
	EventTypeConfigured      EventType = "SESSION_CONFIGURED"
	EventTypeInfectionSpread EventType = "INFECTION_SPREAD"
	EventTypeRoomCleaned     EventType = "ROOM_CLEANED"
	EventTypeRoomBlocked     EventType = "ROOM_BLOCKED"
	EventTypeRoomUnblocked   EventType = "ROOM_UNBLOCKED"
	EventTypeSensorReset     EventType = "SENSOR_RESET"
	EventTypeResized         EventType = "BUILDING_RESIZED"
	EventTypeSimReset        EventType = "SIM_RESET"
)

// SimEvent represents an immutable record of a simulation action.
type SimEvent struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Turn      int            `json:"turn"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Persister defines how an event is durably stored.
type Persister interface {
	Append(event SimEvent) error
}

// Log is the in-memory append-only log of simulation events, optionally
// written through to persistent storage.
type Log struct {
	mu        sync.RWMutex
	events    []SimEvent
	persister Persister
}

// NewLog creates a new event log with an optional persister.
func NewLog(persister Persister) *Log {
	return &Log{
		events:    make([]SimEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (l *Log) Append(event SimEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)

	if l.persister != nil {
		// Write through to persistent storage.
		go func(e SimEvent) {
			_ = l.persister.Append(e)
		}(event)
	}
}

// GetByType returns all events of a specific type.
func (l *Log) GetByType(t EventType) []SimEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []SimEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// GetSince returns all events recorded at or after the given turn.
func (l *Log) GetSince(turn int) []SimEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []SimEvent
	for _, e := range l.events {
		if e.Turn >= turn {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full history of events in append order.
func (l *Log) Replay() []SimEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]SimEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
