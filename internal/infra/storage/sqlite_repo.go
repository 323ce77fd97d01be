package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event EventRecord) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, turn, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType, event.Turn,
		string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]EventRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		var payloadStr string
		err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.Turn, &payloadStr)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]EventRecord, error) {
	query := `SELECT id, session_id, timestamp, event_type, turn, payload FROM events WHERE session_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, sessionID, eventType string) ([]EventRecord, error) {
	query := `SELECT id, session_id, timestamp, event_type, turn, payload FROM events WHERE session_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

func (r *SQLiteEventRepository) GetSinceTurn(ctx context.Context, sessionID string, turn int) ([]EventRecord, error) {
	query := `SELECT id, session_id, timestamp, event_type, turn, payload FROM events WHERE session_id = ? AND turn >= ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, turn)
}

// ---------------------------------------------------------
// SQLiteSessionRepository
// ---------------------------------------------------------

type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Upsert(ctx context.Context, snapshot SessionSnapshot) error {
	query := `
		INSERT INTO sessions (session_id, turn, floors_count, rooms_per_floor, stochastic, state_json, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			turn=excluded.turn,
			floors_count=excluded.floors_count,
			rooms_per_floor=excluded.rooms_per_floor,
			stochastic=excluded.stochastic,
			state_json=excluded.state_json,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		snapshot.SessionID, snapshot.Turn, snapshot.FloorsCount, snapshot.RoomsPerFloor,
		snapshot.Stochastic, snapshot.StateJSON, snapshot.LastUpdated,
	)
	return err
}

func (r *SQLiteSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	query := `SELECT session_id, turn, floors_count, rooms_per_floor, stochastic, state_json, last_updated FROM sessions WHERE session_id = ?`
	var s SessionSnapshot
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.SessionID, &s.Turn, &s.FloorsCount, &s.RoomsPerFloor, &s.Stochastic, &s.StateJSON, &s.LastUpdated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteSessionRepository) List(ctx context.Context) ([]SessionSnapshot, error) {
	query := `SELECT session_id, turn, floors_count, rooms_per_floor, stochastic, state_json, last_updated FROM sessions ORDER BY last_updated DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []SessionSnapshot
	for rows.Next() {
		var s SessionSnapshot
		if err := rows.Scan(&s.SessionID, &s.Turn, &s.FloorsCount, &s.RoomsPerFloor, &s.Stochastic, &s.StateJSON, &s.LastUpdated); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
