package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the necessary
// schemas for persisting session snapshots and the immutable event log.
func InitSQLite(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			turn INTEGER NOT NULL DEFAULT 0,
			floors_count INTEGER NOT NULL,
			rooms_per_floor INTEGER NOT NULL,
			stochastic BOOLEAN NOT NULL DEFAULT 0,
			state_json TEXT NOT NULL,
			last_updated DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			event_type TEXT NOT NULL,
			turn INTEGER NOT NULL,
			payload TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_turn ON events(turn);`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
