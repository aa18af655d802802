package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Register driver

	"ficonsole/pkg/telemetry"
)

// timeLayout is compatible with SQLite DEFAULT CURRENT_TIMESTAMP.
const timeLayout = "2006-01-02 15:04:05"

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// Init opens the database and runs migrations.
func Init(path string) (*DB, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Enable WAL mode for better concurrency and set busy timeout
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d := &DB{db}
	// Enforce single connection to avoid SQLITE_BUSY errors during concurrent writes
	db.SetMaxOpenConns(1)

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return d, nil
}

// BeginSession registers a new session row.
func (d *DB) BeginSession(ctx context.Context, id string, started time.Time) error {
	_, err := d.ExecContext(ctx,
		"INSERT INTO sessions (id, started_at) VALUES (?, ?)",
		id, started.UTC().Format(timeLayout))
	return err
}

// EndSession stamps the session's end time.
func (d *DB) EndSession(ctx context.Context, id string, ended time.Time) error {
	_, err := d.ExecContext(ctx,
		"UPDATE sessions SET ended_at = ? WHERE id = ?",
		ended.UTC().Format(timeLayout), id)
	return err
}

// InsertSample appends one telemetry row.
func (d *DB) InsertSample(ctx context.Context, sessionID string, s telemetry.Sample) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO samples (session_id, t, recorded_at, lat, lon, altitude_ft, pitch, roll, heading, airspeed_kt, vs_fpm)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, s.Time, s.WallTime.UTC().Format(timeLayout),
		s.Latitude, s.Longitude, s.AltitudeFt, s.PitchDeg, s.RollDeg, s.HeadingDeg, s.AirspeedKt, s.VerticalSpeedFpm)
	return err
}

// InsertEvent appends one lifecycle marker.
func (d *DB) InsertEvent(ctx context.Context, sessionID, marker string, at time.Time) error {
	_, err := d.ExecContext(ctx,
		"INSERT INTO events (session_id, recorded_at, marker) VALUES (?, ?, ?)",
		sessionID, at.UTC().Format(timeLayout), marker)
	return err
}

// PruneSessions removes sessions (and their rows) started before now-olderThan.
// It returns the number of sessions removed.
func (d *DB) PruneSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	deadline := time.Now().Add(-olderThan).UTC().Format(timeLayout)
	res, err := d.ExecContext(ctx, "DELETE FROM sessions WHERE started_at < ?", deadline)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			t REAL,
			recorded_at DATETIME,
			lat REAL,
			lon REAL,
			altitude_ft REAL,
			pitch REAL,
			roll REAL,
			heading REAL,
			airspeed_kt REAL,
			vs_fpm REAL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			recorded_at DATETIME,
			marker TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_session ON samples(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}
	return nil
}
