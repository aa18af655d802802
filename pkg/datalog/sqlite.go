package datalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ficonsole/pkg/db"
	"ficonsole/pkg/telemetry"
)

const writeTimeout = 2 * time.Second

// SQLiteRecorder appends rows for one session to the session database.
type SQLiteRecorder struct {
	mu        sync.Mutex
	d         *db.DB
	sessionID string
	now       func() time.Time
	closeDB   bool
}

// NewSQLiteRecorder registers sessionID and returns a recorder writing to d.
// When closeDB is set, Close also closes d.
func NewSQLiteRecorder(d *db.DB, sessionID string, closeDB bool) (*SQLiteRecorder, error) {
	r := &SQLiteRecorder{d: d, sessionID: sessionID, now: time.Now, closeDB: closeDB}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := d.BeginSession(ctx, sessionID, r.now()); err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) AppendSample(s telemetry.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.d == nil {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return r.d.InsertSample(ctx, r.sessionID, s)
}

func (r *SQLiteRecorder) AppendEvent(marker string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.d == nil {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return r.d.InsertEvent(ctx, r.sessionID, marker, r.now())
}

// Close stamps the session end.
func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.d == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err := r.d.EndSession(ctx, r.sessionID, r.now())
	if r.closeDB {
		if cerr := r.d.Close(); err == nil {
			err = cerr
		}
	}
	r.d = nil
	return err
}
