package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker counts session activity: telemetry samples, read failures,
// reconnects and maneuver outcomes per maneuver kind.
type Tracker struct {
	samples      atomic.Int64
	readFailures atomic.Int64
	reconnects   atomic.Int64

	mu    sync.RWMutex
	stats map[string]*ManeuverStats
}

// ManeuverStats holds counters for one maneuver kind.
// Fields are accessed atomically.
type ManeuverStats struct {
	Started int64 `json:"started"`
	Passed  int64 `json:"passed"`
	Failed  int64 `json:"failed"`
	Aborted int64 `json:"aborted"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Samples      int64                    `json:"samples"`
	ReadFailures int64                    `json:"read_failures"`
	Reconnects   int64                    `json:"reconnects"`
	Maneuvers    map[string]ManeuverStats `json:"maneuvers"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*ManeuverStats),
	}
}

// getStats returns the stats object for a maneuver, creating it if needed.
func (t *Tracker) getStats(kind string) *ManeuverStats {
	t.mu.RLock()
	s, ok := t.stats[kind]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[kind]; ok {
		return s
	}
	s = &ManeuverStats{}
	t.stats[kind] = s
	return s
}

func (t *Tracker) TrackSample()      { t.samples.Add(1) }
func (t *Tracker) TrackReadFailure() { t.readFailures.Add(1) }
func (t *Tracker) TrackReconnect()   { t.reconnects.Add(1) }

// TrackStarted increments the start counter for kind.
func (t *Tracker) TrackStarted(kind string) {
	atomic.AddInt64(&t.getStats(kind).Started, 1)
}

// TrackOutcome increments the counter matching outcome ("Passed", "Failed" or "Aborted").
func (t *Tracker) TrackOutcome(kind, outcome string) {
	s := t.getStats(kind)
	switch outcome {
	case "Passed":
		atomic.AddInt64(&s.Passed, 1)
	case "Failed":
		atomic.AddInt64(&s.Failed, 1)
	case "Aborted":
		atomic.AddInt64(&s.Aborted, 1)
	}
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := Snapshot{
		Samples:      t.samples.Load(),
		ReadFailures: t.readFailures.Load(),
		Reconnects:   t.reconnects.Load(),
		Maneuvers:    make(map[string]ManeuverStats, len(t.stats)),
	}
	for k, v := range t.stats {
		result.Maneuvers[k] = ManeuverStats{
			Started: atomic.LoadInt64(&v.Started),
			Passed:  atomic.LoadInt64(&v.Passed),
			Failed:  atomic.LoadInt64(&v.Failed),
			Aborted: atomic.LoadInt64(&v.Aborted),
		}
	}
	return result
}
