package api

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"ficonsole/pkg/tracker"
)

type StatsHandler struct {
	tracker *tracker.Tracker
	started time.Time

	mu     sync.Mutex
	maxMem uint64
}

func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t, started: time.Now()}
}

type Diagnostics struct {
	MemoryMB    uint64  `json:"memory_mb"`
	MemoryMaxMB uint64  `json:"memory_max_mb"`
	Goroutines  int     `json:"goroutines"`
	UptimeSec   float64 `json:"uptime_sec"`
}

type ManeuverStatsDTO struct {
	tracker.ManeuverStats
	PassRate int64 `json:"pass_rate"`
}

type StatsResponse struct {
	Diagnostics  Diagnostics                 `json:"diagnostics"`
	Samples      int64                       `json:"samples"`
	ReadFailures int64                       `json:"read_failures"`
	Reconnects   int64                       `json:"reconnects"`
	Maneuvers    map[string]ManeuverStatsDTO `json:"maneuvers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	diag := h.gatherDiagnostics()
	h.mu.Unlock()

	resp := StatsResponse{
		Diagnostics: diag,
		Maneuvers:   make(map[string]ManeuverStatsDTO),
	}
	if h.tracker != nil {
		snapshot := h.tracker.Snapshot()
		resp.Samples = snapshot.Samples
		resp.ReadFailures = snapshot.ReadFailures
		resp.Reconnects = snapshot.Reconnects
		for kind, stats := range snapshot.Maneuvers {
			graded := stats.Passed + stats.Failed + stats.Aborted
			rate := int64(0)
			if graded > 0 {
				rate = (stats.Passed * 100) / graded
			}
			resp.Maneuvers[kind] = ManeuverStatsDTO{ManeuverStats: stats, PassRate: rate}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StatsHandler) gatherDiagnostics() Diagnostics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.Sys > h.maxMem {
		h.maxMem = ms.Sys
	}
	return Diagnostics{
		MemoryMB:    bToMb(ms.Sys),
		MemoryMaxMB: bToMb(h.maxMem),
		Goroutines:  runtime.NumGoroutine(),
		UptimeSec:   time.Since(h.started).Seconds(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
