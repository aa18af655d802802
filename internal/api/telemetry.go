package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"ficonsole/pkg/telemetry"
)

// SampleSource is the read side of the rolling telemetry buffer.
type SampleSource interface {
	Latest() (telemetry.Sample, bool)
	Snapshot() *telemetry.View
}

// SampleDTO is the wire form of one telemetry sample.
type SampleDTO struct {
	Time             float64   `json:"time"`
	WallTime         time.Time `json:"wall_time"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	AltitudeFt       float64   `json:"altitude_ft"`
	PitchDeg         float64   `json:"pitch_deg"`
	RollDeg          float64   `json:"roll_deg"`
	HeadingDeg       float64   `json:"heading_deg"`
	AirspeedKt       float64   `json:"airspeed_kt"`
	VerticalSpeedFpm float64   `json:"vertical_speed_fpm"`
}

func toDTO(s telemetry.Sample) SampleDTO {
	return SampleDTO{
		Time:             s.Time,
		WallTime:         s.WallTime,
		Latitude:         s.Latitude,
		Longitude:        s.Longitude,
		AltitudeFt:       s.AltitudeFt,
		PitchDeg:         s.PitchDeg,
		RollDeg:          s.RollDeg,
		HeadingDeg:       s.HeadingDeg,
		AirspeedKt:       s.AirspeedKt,
		VerticalSpeedFpm: s.VerticalSpeedFpm,
	}
}

// TelemetryResponse is the API response structure.
type TelemetryResponse struct {
	Valid  bool       `json:"valid"`
	Sample *SampleDTO `json:"sample,omitempty"`
}

// SeriesResponse holds the buffered history, one column per metric.
type SeriesResponse struct {
	Time    []float64            `json:"time"`
	Metrics map[string][]float64 `json:"metrics"`
}

type TelemetryHandler struct {
	src SampleSource
}

func NewTelemetryHandler(src SampleSource) *TelemetryHandler {
	return &TelemetryHandler{src: src}
}

func (h *TelemetryHandler) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	var resp TelemetryResponse
	if s, ok := h.src.Latest(); ok {
		dto := toDTO(s)
		resp = TelemetryResponse{Valid: true, Sample: &dto}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TelemetryHandler) handleSeries(w http.ResponseWriter, r *http.Request) {
	view := h.src.Snapshot()
	resp := SeriesResponse{
		Time:    view.Times(),
		Metrics: make(map[string][]float64, len(telemetry.Metrics)),
	}
	for _, m := range telemetry.Metrics {
		resp.Metrics[m.Slug()] = view.Series(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
