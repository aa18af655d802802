package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"gonum.org/v1/plot/vg"

	"ficonsole/pkg/chart"
	"ficonsole/pkg/telemetry"
)

// PlotHandler renders one metric of the rolling buffer as a PNG.
type PlotHandler struct {
	src    SampleSource
	width  vg.Length
	height vg.Length
}

// NewPlotHandler creates a handler rendering at width x height points.
// Zero dimensions fall back to the chart defaults.
func NewPlotHandler(src SampleSource, width, height float64) *PlotHandler {
	return &PlotHandler{
		src:    src,
		width:  vg.Points(width),
		height: vg.Points(height),
	}
}

// HandlePlot serves GET /api/plots/{metric}; a trailing ".png" is accepted.
func (h *PlotHandler) HandlePlot(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(r.PathValue("metric"), ".png")
	m, ok := telemetry.ParseMetric(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown metric %q", name), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := chart.WritePNG(&buf, h.src.Snapshot(), m, h.width, h.height); err != nil {
		slog.Error("Failed to render plot", "metric", m.Slug(), "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("Failed to write plot", "error", err)
	}
}
