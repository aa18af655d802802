// Package telemetry holds the sampled aircraft state and the rolling history
// shared between the sampler, the maneuver evaluator and the presentation layer.
package telemetry

import "time"

// FeetPerMeter converts simulator altitude (meters) to the console's unit (feet).
const FeetPerMeter = 3.28084

// Metric identifies one plotted/logged telemetry series.
type Metric int

// Metrics in their declared log column order.
const (
	Latitude Metric = iota
	Longitude
	Altitude
	Pitch
	Roll
	TrueHeading
	AirSpeed
	VerticalAirSpeed
)

// Metrics lists every metric in column order.
var Metrics = []Metric{Latitude, Longitude, Altitude, Pitch, Roll, TrueHeading, AirSpeed, VerticalAirSpeed}

var metricNames = [...]string{
	Latitude:         "Latitude",
	Longitude:        "Longitude",
	Altitude:         "Altitude",
	Pitch:            "Pitch",
	Roll:             "Roll",
	TrueHeading:      "True Heading",
	AirSpeed:         "Air Speed",
	VerticalAirSpeed: "Vertical Air Speed",
}

func (m Metric) String() string {
	if m < 0 || int(m) >= len(metricNames) {
		return "Unknown"
	}
	return metricNames[m]
}

// ParseMetric resolves a metric from its display name or a URL slug such as "true-heading".
func ParseMetric(s string) (Metric, bool) {
	for _, m := range Metrics {
		if s == m.String() || s == m.Slug() {
			return m, true
		}
	}
	return 0, false
}

// Slug returns a URL-safe identifier for the metric.
func (m Metric) Slug() string {
	switch m {
	case TrueHeading:
		return "true-heading"
	case AirSpeed:
		return "air-speed"
	case VerticalAirSpeed:
		return "vertical-air-speed"
	}
	b := []byte(m.String())
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Sample is one immutable telemetry snapshot.
type Sample struct {
	Time     float64   // Seconds on the session's monotonic axis
	WallTime time.Time // Wall clock at capture, used for log rows

	Latitude         float64 // Degrees
	Longitude        float64 // Degrees
	AltitudeFt       float64 // Feet MSL
	PitchDeg         float64
	RollDeg          float64
	HeadingDeg       float64 // Degrees true
	AirspeedKt       float64 // Indicated, knots
	VerticalSpeedFpm float64 // Feet per minute
}

// Value returns the sample's value for m.
func (s *Sample) Value(m Metric) float64 {
	switch m {
	case Latitude:
		return s.Latitude
	case Longitude:
		return s.Longitude
	case Altitude:
		return s.AltitudeFt
	case Pitch:
		return s.PitchDeg
	case Roll:
		return s.RollDeg
	case TrueHeading:
		return s.HeadingDeg
	case AirSpeed:
		return s.AirspeedKt
	case VerticalAirSpeed:
		return s.VerticalSpeedFpm
	}
	return 0
}

// Values returns every metric in column order.
func (s *Sample) Values() []float64 {
	out := make([]float64, len(Metrics))
	for i, m := range Metrics {
		out[i] = s.Value(m)
	}
	return out
}
