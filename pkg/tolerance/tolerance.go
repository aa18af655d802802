// Package tolerance implements the band comparisons used to judge maneuvers.
package tolerance

import "math"

// Default error bands.
const (
	DefaultAltitudeFt = 200.0
	DefaultHeadingDeg = 20.0
	DefaultAirspeedKt = 10.0
)

// Config holds the permitted deviation for each evaluated metric.
// It is shared read-only by every evaluator.
type Config struct {
	AltitudeFt float64
	HeadingDeg float64
	AirspeedKt float64
}

// DefaultConfig returns the standard instructor tolerances.
func DefaultConfig() Config {
	return Config{
		AltitudeFt: DefaultAltitudeFt,
		HeadingDeg: DefaultHeadingDeg,
		AirspeedKt: DefaultAirspeedKt,
	}
}

// InRange reports whether current lies within baseline ± err. Both bounds are inclusive.
func InRange(current, baseline, err float64) bool {
	return baseline-err <= current && current <= baseline+err
}

// HeadingInRange reports whether current is within err degrees of target,
// measured the short way around the compass.
func HeadingInRange(current, target, err float64) bool {
	diff := math.Mod(Normalize(target)-Normalize(current)+360, 360)
	return math.Min(diff, 360-diff) <= err
}

// Normalize maps a heading into [0, 360).
func Normalize(deg float64) float64 {
	n := math.Mod(deg, 360)
	if n < 0 {
		n += 360
	}
	return n
}
