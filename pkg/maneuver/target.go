package maneuver

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ficonsole/pkg/telemetry"
)

var (
	// ErrInvalidTarget rejects a start whose target is missing, non-numeric or contradicts the maneuver.
	ErrInvalidTarget = errors.New("invalid maneuver target")
	// ErrNoTelemetry rejects a start before the first sample has arrived.
	ErrNoTelemetry = errors.New("no telemetry available")
)

// Baseline is captured from the most recent sample when a run starts.
type Baseline struct {
	AltitudeFt float64 `json:"altitude_ft"`
	HeadingDeg float64 `json:"heading_deg"`
	AirspeedKt float64 `json:"airspeed_kt"`
}

// BaselineFrom copies the graded fields out of a sample.
func BaselineFrom(s telemetry.Sample) Baseline {
	return Baseline{
		AltitudeFt: s.AltitudeFt,
		HeadingDeg: s.HeadingDeg,
		AirspeedKt: s.AirspeedKt,
	}
}

// Target is a validated goal: altitude in feet for climbs and descents,
// true heading in degrees for turns. Straight-and-level has none.
type Target struct {
	Value float64 `json:"value"`
	Set   bool    `json:"set"`
}

func (t Target) String() string {
	if !t.Set {
		return "-"
	}
	return strconv.FormatFloat(t.Value, 'f', -1, 64)
}

// ParseTarget validates raw operator input for kind against the baseline.
func ParseTarget(kind Kind, raw string, b Baseline) (Target, error) {
	if !kind.NeedsTarget() {
		return Target{}, nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Target{}, fmt.Errorf("%w: %q is not a number", ErrInvalidTarget, raw)
	}

	switch kind {
	case Climb:
		if v < b.AltitudeFt {
			return Target{}, fmt.Errorf("%w: climb target %.0f ft is below current altitude %.0f ft", ErrInvalidTarget, v, b.AltitudeFt)
		}
	case Descent:
		if v > b.AltitudeFt {
			return Target{}, fmt.Errorf("%w: descent target %.0f ft is above current altitude %.0f ft", ErrInvalidTarget, v, b.AltitudeFt)
		}
	case Turn:
		if v < 0 || v > 360 {
			return Target{}, fmt.Errorf("%w: heading %.1f outside [0, 360]", ErrInvalidTarget, v)
		}
	}
	return Target{Value: v, Set: true}, nil
}
