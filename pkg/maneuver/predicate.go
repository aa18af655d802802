package maneuver

import (
	"ficonsole/pkg/telemetry"
	"ficonsole/pkg/tolerance"
)

// Result is the outcome of one tick. Done is false while the run continues.
type Result struct {
	Done    bool
	Outcome Outcome
	Cause   Cause
}

var (
	pending = Result{}
	passed  = Result{Done: true, Outcome: Passed}
)

func failed(c Cause) Result {
	return Result{Done: true, Outcome: Failed, Cause: c}
}

// Predicate checks one sample. Checks run in a fixed order and the first hit wins.
type Predicate func(s telemetry.Sample) Result

// NewPredicate builds the per-kind check sequence.
func NewPredicate(kind Kind, b Baseline, t Target, tol tolerance.Config) Predicate {
	altitudeHeld := func(s telemetry.Sample) bool {
		return tolerance.InRange(s.AltitudeFt, b.AltitudeFt, tol.AltitudeFt)
	}
	headingHeld := func(s telemetry.Sample) bool {
		return tolerance.InRange(s.HeadingDeg, b.HeadingDeg, tol.HeadingDeg)
	}
	airspeedHeld := func(s telemetry.Sample) bool {
		return tolerance.InRange(s.AirspeedKt, b.AirspeedKt, tol.AirspeedKt)
	}

	switch kind {
	case Climb, Descent:
		return func(s telemetry.Sample) Result {
			switch {
			case tolerance.InRange(s.AltitudeFt, t.Value, tol.AltitudeFt):
				return passed
			case !headingHeld(s):
				return failed(CauseHeading)
			case !airspeedHeld(s):
				return failed(CauseAirspeed)
			}
			return pending
		}

	case Turn:
		return func(s telemetry.Sample) Result {
			switch {
			case !altitudeHeld(s):
				return failed(CauseAltitude)
			case tolerance.HeadingInRange(s.HeadingDeg, t.Value, tol.HeadingDeg):
				return passed
			case !airspeedHeld(s):
				return failed(CauseAirspeed)
			}
			return pending
		}

	default:
		// Straight-and-level never passes on its own; it ends on request.
		return func(s telemetry.Sample) Result {
			switch {
			case !altitudeHeld(s):
				return failed(CauseAltitude)
			case !headingHeld(s):
				return failed(CauseHeading)
			case !airspeedHeld(s):
				return failed(CauseAirspeed)
			}
			return pending
		}
	}
}

// abortOutcome is what an end request means for kind.
func abortOutcome(kind Kind) Outcome {
	if kind == StraightAndLevel {
		return Passed
	}
	return Aborted
}
