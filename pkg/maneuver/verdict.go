package maneuver

import (
	"fmt"
	"time"
)

// NotStartedStatus is shown while no maneuver has run since (re)connect.
const NotStartedStatus = "Maneuver Status: Not Started"

// Outcome is the terminal state of a run.
type Outcome int

const (
	Passed Outcome = iota
	Failed
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	case Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// MarshalText renders the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	for _, c := range []Outcome{Passed, Failed, Aborted} {
		if c.String() == string(b) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Cause names the band that was violated.
type Cause string

const (
	CauseNone     Cause = ""
	CauseAltitude Cause = "Altitude"
	CauseHeading  Cause = "Heading"
	CauseAirspeed Cause = "Airspeed"
)

// Summary describes what happened between the start sample and the final evaluated sample.
type Summary struct {
	Duration       time.Duration `json:"duration_ns"`
	Ticks          int           `json:"ticks"`
	DistanceMeters float64       `json:"distance_m"`
}

// Verdict is produced exactly once per run.
type Verdict struct {
	RunID   string  `json:"run_id"`
	Kind    Kind    `json:"kind"`
	Outcome Outcome `json:"outcome"`
	Cause   Cause   `json:"cause,omitempty"`
	Target  Target  `json:"target"`
	Summary Summary `json:"summary"`
}

// Status renders the operator-facing status line.
func (v Verdict) Status() string {
	switch v.Outcome {
	case Passed:
		return fmt.Sprintf("Maneuver Status: %s Passed", v.Kind)
	case Aborted:
		return fmt.Sprintf("Maneuver Status: %s Failed (Aborted)", v.Kind)
	default:
		return fmt.Sprintf("Maneuver Status: %s Failed (%s)", v.Kind, v.Cause)
	}
}

// Marker is the lifecycle record written to the session logs.
// An aborted run is logged as failed.
func (v Verdict) Marker() string {
	if v.Outcome == Passed {
		return v.Kind.String() + " Ended (Passed)"
	}
	return v.Kind.String() + " Ended (Failed)"
}

// InitiatedStatus is the status line shown once a run has started.
func InitiatedStatus(k Kind) string {
	return fmt.Sprintf("Maneuver Status: %s Initiated", k)
}
