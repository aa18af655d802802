// Package maneuver evaluates flight maneuvers against tolerance bands
// using the latest telemetry sample on every tick.
package maneuver

import (
	"fmt"
	"strings"
)

// Kind identifies one of the four graded maneuvers.
type Kind int

const (
	StraightAndLevel Kind = iota
	Climb
	Descent
	Turn
)

// Kinds lists every maneuver in menu order.
var Kinds = []Kind{StraightAndLevel, Climb, Descent, Turn}

// String returns the display name used in status lines and log markers.
func (k Kind) String() string {
	switch k {
	case StraightAndLevel:
		return "Straight-and-Level Flight"
	case Climb:
		return "Constant Airspeed Climbs"
	case Descent:
		return "Constant Airspeed Descents"
	case Turn:
		return "Turns to Headings"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Slug is the identifier accepted by ParseKind and the HTTP API.
func (k Kind) Slug() string {
	switch k {
	case StraightAndLevel:
		return "straight-and-level"
	case Climb:
		return "climb"
	case Descent:
		return "descent"
	case Turn:
		return "turn"
	default:
		return ""
	}
}

// MarshalText renders the kind as its slug.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.Slug()), nil
}

// UnmarshalText accepts a slug.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// NeedsTarget reports whether the maneuver takes an operator-entered target.
func (k Kind) NeedsTarget() bool {
	return k != StraightAndLevel
}

// ParseKind resolves a slug (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if k.Slug() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown maneuver %q", s)
}
