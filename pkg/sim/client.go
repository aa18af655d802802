package sim

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when a client action requires a connection.
	ErrNotConnected = errors.New("simulator not connected")
)

// Client defines the pull interface for simulator telemetry.
// Any call may fail; a failure means the simulator is unreachable.
type Client interface {
	// GetPosition returns the aircraft position and attitude.
	GetPosition(ctx context.Context) (Position, error)
	// GetAirspeed returns indicated airspeed in knots.
	GetAirspeed(ctx context.Context) (float64, error)
	// GetVerticalSpeed returns indicated vertical speed in feet per minute.
	GetVerticalSpeed(ctx context.Context) (float64, error)
	// GetState returns the current simulator connection state.
	GetState() State
	// Close cleans up resources associated with the client.
	Close() error
}

// Position is the raw position/attitude block reported by the simulator.
type Position struct {
	Latitude       float64 // Degrees
	Longitude      float64 // Degrees
	AltitudeMeters float64 // Meters MSL
	Pitch          float64 // Degrees
	Roll           float64 // Degrees
	Heading        float64 // Degrees True
}

// Reading is one complete telemetry poll in simulator units.
type Reading struct {
	Position
	Airspeed      float64 // Knots
	VerticalSpeed float64 // Feet per minute
}

// Poll reads position, airspeed and vertical speed in that order.
// The first failing call aborts the poll.
func Poll(ctx context.Context, c Client) (Reading, error) {
	pos, err := c.GetPosition(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("position: %w", err)
	}
	ias, err := c.GetAirspeed(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("airspeed: %w", err)
	}
	vvi, err := c.GetVerticalSpeed(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("vertical speed: %w", err)
	}
	return Reading{Position: pos, Airspeed: ias, VerticalSpeed: vvi}, nil
}

// Factory opens a fresh client. The session controller uses it to reconnect.
type Factory func(ctx context.Context) (Client, error)
