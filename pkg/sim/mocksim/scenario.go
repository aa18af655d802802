package mocksim

import (
	"math"
	"time"

	"ficonsole/pkg/geo"
	"ficonsole/pkg/telemetry"
	"ficonsole/pkg/tolerance"
)

// StepType selects what the scripted aircraft does during a step.
type StepType string

const (
	// StepLevel holds altitude and heading for Duration seconds.
	StepLevel StepType = "LEVEL"
	// StepClimb changes altitude toward Target (ft) at Rate (fpm, negative to descend).
	StepClimb StepType = "CLIMB"
	// StepTurn turns toward Target (deg) at Rate (deg/s) the short way round.
	StepTurn StepType = "TURN"
	// StepSpeed changes airspeed toward Target (kt) at Rate (kt/s).
	StepSpeed StepType = "SPEED"
)

// ScenarioStep is one leg of the scripted flight.
type ScenarioStep struct {
	Type     StepType
	Target   float64
	Rate     float64
	Duration float64 // seconds, StepLevel only
}

const knotsToMetersPerSecond = 0.514444

func (m *MockClient) update(dt float64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateScenario(dt, now)

	distMeters := m.reading.Airspeed * knotsToMetersPerSecond * dt
	if distMeters > 0 {
		next := geo.DestinationPoint(
			geo.Point{Lat: m.reading.Latitude, Lon: m.reading.Longitude},
			distMeters,
			m.reading.Heading,
		)
		m.reading.Latitude = next.Lat
		m.reading.Longitude = next.Lon
	}
	m.reading.AltitudeMeters = m.altFt / telemetry.FeetPerMeter
}

func (m *MockClient) updateScenario(dt float64, now time.Time) {
	m.reading.VerticalSpeed = 0
	m.reading.Roll = 0
	m.reading.Pitch = 0

	if len(m.scenario) == 0 {
		return
	}
	if m.scenarioIdx >= len(m.scenario) {
		if !m.loop {
			return
		}
		m.scenarioIdx = 0
		m.stepStart = time.Time{}
	}

	step := m.scenario[m.scenarioIdx]
	if m.stepStart.IsZero() {
		m.stepStart = now
	}

	done := false
	switch step.Type {
	case StepLevel:
		done = now.Sub(m.stepStart).Seconds() >= step.Duration

	case StepClimb:
		delta := (step.Rate / 60.0) * dt
		m.reading.VerticalSpeed = step.Rate
		m.reading.Pitch = math.Copysign(5, step.Rate)
		if (step.Rate > 0 && m.altFt+delta >= step.Target) || (step.Rate <= 0 && m.altFt+delta <= step.Target) {
			m.altFt = step.Target
			m.reading.VerticalSpeed = 0
			done = true
		} else {
			m.altFt += delta
		}

	case StepTurn:
		current := tolerance.Normalize(m.reading.Heading)
		diff := math.Mod(tolerance.Normalize(step.Target)-current+540, 360) - 180 // [-180, 180)
		turn := math.Abs(step.Rate) * dt
		if math.Abs(diff) <= turn {
			m.reading.Heading = tolerance.Normalize(step.Target)
			done = true
		} else {
			m.reading.Heading = tolerance.Normalize(current + math.Copysign(turn, diff))
			m.reading.Roll = math.Copysign(20, diff)
		}

	case StepSpeed:
		delta := math.Abs(step.Rate) * dt
		diff := step.Target - m.reading.Airspeed
		if math.Abs(diff) <= delta {
			m.reading.Airspeed = step.Target
			done = true
		} else {
			m.reading.Airspeed += math.Copysign(delta, diff)
		}

	default:
		done = true
	}

	if done {
		m.scenarioIdx++
		m.stepStart = time.Time{}
	}
}
