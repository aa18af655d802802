// Package mocksim provides a scripted aircraft that implements sim.Client
// without a running simulator.
package mocksim

import (
	"context"
	"sync"
	"time"

	"ficonsole/pkg/sim"
	"ficonsole/pkg/telemetry"
)

const (
	// Physics constants
	tickRateMs = 100
)

// Config holds the initial aircraft state and flight script.
type Config struct {
	StartLat      float64
	StartLon      float64
	StartAltFt    float64
	StartHeading  float64
	StartAirspeed float64
	Scenario      []ScenarioStep
	// Loop restarts the scenario once the last step completes.
	Loop bool
}

// DefaultConfig returns a short training flight that exercises every maneuver.
func DefaultConfig() Config {
	return Config{
		StartLat:      47.4647,
		StartLon:      8.5492,
		StartAltFt:    3000,
		StartHeading:  90,
		StartAirspeed: 110,
		Loop:          true,
		Scenario: []ScenarioStep{
			{Type: StepLevel, Duration: 60},
			{Type: StepClimb, Target: 4500, Rate: 500},
			{Type: StepLevel, Duration: 30},
			{Type: StepTurn, Target: 270, Rate: 3},
			{Type: StepLevel, Duration: 30},
			{Type: StepClimb, Target: 3000, Rate: -500},
			{Type: StepTurn, Target: 90, Rate: 3},
		},
	}
}

// MockClient implements sim.Client.
type MockClient struct {
	mu           sync.Mutex
	reading      sim.Reading
	altFt        float64
	disconnected bool
	scenario     []ScenarioStep
	scenarioIdx  int
	stepStart    time.Time
	loop         bool

	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewClient creates a new mock simulator client and starts its physics loop.
func NewClient(cfg Config) *MockClient {
	m := newClient(cfg)
	m.wg.Add(1)
	go m.physicsLoop()
	return m
}

func newClient(cfg Config) *MockClient {
	m := &MockClient{
		stopCh:   make(chan struct{}),
		altFt:    cfg.StartAltFt,
		scenario: append([]ScenarioStep(nil), cfg.Scenario...),
		loop:     cfg.Loop,
	}
	m.reading = sim.Reading{
		Position: sim.Position{
			Latitude:       cfg.StartLat,
			Longitude:      cfg.StartLon,
			AltitudeMeters: cfg.StartAltFt / telemetry.FeetPerMeter,
			Heading:        cfg.StartHeading,
		},
		Airspeed: cfg.StartAirspeed,
	}
	return m
}

// GetPosition returns the simulated position block (altitude in meters, like X-Plane).
func (m *MockClient) GetPosition(ctx context.Context) (sim.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return sim.Position{}, sim.ErrNotConnected
	}
	return m.reading.Position, nil
}

// GetAirspeed returns indicated airspeed in knots.
func (m *MockClient) GetAirspeed(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return 0, sim.ErrNotConnected
	}
	return m.reading.Airspeed, nil
}

// GetVerticalSpeed returns vertical speed in feet per minute.
func (m *MockClient) GetVerticalSpeed(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return 0, sim.ErrNotConnected
	}
	return m.reading.VerticalSpeed, nil
}

// GetState returns the current simulator connection state.
func (m *MockClient) GetState() sim.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return sim.StateDisconnected
	}
	return sim.StateActive
}

// SetDisconnected makes every subsequent read fail (or succeed again).
func (m *MockClient) SetDisconnected(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = v
}

// SetScenario replaces the flight script and restarts it from the first step.
func (m *MockClient) SetScenario(steps []ScenarioStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenario = append([]ScenarioStep(nil), steps...)
	m.scenarioIdx = 0
	m.stepStart = time.Time{}
}

// Close stops the physics loop. Reads after Close report ErrNotConnected.
func (m *MockClient) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
		m.SetDisconnected(true)
	})
	return nil
}

func (m *MockClient) physicsLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Duration(tickRateMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case now := <-ticker.C:
			m.update(float64(tickRateMs)/1000.0, now)
		}
	}
}
