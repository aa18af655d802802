package mocksim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"ficonsole/pkg/sim"
	"ficonsole/pkg/telemetry"
)

func waitForReq(t *testing.T, check func() bool, timeout time.Duration, msg string) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("Timeout waiting for: %s", msg)
}

func TestInitialReading(t *testing.T) {
	client := NewClient(Config{StartLat: 10, StartLon: 20, StartAltFt: 3280.84, StartHeading: 45, StartAirspeed: 100})
	defer client.Close()

	ctx := context.Background()
	pos, err := client.GetPosition(ctx)
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if math.Abs(pos.AltitudeMeters-1000) > 0.01 {
		t.Errorf("altitude should be reported in meters, got %v", pos.AltitudeMeters)
	}
	if pos.Heading != 45 {
		t.Errorf("heading: got %v, want 45", pos.Heading)
	}
	ias, _ := client.GetAirspeed(ctx)
	if ias != 100 {
		t.Errorf("airspeed: got %v, want 100", ias)
	}
}

func TestMovement(t *testing.T) {
	client := NewClient(Config{StartHeading: 0, StartAirspeed: 300})
	defer client.Close()

	waitForReq(t, func() bool {
		pos, _ := client.GetPosition(context.Background())
		return pos.Latitude > 0.00001
	}, 2*time.Second, "Movement North")
}

func TestScenario_Climb(t *testing.T) {
	client := NewClient(Config{
		StartAltFt:    1000,
		StartAirspeed: 100,
		Scenario:      []ScenarioStep{{Type: StepClimb, Target: 1100, Rate: 6000}},
	})
	defer client.Close()

	waitForReq(t, func() bool {
		pos, _ := client.GetPosition(context.Background())
		return math.Abs(pos.AltitudeMeters*telemetry.FeetPerMeter-1100) < 0.5
	}, 3*time.Second, "Climb to 1100ft")
}

func TestScenario_TurnShortWay(t *testing.T) {
	m := newClient(Config{StartHeading: 350, Scenario: []ScenarioStep{{Type: StepTurn, Target: 10, Rate: 5}}})
	now := time.Now()

	m.update(1.0, now)
	if h := m.reading.Heading; math.Abs(h-355) > 1e-9 {
		t.Fatalf("expected right turn through north, heading %v", h)
	}
	for i := 0; i < 10; i++ {
		m.update(1.0, now.Add(time.Duration(i+1)*time.Second))
	}
	if h := m.reading.Heading; h != 10 {
		t.Errorf("final heading: got %v, want 10", h)
	}
}

func TestScenario_LevelThenSpeed(t *testing.T) {
	m := newClient(Config{StartAirspeed: 100, Scenario: []ScenarioStep{
		{Type: StepLevel, Duration: 1},
		{Type: StepSpeed, Target: 90, Rate: 5},
	}})
	start := time.Now()
	m.update(0.5, start)
	m.update(0.5, start.Add(1500*time.Millisecond)) // level step done
	m.update(1.0, start.Add(2500*time.Millisecond))
	if m.reading.Airspeed != 95 {
		t.Errorf("airspeed after 1s at 5kt/s: got %v, want 95", m.reading.Airspeed)
	}
}

func TestDisconnect(t *testing.T) {
	client := NewClient(Config{})
	defer client.Close()

	client.SetDisconnected(true)
	if _, err := client.GetPosition(context.Background()); !errors.Is(err, sim.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if client.GetState() != sim.StateDisconnected {
		t.Errorf("state: got %v, want disconnected", client.GetState())
	}

	client.SetDisconnected(false)
	if _, err := client.GetAirspeed(context.Background()); err != nil {
		t.Errorf("expected reconnect, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client := NewClient(Config{})
	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := client.GetVerticalSpeed(context.Background()); !errors.Is(err, sim.ErrNotConnected) {
		t.Errorf("reads after Close should fail, got %v", err)
	}
}
