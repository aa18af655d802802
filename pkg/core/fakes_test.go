package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ficonsole/pkg/sim"
	"ficonsole/pkg/telemetry"
)

// fakeClient returns a fixed reading until failed is set.
type fakeClient struct {
	mu     sync.Mutex
	pos    sim.Position
	ias    float64
	vs     float64
	failed bool
	block  chan struct{} // when non-nil, GetPosition waits on it and ignores ctx
	closed bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		pos: sim.Position{Latitude: 47, Longitude: 8, AltitudeMeters: 1000, Heading: 90},
		ias: 110,
	}
}

func (f *fakeClient) GetPosition(ctx context.Context) (sim.Position, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return sim.Position{}, sim.ErrNotConnected
	}
	return f.pos, nil
}

func (f *fakeClient) GetAirspeed(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return 0, sim.ErrNotConnected
	}
	return f.ias, nil
}

func (f *fakeClient) GetVerticalSpeed(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return 0, sim.ErrNotConnected
	}
	return f.vs, nil
}

func (f *fakeClient) GetState() sim.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return sim.StateDisconnected
	}
	return sim.StateActive
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) fail() {
	f.mu.Lock()
	f.failed = true
	f.mu.Unlock()
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type memRecorder struct {
	mu      sync.Mutex
	samples []telemetry.Sample
	events  []string
	closed  bool
}

func (r *memRecorder) AppendSample(s telemetry.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("closed")
	}
	r.samples = append(r.samples, s)
	return nil
}

func (r *memRecorder) AppendEvent(m string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("closed")
	}
	r.events = append(r.events, m)
	return nil
}

func (r *memRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *memRecorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *memRecorder) SampleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

type memPresenter struct {
	mu       sync.Mutex
	updates  int
	statuses []string
	controls []bool
	conn     []bool
}

func (p *memPresenter) OnSampleBufferUpdated() {
	p.mu.Lock()
	p.updates++
	p.mu.Unlock()
}

func (p *memPresenter) OnStatusChanged(s string) {
	p.mu.Lock()
	p.statuses = append(p.statuses, s)
	p.mu.Unlock()
}

func (p *memPresenter) OnManeuverControlsEnabled(b bool) {
	p.mu.Lock()
	p.controls = append(p.controls, b)
	p.mu.Unlock()
}

func (p *memPresenter) OnConnectionChanged(b bool) {
	p.mu.Lock()
	p.conn = append(p.conn, b)
	p.mu.Unlock()
}

func (p *memPresenter) Updates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updates
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for: %s", msg)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func pollFake(c *fakeClient) (sim.Reading, error) {
	return sim.Poll(context.Background(), c)
}
