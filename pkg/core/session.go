package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ficonsole/pkg/maneuver"
	"ficonsole/pkg/sim"
	"ficonsole/pkg/telemetry"
	"ficonsole/pkg/tolerance"
	"ficonsole/pkg/tracker"
)

// DisconnectedStatus is shown while the source is unavailable.
const DisconnectedStatus = "Disconnected"

// SessionOptions wires a SessionController.
type SessionOptions struct {
	// ID names the session; a random UUID is used when empty.
	ID        string
	Factory   sim.Factory
	Recorder  Recorder
	Presenter Presenter
	Stats     *tracker.Tracker
	Tolerance tolerance.Config
	Capacity  int
	Sampler   SamplerConfig
	StopGrace time.Duration
}

// ActiveManeuver describes the run in progress.
type ActiveManeuver struct {
	RunID    string            `json:"run_id"`
	Kind     string            `json:"kind"`
	Name     string            `json:"name"`
	Target   string            `json:"target"`
	Baseline maneuver.Baseline `json:"baseline"`
}

// Status is a snapshot of what the operator sees.
type Status struct {
	SessionID       string            `json:"session_id"`
	Text            string            `json:"status"`
	Connected       bool              `json:"connected"`
	ControlsEnabled bool              `json:"controls_enabled"`
	Sampler         string            `json:"sampler"`
	Active          *ActiveManeuver   `json:"active,omitempty"`
	LastVerdict     *maneuver.Verdict `json:"last_verdict,omitempty"`
}

// SessionController owns the buffer, at most one sampler and at most one evaluator.
// Commands are serialized under mu. Display state lives under stateMu so that
// loop callbacks never wait on a command in progress.
type SessionController struct {
	id     string
	opts   SessionOptions
	buf    *telemetry.Buffer
	rec    Recorder
	pres   Presenter
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	client  sim.Client
	sampler *Sampler
	eval    *maneuver.Evaluator
	closed  bool

	stateMu     sync.Mutex
	status      string
	connected   bool
	controls    bool
	activeRun   string
	lastVerdict *maneuver.Verdict
}

// NewSessionController creates a controller. Call Connect to start sampling.
func NewSessionController(opts SessionOptions) *SessionController {
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}
	if opts.Presenter == nil {
		opts.Presenter = NopPresenter{}
	}
	if opts.Tolerance == (tolerance.Config{}) {
		opts.Tolerance = tolerance.DefaultConfig()
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}
	ctx, cancel := context.WithCancel(context.Background())
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &SessionController{
		id:     id,
		opts:   opts,
		buf:    telemetry.NewBuffer(opts.Capacity),
		rec:    opts.Recorder,
		pres:   opts.Presenter,
		logger: slog.With("component", "session", "session", id),
		ctx:    ctx,
		cancel: cancel,
		status: maneuver.NotStartedStatus,
	}
}

// ID is the session identifier used in logs and the session database.
func (c *SessionController) ID() string { return c.id }

// Buffer exposes the rolling history for presentation.
func (c *SessionController) Buffer() *telemetry.Buffer { return c.buf }

// Stats returns the session counters (may be nil).
func (c *SessionController) Stats() *tracker.Tracker { return c.opts.Stats }

// Connect opens the source and starts sampling.
func (c *SessionController) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.connectLocked(ctx)
}

// Reconnect reopens the source, drops any active maneuver and restarts
// sampling on a fresh time axis.
func (c *SessionController) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.logger.Info("Reconnecting")
	if c.opts.Stats != nil {
		c.opts.Stats.TrackReconnect()
	}

	client, err := c.opts.Factory(ctx)
	if err != nil {
		c.logger.Warn("Reconnect failed", "error", err)
		return fmt.Errorf("%w: %w", ErrSourceDisconnected, err)
	}

	c.stopEvaluatorLocked()
	c.stopSamplerLocked()
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.Debug("Closing previous client", "error", err)
		}
	}
	c.buf.Reset()
	c.startSamplerLocked(client)

	c.setDisplay(maneuver.NotStartedStatus, true, true)
	return nil
}

// RequestStart validates kind and the raw operator target, force-ends any
// active maneuver and starts the new one. Rejections leave the session and
// the active run unchanged.
func (c *SessionController) RequestStart(kind maneuver.Kind, target string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if !c.isConnected() {
		return ErrSourceDisconnected
	}

	e, err := maneuver.Prepare(maneuver.Options{
		Kind:      kind,
		Target:    target,
		Source:    c.buf,
		Tolerance: c.opts.Tolerance,
		Interval:  c.opts.Sampler.Interval,
		OnVerdict: func(v maneuver.Verdict) { c.onVerdict(v) },
	})
	if err != nil {
		c.logger.Info("Maneuver rejected", "kind", kind.Slug(), "target", target, "error", err)
		return err
	}

	c.stopEvaluatorLocked()

	c.stateMu.Lock()
	c.activeRun = e.RunID()
	c.stateMu.Unlock()
	c.eval = e
	e.Launch(c.ctx)

	if err := c.rec.AppendEvent(kind.String()); err != nil {
		c.logger.Error("Failed to record maneuver start", "error", err)
	}
	if c.opts.Stats != nil {
		c.opts.Stats.TrackStarted(kind.Slug())
	}
	c.setDisplay(maneuver.InitiatedStatus(kind), true, false)
	return nil
}

// RequestEnd signals the active evaluator. No-op when nothing is running.
func (c *SessionController) RequestEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eval != nil {
		c.eval.End()
	}
}

// Status returns a snapshot of the operator-facing state.
func (c *SessionController) Status() Status {
	c.mu.Lock()
	samplerState := SamplerIdle
	if c.sampler != nil {
		samplerState = c.sampler.State()
	}
	var active *ActiveManeuver
	if e := c.eval; e != nil {
		if _, done := e.Verdict(); !done {
			active = &ActiveManeuver{
				RunID:    e.RunID(),
				Kind:     e.Kind().Slug(),
				Name:     e.Kind().String(),
				Target:   e.Target().String(),
				Baseline: e.Baseline(),
			}
		}
	}
	c.mu.Unlock()

	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return Status{
		SessionID:       c.id,
		Text:            c.status,
		Connected:       c.connected,
		ControlsEnabled: c.controls,
		Sampler:         samplerState.String(),
		Active:          active,
		LastVerdict:     c.lastVerdict,
	}
}

// Shutdown stops both loops, writes the end-of-session marker and closes the
// recorder and the source. It always returns within a bounded time.
func (c *SessionController) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Info("Shutting down session")

	var errs []error
	if err := c.stopEvaluatorLocked(); err != nil {
		errs = append(errs, err)
	}
	if err := c.stopSamplerLocked(); err != nil {
		errs = append(errs, err)
	}
	c.cancel()

	if err := c.rec.AppendEvent(MarkerEndOfSession); err != nil {
		errs = append(errs, fmt.Errorf("end-of-session marker: %w", err))
	}
	if err := c.rec.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close recorder: %w", err))
	}
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close source: %w", err))
		}
		c.client = nil
	}
	c.setDisplay(DisconnectedStatus, false, false)
	return errors.Join(errs...)
}

func (c *SessionController) connectLocked(ctx context.Context) error {
	client, err := c.opts.Factory(ctx)
	if err != nil {
		c.logger.Warn("Telemetry source unavailable", "error", err)
		c.setDisplay(DisconnectedStatus, false, false)
		return fmt.Errorf("%w: %w", ErrSourceDisconnected, err)
	}
	c.buf.Reset()
	c.startSamplerLocked(client)
	c.setDisplay(maneuver.NotStartedStatus, true, true)
	return nil
}

func (c *SessionController) startSamplerLocked(client sim.Client) {
	c.client = client
	s := NewSampler(client, c.buf, c.rec, c.pres, c.opts.Stats, c.opts.Sampler)
	s.OnDisconnect = func(err error) { c.onDisconnect(s, err) }
	c.sampler = s
	s.Start(c.ctx)
}

func (c *SessionController) stopSamplerLocked() error {
	if c.sampler == nil {
		return nil
	}
	err := c.sampler.Stop(c.opts.StopGrace)
	c.sampler = nil
	return err
}

// stopEvaluatorLocked ends the active run and waits up to the grace period for its verdict.
func (c *SessionController) stopEvaluatorLocked() error {
	e := c.eval
	if e == nil {
		return nil
	}
	c.eval = nil
	e.End()
	select {
	case <-e.Done():
		return nil
	case <-time.After(c.opts.StopGrace):
		c.logger.Warn("Maneuver did not finish in time", "run", e.RunID())
		return fmt.Errorf("maneuver: %w", ErrShutdownTimeout)
	}
}

// onDisconnect runs on the sampler goroutine after its loop has exited.
func (c *SessionController) onDisconnect(s *Sampler, err error) {
	// Held until the status is written; a Reconnect must not be overwritten.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sampler != s || c.closed {
		return
	}

	c.logger.Warn("Telemetry source lost", "error", err)
	c.setDisplay(DisconnectedStatus, false, false)
	if c.eval != nil {
		// Nothing new arrives; the run would never resolve.
		c.eval.End()
	}
}

// onVerdict runs on the evaluator goroutine.
func (c *SessionController) onVerdict(v maneuver.Verdict) {
	if err := c.rec.AppendEvent(v.Marker()); err != nil {
		c.logger.Error("Failed to record maneuver end", "error", err)
	}
	if c.opts.Stats != nil {
		c.opts.Stats.TrackOutcome(v.Kind.Slug(), v.Outcome.String())
	}

	c.stateMu.Lock()
	current := c.activeRun == v.RunID
	if current {
		c.activeRun = ""
		c.lastVerdict = &v
	}
	connected := c.connected
	c.stateMu.Unlock()

	if !current {
		return
	}
	if connected {
		c.setDisplay(v.Status(), true, true)
	} else {
		c.setDisplay(DisconnectedStatus, false, false)
	}
}

func (c *SessionController) isConnected() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.connected
}

// setDisplay updates display state and notifies the presenter of what changed.
func (c *SessionController) setDisplay(status string, connected, controls bool) {
	c.stateMu.Lock()
	statusChanged := c.status != status
	connChanged := c.connected != connected
	controlsChanged := c.controls != controls
	c.status = status
	c.connected = connected
	c.controls = controls
	c.stateMu.Unlock()

	if connChanged {
		c.pres.OnConnectionChanged(connected)
	}
	if controlsChanged {
		c.pres.OnManeuverControlsEnabled(controls)
	}
	if statusChanged {
		c.pres.OnStatusChanged(status)
	}
}
