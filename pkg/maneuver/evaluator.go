package maneuver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ficonsole/pkg/geo"
	"ficonsole/pkg/logging"
	"ficonsole/pkg/telemetry"
	"ficonsole/pkg/tolerance"
)

// DefaultInterval matches the sampler cadence.
const DefaultInterval = 250 * time.Millisecond

// State is the evaluator lifecycle.
type State int

const (
	StateStarting State = iota
	StateMonitoring
	StateDone
)

// Source yields the most recent sample. *telemetry.Buffer satisfies it.
type Source interface {
	Latest() (telemetry.Sample, bool)
}

// Options configures one run.
type Options struct {
	Kind      Kind
	Target    string
	Source    Source
	Tolerance tolerance.Config
	Interval  time.Duration
	// OnVerdict is called once, from the evaluator goroutine, before Done is closed.
	OnVerdict func(Verdict)
}

// Evaluator grades a single maneuver run.
type Evaluator struct {
	runID     string
	kind      Kind
	baseline  Baseline
	target    Target
	predicate Predicate
	src       Source
	interval  time.Duration
	onVerdict func(Verdict)
	logger    *slog.Logger

	start    telemetry.Sample
	lastTime float64
	last     telemetry.Sample
	prev     geo.Point
	distance float64
	ticks    int

	mu      sync.Mutex
	state   State
	verdict Verdict

	endCh   chan struct{}
	endOnce sync.Once
	done    chan struct{}
}

// Start validates the request, captures the baseline and launches the run.
// On error no goroutine is started.
func Start(ctx context.Context, opts Options) (*Evaluator, error) {
	e, err := Prepare(opts)
	if err != nil {
		return nil, err
	}
	e.Launch(ctx)
	return e, nil
}

// Prepare validates the request and captures the baseline without starting
// the run, so a caller can reject bad input before disturbing anything else.
func Prepare(opts Options) (*Evaluator, error) {
	s, ok := opts.Source.Latest()
	if !ok {
		return nil, ErrNoTelemetry
	}
	b := BaselineFrom(s)
	target, err := ParseTarget(opts.Kind, opts.Target, b)
	if err != nil {
		return nil, err
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	tol := opts.Tolerance
	if tol == (tolerance.Config{}) {
		tol = tolerance.DefaultConfig()
	}

	e := &Evaluator{
		runID:     uuid.NewString(),
		kind:      opts.Kind,
		baseline:  b,
		target:    target,
		predicate: NewPredicate(opts.Kind, b, target, tol),
		src:       opts.Source,
		interval:  interval,
		onVerdict: opts.OnVerdict,
		start:     s,
		last:      s,
		lastTime:  s.Time,
		prev:      geo.Point{Lat: s.Latitude, Lon: s.Longitude},
		endCh:     make(chan struct{}),
		done:      make(chan struct{}),
	}
	e.logger = slog.With("component", "maneuver", "run", e.runID, "kind", opts.Kind.Slug())
	return e, nil
}

// Launch starts monitoring. It must be called exactly once on a prepared run.
func (e *Evaluator) Launch(ctx context.Context) {
	e.logger.Info("Maneuver started",
		"target", e.target.String(),
		"alt_ft", e.baseline.AltitudeFt,
		"hdg", e.baseline.HeadingDeg,
		"ias_kt", e.baseline.AirspeedKt)

	go e.run(ctx)
}

// RunID identifies this run in logs and the session database.
func (e *Evaluator) RunID() string { return e.runID }

// Kind returns the maneuver being graded.
func (e *Evaluator) Kind() Kind { return e.kind }

// Baseline returns the values captured at start.
func (e *Evaluator) Baseline() Baseline { return e.baseline }

// Target returns the validated goal.
func (e *Evaluator) Target() Target { return e.target }

// State returns the current lifecycle state.
func (e *Evaluator) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// End requests termination. Safe to call repeatedly and after the run finished.
func (e *Evaluator) End() {
	e.endOnce.Do(func() { close(e.endCh) })
}

// Done is closed after the verdict has been delivered.
func (e *Evaluator) Done() <-chan struct{} { return e.done }

// Verdict returns the result once the run has finished.
func (e *Evaluator) Verdict() (Verdict, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.verdict, e.state == StateDone
}

// Wait blocks until the run finishes or ctx expires.
func (e *Evaluator) Wait(ctx context.Context) (Verdict, error) {
	select {
	case <-e.done:
		v, _ := e.Verdict()
		return v, nil
	case <-ctx.Done():
		return Verdict{}, ctx.Err()
	}
}

func (e *Evaluator) run(ctx context.Context) {
	defer close(e.done)

	e.setState(StateMonitoring)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.finish(Result{Done: true, Outcome: abortOutcome(e.kind)})
			return
		case <-e.endCh:
			e.finish(Result{Done: true, Outcome: abortOutcome(e.kind)})
			return
		case <-ticker.C:
			// An end request racing with a tick takes precedence over evaluation.
			select {
			case <-e.endCh:
				e.finish(Result{Done: true, Outcome: abortOutcome(e.kind)})
				return
			default:
			}
			if res, ok := e.tick(); ok && res.Done {
				e.finish(res)
				return
			}
		}
	}
}

// tick evaluates the latest sample. ok is false when there was nothing new.
func (e *Evaluator) tick() (Result, bool) {
	s, ok := e.src.Latest()
	if !ok || s.Time == e.lastTime {
		return Result{}, false
	}
	e.lastTime = s.Time
	e.last = s
	e.ticks++
	cur := geo.Point{Lat: s.Latitude, Lon: s.Longitude}
	e.distance += geo.Distance(e.prev, cur)
	e.prev = cur

	res := e.predicate(s)
	logging.Trace(e.logger, "Tick",
		"t", s.Time,
		"alt_ft", s.AltitudeFt,
		"hdg", s.HeadingDeg,
		"ias_kt", s.AirspeedKt,
		"done", res.Done)
	return res, true
}

func (e *Evaluator) finish(res Result) {
	v := Verdict{
		RunID:   e.runID,
		Kind:    e.kind,
		Outcome: res.Outcome,
		Cause:   res.Cause,
		Target:  e.target,
		Summary: Summary{
			Duration:       time.Duration((e.last.Time - e.start.Time) * float64(time.Second)),
			Ticks:          e.ticks,
			DistanceMeters: e.distance,
		},
	}

	e.mu.Lock()
	e.verdict = v
	e.state = StateDone
	e.mu.Unlock()

	e.logger.Info("Maneuver finished",
		"outcome", v.Outcome.String(),
		"cause", string(v.Cause),
		"ticks", v.Summary.Ticks,
		"duration", v.Summary.Duration,
		"distance_m", int(v.Summary.DistanceMeters))

	if e.onVerdict != nil {
		e.onVerdict(v)
	}
}

func (e *Evaluator) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}
