package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ficonsole/pkg/logging"
	"ficonsole/pkg/sim"
	"ficonsole/pkg/telemetry"
	"ficonsole/pkg/tracker"
)

// Defaults for the sampling loop.
const (
	DefaultSampleInterval = 250 * time.Millisecond
	DefaultReadTimeout    = 200 * time.Millisecond
	DefaultStopGrace      = time.Second
)

// SamplerState is the sampler lifecycle: Idle, then Running, then Stopped.
type SamplerState int

const (
	SamplerIdle SamplerState = iota
	SamplerRunning
	SamplerStopped
)

func (s SamplerState) String() string {
	switch s {
	case SamplerIdle:
		return "idle"
	case SamplerRunning:
		return "running"
	default:
		return "stopped"
	}
}

// SamplerConfig controls cadence and read bounds.
type SamplerConfig struct {
	Interval    time.Duration
	ReadTimeout time.Duration
}

// Sampler polls a sim.Client on a fixed cadence and feeds the buffer.
// A sampler runs once; after a disconnect or Stop a new one is created.
type Sampler struct {
	client      sim.Client
	buf         *telemetry.Buffer
	rec         Recorder
	pres        Presenter
	stats       *tracker.Tracker
	interval    time.Duration
	readTimeout time.Duration
	logger      *slog.Logger

	// OnDisconnect is called once from the loop goroutine after it has exited.
	OnDisconnect func(error)

	mu     sync.Mutex
	state  SamplerState
	cancel context.CancelFunc
	done   chan struct{}
	ticks  int64
	now    func() time.Time
}

// NewSampler creates an idle sampler. rec, pres and stats may be nil.
func NewSampler(client sim.Client, buf *telemetry.Buffer, rec Recorder, pres Presenter, stats *tracker.Tracker, cfg SamplerConfig) *Sampler {
	if rec == nil {
		rec = NopRecorder{}
	}
	if pres == nil {
		pres = NopPresenter{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSampleInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	return &Sampler{
		client:      client,
		buf:         buf,
		rec:         rec,
		pres:        pres,
		stats:       stats,
		interval:    cfg.Interval,
		readTimeout: cfg.ReadTimeout,
		logger:      slog.With("component", "sampler"),
		done:        make(chan struct{}),
		now:         time.Now,
	}
}

// State returns the current lifecycle state.
func (s *Sampler) State() SamplerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the loop has exited.
func (s *Sampler) Done() <-chan struct{} { return s.done }

// Start launches the loop. It is a no-op unless the sampler is idle.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SamplerIdle {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = SamplerRunning
	go s.run(loopCtx)
}

// Stop cancels the loop and waits up to grace for it to exit.
// On timeout it logs a warning and returns ErrShutdownTimeout anyway.
func (s *Sampler) Stop(grace time.Duration) error {
	s.mu.Lock()
	switch s.state {
	case SamplerIdle:
		s.state = SamplerStopped
		close(s.done)
		s.mu.Unlock()
		return nil
	case SamplerRunning:
		s.cancel()
	}
	s.mu.Unlock()

	if grace <= 0 {
		grace = DefaultStopGrace
	}
	select {
	case <-s.done:
		return nil
	case <-time.After(grace):
		s.logger.Warn("Sampler did not stop in time", "grace", grace)
		return fmt.Errorf("sampler: %w", ErrShutdownTimeout)
	}
}

func (s *Sampler) run(ctx context.Context) {
	var disconnectErr error
	defer func() {
		if disconnectErr != nil && s.OnDisconnect != nil {
			s.OnDisconnect(disconnectErr)
		}
	}()
	defer close(s.done)
	defer s.setState(SamplerStopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sampler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sampler stopped")
			return
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				if ctx.Err() != nil {
					s.logger.Info("Sampler stopped")
					return
				}
				s.logger.Warn("Telemetry read failed, sampling stopped", "error", err)
				if s.stats != nil {
					s.stats.TrackReadFailure()
				}
				if rerr := s.rec.AppendEvent(MarkerDisconnected); rerr != nil {
					s.logger.Error("Failed to record disconnect", "error", rerr)
				}
				disconnectErr = fmt.Errorf("%w: %w", ErrSourceDisconnected, err)
				return
			}
		}
	}
}

func (s *Sampler) tick(ctx context.Context) error {
	readCtx, cancel := context.WithTimeout(ctx, s.readTimeout)
	r, err := sim.Poll(readCtx, s.client)
	cancel()
	if err != nil {
		return err
	}

	// Time axis in whole intervals: 0, dt, 2dt, ...
	smp := sampleFromReading(r, float64(s.ticks)*s.interval.Seconds(), s.now())
	s.ticks++

	s.buf.Append(smp)
	if err := s.rec.AppendSample(smp); err != nil {
		s.logger.Error("Failed to record sample", "error", err)
	}
	s.pres.OnSampleBufferUpdated()
	if s.stats != nil {
		s.stats.TrackSample()
	}

	logging.Trace(s.logger, "Sample",
		"t", smp.Time,
		"lat", smp.Latitude,
		"lon", smp.Longitude,
		"alt_ft", smp.AltitudeFt,
		"hdg", smp.HeadingDeg,
		"ias_kt", smp.AirspeedKt,
		"vs_fpm", smp.VerticalSpeedFpm)
	return nil
}

func (s *Sampler) setState(st SamplerState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func sampleFromReading(r sim.Reading, t float64, wall time.Time) telemetry.Sample {
	return telemetry.Sample{
		Time:             t,
		WallTime:         wall,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		AltitudeFt:       r.AltitudeMeters * telemetry.FeetPerMeter,
		PitchDeg:         r.Pitch,
		RollDeg:          r.Roll,
		HeadingDeg:       r.Heading,
		AirspeedKt:       r.Airspeed,
		VerticalSpeedFpm: r.VerticalSpeed,
	}
}
