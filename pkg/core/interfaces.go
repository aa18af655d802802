package core

import (
	"errors"

	"ficonsole/pkg/telemetry"
)

var (
	// ErrSourceDisconnected is reported when a telemetry read fails. Sampling stops until Reconnect.
	ErrSourceDisconnected = errors.New("telemetry source disconnected")
	// ErrShutdownTimeout means a loop did not exit within its grace period.
	ErrShutdownTimeout = errors.New("shutdown timed out")
	// ErrClosed rejects commands after Shutdown.
	ErrClosed = errors.New("session closed")
)

// Lifecycle markers written to the session logs.
const (
	MarkerDisconnected = "Server Disconnected"
	MarkerEndOfSession = "End of Session"
)

// Recorder persists samples and lifecycle events. Implementations must be
// safe for concurrent use; the sampler and the evaluator write from their own goroutines.
type Recorder interface {
	AppendSample(s telemetry.Sample) error
	AppendEvent(marker string) error
	Close() error
}

// Presenter receives display updates. It never evaluates anything.
type Presenter interface {
	OnSampleBufferUpdated()
	OnStatusChanged(text string)
	OnManeuverControlsEnabled(enabled bool)
	OnConnectionChanged(connected bool)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) AppendSample(telemetry.Sample) error { return nil }
func (NopRecorder) AppendEvent(string) error            { return nil }
func (NopRecorder) Close() error                        { return nil }

// NopPresenter ignores all updates.
type NopPresenter struct{}

func (NopPresenter) OnSampleBufferUpdated()         {}
func (NopPresenter) OnStatusChanged(string)         {}
func (NopPresenter) OnManeuverControlsEnabled(bool) {}
func (NopPresenter) OnConnectionChanged(bool)       {}
