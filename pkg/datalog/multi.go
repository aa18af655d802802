package datalog

import (
	"errors"

	"ficonsole/pkg/telemetry"
)

// Recorder is the sink contract shared by every destination.
type Recorder interface {
	AppendSample(s telemetry.Sample) error
	AppendEvent(marker string) error
	Close() error
}

// Multi fans writes out to every recorder. One failing destination does not
// stop the others; errors are joined.
type Multi []Recorder

func (m Multi) AppendSample(s telemetry.Sample) error {
	var errs []error
	for _, r := range m {
		if err := r.AppendSample(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) AppendEvent(marker string) error {
	var errs []error
	for _, r := range m {
		if err := r.AppendEvent(marker); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
