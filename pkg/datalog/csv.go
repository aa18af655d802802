package datalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"ficonsole/pkg/telemetry"
)

// CSVRecorder writes RFC 4180 rows. Markers are single-cell rows.
type CSVRecorder struct {
	mu            sync.Mutex
	f             *os.File
	w             *csv.Writer
	headerWritten bool
}

// NewCSVRecorder opens (or creates) path for appending.
func NewCSVRecorder(path string) (*CSVRecorder, error) {
	f, hasContent, err := openAppend(path)
	if err != nil {
		return nil, fmt.Errorf("open csv log: %w", err)
	}
	return &CSVRecorder{f: f, w: csv.NewWriter(f), headerWritten: hasContent}, nil
}

func (r *CSVRecorder) AppendSample(s telemetry.Sample) error {
	return r.write(Row(s))
}

func (r *CSVRecorder) AppendEvent(marker string) error {
	return r.write([]string{FormatMarker(marker)})
}

func (r *CSVRecorder) write(record []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return ErrClosed
	}
	if !r.headerWritten {
		if err := r.w.Write(Header()); err != nil {
			return err
		}
		r.headerWritten = true
	}
	if err := r.w.Write(record); err != nil {
		return err
	}
	r.w.Flush()
	return r.w.Error()
}

func (r *CSVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	r.w.Flush()
	ferr := r.w.Error()
	err := r.f.Close()
	r.f = nil
	if ferr != nil {
		return ferr
	}
	return err
}
