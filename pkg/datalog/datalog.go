// Package datalog writes session telemetry and lifecycle markers to disk.
// Every recorder is append-only and safe for concurrent use.
package datalog

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"ficonsole/pkg/telemetry"
)

// TimestampLayout formats the wall-clock column.
const TimestampLayout = "2006-01-02 15:04:05"

// Header returns the column names shared by the text and CSV logs.
func Header() []string {
	h := make([]string, 0, len(telemetry.Metrics)+1)
	h = append(h, "Timestamp")
	for _, m := range telemetry.Metrics {
		h = append(h, m.String())
	}
	return h
}

// Row renders a sample in header order.
func Row(s telemetry.Sample) []string {
	vals := s.Values()
	row := make([]string, 0, len(vals)+1)
	row = append(row, s.WallTime.Format(TimestampLayout))
	for _, v := range vals {
		row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return row
}

// FormatMarker renders a lifecycle marker line.
func FormatMarker(marker string) string {
	return "--- " + marker + " ---"
}

// openAppend opens path for appending and reports whether it already has content.
func openAppend(path string) (*os.File, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	return f, info.Size() > 0, nil
}

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("datalog: recorder closed")
