package datalog

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"ficonsole/pkg/telemetry"
)

// TextRecorder appends comma-joined rows and marker blocks to a plain text file.
type TextRecorder struct {
	mu            sync.Mutex
	f             *os.File
	headerWritten bool
}

// NewTextRecorder opens (or creates) path. The header is written on first use
// only when the file is empty.
func NewTextRecorder(path string) (*TextRecorder, error) {
	f, hasContent, err := openAppend(path)
	if err != nil {
		return nil, fmt.Errorf("open text log: %w", err)
	}
	return &TextRecorder{f: f, headerWritten: hasContent}, nil
}

func (r *TextRecorder) AppendSample(s telemetry.Sample) error {
	return r.write(strings.Join(Row(s), ",") + "\n")
}

func (r *TextRecorder) AppendEvent(marker string) error {
	return r.write("\n" + FormatMarker(marker) + "\n\n")
}

func (r *TextRecorder) write(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return ErrClosed
	}
	if !r.headerWritten {
		if _, err := r.f.WriteString(strings.Join(Header(), ",") + "\n"); err != nil {
			return err
		}
		r.headerWritten = true
	}
	_, err := r.f.WriteString(text)
	return err
}

func (r *TextRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
