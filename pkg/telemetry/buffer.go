package telemetry

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the number of samples kept for plotting.
const DefaultCapacity = 100

// Buffer is a fixed-capacity rolling history of samples.
//
// Writers build a fresh immutable snapshot and publish it with a single
// atomic swap, so readers always see the time axis and every metric series
// at the same length.
type Buffer struct {
	capacity int
	writeMu  sync.Mutex
	current  atomic.Pointer[View]
}

// NewBuffer creates a buffer holding at most capacity samples.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Capacity returns the configured bound.
func (b *Buffer) Capacity() int {
	if b.capacity <= 0 {
		return DefaultCapacity
	}
	return b.capacity
}

// Append adds s at the end, evicting the oldest sample once capacity is exceeded.
func (b *Buffer) Append(s Sample) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	var old []Sample
	if v := b.current.Load(); v != nil {
		old = v.samples
	}

	limit := b.Capacity()
	start := 0
	if len(old)+1 > limit {
		start = len(old) + 1 - limit
	}

	next := make([]Sample, 0, len(old)-start+1)
	next = append(next, old[start:]...)
	next = append(next, s)

	b.current.Store(&View{samples: next})
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.current.Store(nil)
}

// Snapshot returns a consistent read-only view of the current history.
func (b *Buffer) Snapshot() *View {
	if v := b.current.Load(); v != nil {
		return v
	}
	return &View{}
}

// Latest returns the most recent sample. ok is false while the buffer is empty.
func (b *Buffer) Latest() (s Sample, ok bool) {
	return b.Snapshot().Latest()
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int {
	return b.Snapshot().Len()
}

// Series returns the ordered values for one metric.
func (b *Buffer) Series(m Metric) []float64 {
	return b.Snapshot().Series(m)
}

// Times returns the ordered time axis.
func (b *Buffer) Times() []float64 {
	return b.Snapshot().Times()
}

// View is an immutable snapshot of the buffer.
type View struct {
	samples []Sample
}

// Len returns the number of samples in the view.
func (v *View) Len() int { return len(v.samples) }

// Latest returns the newest sample in the view.
func (v *View) Latest() (Sample, bool) {
	if len(v.samples) == 0 {
		return Sample{}, false
	}
	return v.samples[len(v.samples)-1], true
}

// Samples returns a copy of the samples, oldest first.
func (v *View) Samples() []Sample {
	out := make([]Sample, len(v.samples))
	copy(out, v.samples)
	return out
}

// Times returns the time axis.
func (v *View) Times() []float64 {
	out := make([]float64, len(v.samples))
	for i := range v.samples {
		out[i] = v.samples[i].Time
	}
	return out
}

// Series returns the values of m, aligned with Times.
func (v *View) Series(m Metric) []float64 {
	out := make([]float64, len(v.samples))
	for i := range v.samples {
		out[i] = v.samples[i].Value(m)
	}
	return out
}
