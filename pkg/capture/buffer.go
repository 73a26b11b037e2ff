package capture

import "sync"

// DefaultCapacity is the maximum number of frames the buffer holds.
// At 1024 samples per frame and 48kHz this covers well over a full
// 30-second capture, so eviction is a safety bound, not the common
// path.
const DefaultCapacity = 1024 * 200

// SampleFrameBuffer is a bounded, ordered accumulator of capture
// frames. When full, appending evicts the oldest frame (FIFO).
//
// It is safe for one producer and any number of snapshot readers. The
// producer is the capture consumer goroutine; readers are the renderer
// and the encoder. Snapshot returns a flattened copy, never a live
// view, so readers cannot observe a frame mid-write.
type SampleFrameBuffer struct {
	mu       sync.RWMutex
	frames   [][]float32
	start    int // ring read index
	count    int
	capacity int
	samples  int   // total samples currently held
	evicted  int64 // lifetime evicted frame count
}

// NewSampleFrameBuffer creates a buffer holding at most capacity
// frames. A non-positive capacity falls back to DefaultCapacity.
func NewSampleFrameBuffer(capacity int) *SampleFrameBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SampleFrameBuffer{
		frames:   make([][]float32, capacity),
		capacity: capacity,
	}
}

// Append adds a frame, evicting the oldest if at capacity. The buffer
// takes ownership of the slice; callers must not reuse it.
func (b *SampleFrameBuffer) Append(frame []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == b.capacity {
		b.samples -= len(b.frames[b.start])
		b.frames[b.start] = nil
		b.start = (b.start + 1) % b.capacity
		b.count--
		b.evicted++
	}

	idx := (b.start + b.count) % b.capacity
	b.frames[idx] = frame
	b.count++
	b.samples += len(frame)
}

// Len returns the number of frames currently held.
func (b *SampleFrameBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// SampleCount returns the total number of samples currently held.
func (b *SampleFrameBuffer) SampleCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.samples
}

// Evicted returns the lifetime count of evicted frames.
func (b *SampleFrameBuffer) Evicted() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.evicted
}

// Snapshot returns a flattened copy of all buffered samples in
// insertion order.
func (b *SampleFrameBuffer) Snapshot() []float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]float32, 0, b.samples)
	for i := 0; i < b.count; i++ {
		out = append(out, b.frames[(b.start+i)%b.capacity]...)
	}
	return out
}

// LastFrame returns a copy of the most recently appended frame, or nil
// if the buffer is empty. The renderer uses this for the live overlay.
func (b *SampleFrameBuffer) LastFrame() []float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}
	last := b.frames[(b.start+b.count-1)%b.capacity]
	out := make([]float32, len(last))
	copy(out, last)
	return out
}

// Reset discards all buffered frames. Lifetime eviction stats are
// preserved.
func (b *SampleFrameBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 0; i < b.count; i++ {
		b.frames[(b.start+i)%b.capacity] = nil
	}
	b.start = 0
	b.count = 0
	b.samples = 0
}
