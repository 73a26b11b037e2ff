package playback

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Output abstracts the audio output device so the controller can be
// tested without hardware.
type Output interface {
	// Init prepares the output for the given sample rate. May be
	// called again to switch rates.
	Init(sr beep.SampleRate) error

	// Play starts pulling from the streamer.
	Play(s beep.Streamer)

	// Lock/Unlock guard mutations of a playing streamer; the output
	// never pulls samples while locked.
	Lock()
	Unlock()

	// Clear drops the current streamer.
	Clear()

	// Close releases the output device.
	Close() error
}

// MockOutput is an output for tests. It never touches hardware;
// tests drive the streamer explicitly with Pump.
type MockOutput struct {
	mu       sync.Mutex
	rate     beep.SampleRate
	streamer beep.Streamer
	inits    int
	initErr  error
}

// NewMockOutput creates a mock output.
func NewMockOutput() *MockOutput {
	return &MockOutput{}
}

// WithInitError makes Init fail, simulating a rejected device.
func (m *MockOutput) WithInitError(err error) *MockOutput {
	m.initErr = err
	return m
}

// Init records the sample rate.
func (m *MockOutput) Init(sr beep.SampleRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initErr != nil {
		return m.initErr
	}
	m.rate = sr
	m.inits++
	return nil
}

// Play stores the streamer for Pump.
func (m *MockOutput) Play(s beep.Streamer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamer = s
}

// Lock guards streamer mutation.
func (m *MockOutput) Lock() { m.mu.Lock() }

// Unlock releases the guard.
func (m *MockOutput) Unlock() { m.mu.Unlock() }

// Clear drops the streamer.
func (m *MockOutput) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamer = nil
}

// Close is a no-op.
func (m *MockOutput) Close() error { return nil }

// Pump pulls n samples from the playing streamer, simulating the
// speaker goroutine. Returns the number of samples produced.
func (m *MockOutput) Pump(n int) int {
	m.mu.Lock()
	s := m.streamer
	m.mu.Unlock()

	if s == nil {
		return 0
	}

	buf := make([][2]float64, n)
	total := 0
	for total < n {
		got, ok := s.Stream(buf[total:])
		total += got
		if !ok {
			break
		}
	}
	return total
}

// InitCount returns how many times Init succeeded.
func (m *MockOutput) InitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inits
}

// Ensure MockOutput implements Output.
var _ Output = (*MockOutput)(nil)
