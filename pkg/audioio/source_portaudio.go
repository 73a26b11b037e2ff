//go:build cgo

package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource captures audio through PortAudio.
//
// The stream callback runs on a realtime thread, so it only copies the
// input buffer and hands it off with a non-blocking channel send. A
// slow consumer causes dropped frames (counted as overruns), never a
// stalled callback.
type PortAudioSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	stream   *portaudio.Stream
	running  bool
	closed   bool
	framesCh chan Frame
	stopCh   chan struct{}

	framesRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

// newPortAudioSource creates a PortAudio-backed source.
// PortAudio is initialized lazily on the first Start.
func newPortAudioSource(cfg Config, logger *slog.Logger) (*PortAudioSource, error) {
	return &PortAudioSource{
		cfg:      cfg,
		logger:   logger,
		framesCh: make(chan Frame, 32),
	}, nil
}

// Start begins audio capture.
func (p *PortAudioSource) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return io.ErrClosedPipe
	}
	if p.running {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio initialize: %w", err)
	}

	p.framesCh = make(chan Frame, 32)
	ch := p.framesCh

	callback := func(in []float32) {
		frame := Frame{
			Samples:    make([]float32, len(in)),
			SampleRate: p.cfg.SampleRate,
			Channels:   p.cfg.Channels,
		}
		copy(frame.Samples, in)

		select {
		case ch <- frame:
			p.framesRead.Add(1)
			p.samplesRead.Add(int64(len(in)))
		default:
			p.overruns.Add(1)
		}
	}

	stream, err := p.openStream(callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio start stream: %w", err)
	}

	p.stream = stream
	p.running = true
	p.stopCh = make(chan struct{})

	p.logger.Info("portaudio source started",
		"sample_rate", p.cfg.SampleRate,
		"frame_size", p.cfg.FrameSize,
		"device", p.deviceLabel(),
	)

	// Stop closes stopCh, so the watcher exits on either path and a
	// non-cancellable context never parks a goroutine forever.
	go watchCancel(ctx, p.stopCh, func() { p.Stop() })

	return nil
}

func (p *PortAudioSource) openStream(callback func([]float32)) (*portaudio.Stream, error) {
	if p.cfg.Device == "" {
		return portaudio.OpenDefaultStream(
			p.cfg.Channels, 0,
			float64(p.cfg.SampleRate), p.cfg.FrameSize,
			callback,
		)
	}

	dev, err := findInputDevice(p.cfg.Device)
	if err != nil {
		return nil, err
	}

	params := portaudio.HighLatencyParameters(dev, nil)
	params.Input.Channels = p.cfg.Channels
	params.SampleRate = float64(p.cfg.SampleRate)
	params.FramesPerBuffer = p.cfg.FrameSize

	return portaudio.OpenStream(params, callback)
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", name)
}

func (p *PortAudioSource) deviceLabel() string {
	if p.cfg.Device == "" {
		return "default"
	}
	return p.cfg.Device
}

// Stop halts audio capture.
func (p *PortAudioSource) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false
	close(p.stopCh)

	var firstErr error
	if err := p.stream.Stop(); err != nil {
		firstErr = fmt.Errorf("portaudio stop stream: %w", err)
	}
	if err := p.stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("portaudio close stream: %w", err)
	}
	p.stream = nil
	portaudio.Terminate()

	close(p.framesCh)

	p.logger.Info("portaudio source stopped",
		"frames", p.framesRead.Load(),
		"overruns", p.overruns.Load(),
	)

	return firstErr
}

// Frames returns the captured frame channel.
func (p *PortAudioSource) Frames() <-chan Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.framesCh
}

// Config returns the audio configuration.
func (p *PortAudioSource) Config() Config {
	return p.cfg
}

// Name returns "portaudio".
func (p *PortAudioSource) Name() string {
	return "portaudio"
}

// Close releases resources.
func (p *PortAudioSource) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	return p.Stop()
}

// Stats returns source statistics.
func (p *PortAudioSource) Stats() SourceStats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	return SourceStats{
		FramesRead:  p.framesRead.Load(),
		SamplesRead: p.samplesRead.Load(),
		Overruns:    p.overruns.Load(),
		Running:     running,
		Backend:     "portaudio",
	}
}

// Ensure PortAudioSource implements SourceWithStats.
var _ SourceWithStats = (*PortAudioSource)(nil)
