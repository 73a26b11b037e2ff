// Package web provides the capture dashboard: a REST API for the
// recording lifecycle and websocket streams for waveform frames and
// status updates.
package web

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/capture"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/classify"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/hub"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/playback"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/waveform"
)

// Status is the dashboard state snapshot broadcast on every change.
type Status struct {
	CaptureState       string         `json:"capture_state"`
	ElapsedMs          int64          `json:"elapsed_ms"`
	TargetMs           int64          `json:"target_ms"`
	Error              string         `json:"error,omitempty"`
	HasArtifact        bool           `json:"has_artifact"`
	ArtifactID         string         `json:"artifact_id,omitempty"`
	ArtifactDurationMs int64          `json:"artifact_duration_ms,omitempty"`
	Playback           playback.State `json:"playback"`
}

// Config holds the HTTP server configuration.
type Config struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// Server is the dashboard HTTP server.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	capture  *capture.Controller
	playback *playback.Controller
	renderer *waveform.Renderer
	loop     *waveform.Loop
	services *classify.Client

	waveformHub *hub.Hub
	statusHub   *hub.Hub

	mu           sync.RWMutex
	lastError    string
	cursorActive bool
}

// NewServer creates the dashboard server and wires the capture
// pipeline callbacks into the websocket streams.
func NewServer(
	cfg Config,
	capCtrl *capture.Controller,
	play *playback.Controller,
	renderer *waveform.Renderer,
	fps int,
	services *classify.Client,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:         cfg,
		logger:      logger,
		capture:     capCtrl,
		playback:    play,
		renderer:    renderer,
		services:    services,
		waveformHub: hub.New("waveform", logger),
		statusHub:   hub.New("status", logger),
	}
	s.loop = waveform.NewLoop(renderer, s.waveformHub, fps, logger)

	capCtrl.OnStateChange(s.onCaptureState)
	capCtrl.OnProgress(func(capture.Progress) { s.broadcastStatus() })
	capCtrl.OnArtifact(s.onArtifact)
	play.OnPosition(s.onPlaybackPosition)

	app := fiber.New(fiber.Config{
		AppName:               "Auscultation Dashboard",
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024,
	})

	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/capture/start", s.handleCaptureStart)
	api.Post("/capture/stop", s.handleCaptureStop)
	api.Post("/playback/toggle", s.handlePlaybackToggle)
	api.Post("/playback/seek", s.handlePlaybackSeek)
	api.Get("/artifact.wav", s.handleDownload)
	api.Post("/classify", s.handleClassify)
	api.Post("/denoise", s.handleDenoise)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/waveform", websocket.New(s.handleWaveformWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hubs and listens. It blocks.
func (s *Server) Start() error {
	go s.waveformHub.Run()
	go s.statusHub.Run()

	addr := fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.Port)
	s.logger.Info("dashboard listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server and the render loop.
func (s *Server) Shutdown() error {
	s.loop.Stop()
	s.waveformHub.Stop()
	s.statusHub.Stop()
	return s.app.Shutdown()
}

// onCaptureState starts and stops the live render loop with the
// session and mirrors every transition to connected clients.
func (s *Server) onCaptureState(st capture.State, err error) {
	s.mu.Lock()
	if err != nil {
		s.lastError = err.Error()
	} else if st == capture.StateAcquiring {
		s.lastError = ""
	}
	s.mu.Unlock()

	switch st {
	case capture.StateRecording:
		if buf := s.capture.Buffer(); buf != nil {
			s.mu.Lock()
			s.cursorActive = false
			s.mu.Unlock()
			s.loop.StartLive(buf, s.captureProgress)
		}
	case capture.StateStopping:
		s.loop.Stop()
	}

	s.broadcastStatus()
}

// captureProgress returns elapsed/target as a fraction for the
// progress bar.
func (s *Server) captureProgress() float64 {
	target := s.capture.Target()
	if target == 0 {
		return 0
	}
	return float64(s.capture.Elapsed()) / float64(target)
}

// onArtifact loads the artifact for playback, renders the static
// waveform once and pushes it to clients.
func (s *Server) onArtifact(a *capture.Artifact) {
	s.playback.Load(a)

	img := s.renderer.RenderStatic(a.Samples())
	if data, err := waveform.EncodePNG(img); err == nil {
		s.waveformHub.WriteFrame(data)
	}

	s.broadcastStatus()
}

// onPlaybackPosition drives the cursor over the cached static
// waveform. While playing, the shared render loop animates it; when
// paused or seeked at rest, a single frame is pushed instead.
func (s *Server) onPlaybackPosition(st playback.State) {
	s.mu.Lock()
	wasActive := s.cursorActive
	s.cursorActive = st.IsPlaying
	s.mu.Unlock()

	switch {
	case st.IsPlaying && !wasActive:
		s.loop.StartPlayback(s.playback.Progress)
	case !st.IsPlaying:
		if wasActive {
			s.loop.Stop()
		}
		img := s.renderer.RenderCursor(s.playback.Progress())
		if data, err := waveform.EncodePNG(img); err == nil {
			s.waveformHub.WriteFrame(data)
		}
	}

	s.broadcastStatus()
}

func (s *Server) status() Status {
	s.mu.RLock()
	lastError := s.lastError
	s.mu.RUnlock()

	st := Status{
		CaptureState: string(s.capture.State()),
		ElapsedMs:    s.capture.Elapsed().Milliseconds(),
		TargetMs:     s.capture.Target().Milliseconds(),
		Error:        lastError,
		Playback:     s.playback.State(),
	}
	if a := s.capture.Artifact(); a != nil {
		st.HasArtifact = true
		st.ArtifactID = a.ID()
		st.ArtifactDurationMs = a.Duration().Milliseconds()
	}
	return st
}

func (s *Server) broadcastStatus() {
	if err := s.statusHub.BroadcastJSON(s.status()); err != nil {
		s.logger.Error("status broadcast failed", "error", err)
	}
}

func (s *Server) handleWaveformWS(c *websocket.Conn) {
	hub.NewClient(s.waveformHub, c).Run()
}

func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.NewClient(s.statusHub, c).Run()
}
