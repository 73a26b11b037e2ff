// Auscult captures fixed-duration biological audio samples, streams a
// live waveform to the dashboard, and produces canonical WAV artifacts
// for classification.
package main

import (
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lakindu-banneheka/medical-diagnostic-app/internal/config"
	"github.com/lakindu-banneheka/medical-diagnostic-app/internal/log"
	"github.com/lakindu-banneheka/medical-diagnostic-app/internal/metrics"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/audioio"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/capture"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/classify"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/playback"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/waveform"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	backend := flag.String("backend", "", "Override audio backend (auto, portaudio, mock)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("configuration error: %v", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *backend != "" {
		cfg.Audio.Backend = *backend
	}

	log.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger := log.L()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		go func() {
			if err := m.Serve(cfg.Metrics.Port); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	audioCfg := audioio.Config{
		Backend:    audioio.Backend(cfg.Audio.Backend),
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		FrameSize:  cfg.Audio.FrameSize,
		Device:     cfg.Audio.Device,
	}

	captureOpts := []capture.Option{}
	if m != nil {
		captureOpts = append(captureOpts, capture.WithMetrics(m))
	}
	capCtrl := capture.NewController(audioCfg, logger, captureOpts...)
	defer capCtrl.Close()

	playCtrl := playback.NewController(playback.NewSpeakerOutput(), logger)
	defer playCtrl.Close()

	renderer := waveform.NewRenderer(waveform.Config{
		Width:     cfg.Waveform.Width,
		Height:    cfg.Waveform.Height,
		LineWidth: cfg.Waveform.LineWidth,
		Amplify:   cfg.Waveform.Amplify,
		Dark:      cfg.Waveform.Theme == "dark",
	})

	serviceOpts := []classify.Option{}
	if m != nil {
		serviceOpts = append(serviceOpts, classify.WithMetrics(m))
	}
	services := classify.NewClient(classify.Config{
		ClassifierURL: cfg.Services.ClassifierURL,
		DenoiserURL:   cfg.Services.DenoiserURL,
		Timeout:       cfg.Services.ServiceTimeout(),
	}, logger, serviceOpts...)

	server := web.NewServer(
		web.Config{Address: cfg.Web.Address, Port: cfg.Web.Port},
		capCtrl, playCtrl, renderer, cfg.Waveform.FrameRate, services, logger,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	if err := server.Shutdown(); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
