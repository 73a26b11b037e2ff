// Package config provides configuration for the diagnostic recorder.
// Values come from a YAML file, with environment variable overrides for
// deployment-specific settings such as service endpoints.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	Audio    AudioConfig    `yaml:"audio"`
	Waveform WaveformConfig `yaml:"waveform"`
	Services ServicesConfig `yaml:"services"`
	Web      WebConfig      `yaml:"web"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AudioConfig contains capture device parameters.
// The recorder captures raw mono PCM; adaptive signal processing (echo
// cancellation, noise suppression, auto gain) must stay disabled because
// it distorts the biological signal.
type AudioConfig struct {
	Backend    string `yaml:"backend"`     // "auto", "portaudio", "mock"
	SampleRate int    `yaml:"sample_rate"` // Hz
	Channels   int    `yaml:"channels"`
	FrameSize  int    `yaml:"frame_size"` // samples per capture callback
	Device     string `yaml:"device"`     // platform device name, empty = default
}

// WaveformConfig contains waveform rendering parameters.
type WaveformConfig struct {
	Width     int     `yaml:"width"`      // canvas width in pixels
	Height    int     `yaml:"height"`     // canvas height in pixels
	LineWidth int     `yaml:"line_width"` // stroke width per decimated segment
	Amplify   float64 `yaml:"amplify"`    // vertical gain for low-amplitude signals
	FrameRate int     `yaml:"frame_rate"` // render loop frequency (fps)
	Theme     string  `yaml:"theme"`      // "light" or "dark"
}

// ServicesConfig contains external service endpoints.
type ServicesConfig struct {
	ClassifierURL string `yaml:"classifier_url"`
	DenoiserURL   string `yaml:"denoiser_url"`
	Timeout       int    `yaml:"timeout"` // seconds
}

// WebConfig contains the dashboard HTTP server configuration.
type WebConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// MetricsConfig contains the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Backend:    "auto",
			SampleRate: 48000,
			Channels:   1,
			FrameSize:  1024,
		},
		Waveform: WaveformConfig{
			Width:     800,
			Height:    200,
			LineWidth: 2,
			Amplify:   3.0,
			FrameRate: 30,
			Theme:     "dark",
		},
		Services: ServicesConfig{
			Timeout: 60,
		},
		Web: WebConfig{
			Address: "0.0.0.0",
			Port:    8080,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file, applies environment overrides and
// validates the result. A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("CLASSIFIER_URL"); v != "" {
		c.Services.ClassifierURL = v
	}
	if v := os.Getenv("DENOISER_URL"); v != "" {
		c.Services.DenoiserURL = v
	}
	if v := os.Getenv("AUDIO_BACKEND"); v != "" {
		c.Audio.Backend = v
	}
	if v := os.Getenv("AUDIO_DEVICE"); v != "" {
		c.Audio.Device = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate performs validation of the configuration.
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Waveform.Validate(); err != nil {
		return fmt.Errorf("waveform config: %w", err)
	}
	if err := c.Web.Validate(); err != nil {
		return fmt.Errorf("web config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if c.Services.Timeout < 1 {
		return fmt.Errorf("services config: timeout must be at least 1 second, got %d", c.Services.Timeout)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics config: port must be between 1 and 65535, got %d", c.Metrics.Port)
	}
	return nil
}

// Validate validates capture device parameters.
func (a *AudioConfig) Validate() error {
	if a.SampleRate != 48000 {
		return fmt.Errorf("sample_rate must be 48000 Hz for the canonical artifact, got %d", a.SampleRate)
	}
	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}
	if a.FrameSize < 64 || a.FrameSize > 16384 {
		return fmt.Errorf("frame_size must be between 64 and 16384 samples, got %d", a.FrameSize)
	}
	switch a.Backend {
	case "auto", "portaudio", "mock":
	default:
		return fmt.Errorf("backend must be one of [auto, portaudio, mock], got '%s'", a.Backend)
	}
	return nil
}

// Validate validates waveform rendering parameters.
func (w *WaveformConfig) Validate() error {
	if w.Width < 1 {
		return fmt.Errorf("width must be positive, got %d", w.Width)
	}
	if w.Height < 2 {
		return fmt.Errorf("height must be at least 2, got %d", w.Height)
	}
	if w.LineWidth < 1 || w.LineWidth > w.Width {
		return fmt.Errorf("line_width must be between 1 and width, got %d", w.LineWidth)
	}
	if w.Amplify <= 0 {
		return fmt.Errorf("amplify must be positive, got %f", w.Amplify)
	}
	if w.FrameRate < 1 || w.FrameRate > 120 {
		return fmt.Errorf("frame_rate must be between 1 and 120, got %d", w.FrameRate)
	}
	if w.Theme != "light" && w.Theme != "dark" {
		return fmt.Errorf("theme must be 'light' or 'dark', got '%s'", w.Theme)
	}
	return nil
}

// Validate validates the web server configuration.
func (w *WebConfig) Validate() error {
	if w.Port < 1 || w.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", w.Port)
	}
	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}
	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}
	return nil
}

// ServiceTimeout returns the external service timeout as a time.Duration.
func (s *ServicesConfig) ServiceTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}
