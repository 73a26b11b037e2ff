package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("sample_rate = %d, want default 48000", cfg.Audio.SampleRate)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Web.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
audio:
  backend: mock
waveform:
  theme: light
web:
  port: 9000
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Audio.Backend != "mock" {
		t.Errorf("backend = %s, want mock", cfg.Audio.Backend)
	}
	if cfg.Waveform.Theme != "light" {
		t.Errorf("theme = %s, want light", cfg.Waveform.Theme)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Web.Port)
	}
	// Unset fields keep defaults.
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("sample_rate = %d, want default 48000", cfg.Audio.SampleRate)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CLASSIFIER_URL", "http://classifier.internal/predict")
	t.Setenv("AUDIO_BACKEND", "mock")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Services.ClassifierURL != "http://classifier.internal/predict" {
		t.Errorf("classifier_url = %s", cfg.Services.ClassifierURL)
	}
	if cfg.Audio.Backend != "mock" {
		t.Errorf("backend = %s, want mock", cfg.Audio.Backend)
	}
}

func TestValidationRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"wrong sample rate", func(c *Config) { c.Audio.SampleRate = 44100 }},
		{"stereo", func(c *Config) { c.Audio.Channels = 2 }},
		{"unknown backend", func(c *Config) { c.Audio.Backend = "alsa" }},
		{"unknown theme", func(c *Config) { c.Waveform.Theme = "sepia" }},
		{"zero amplify", func(c *Config) { c.Waveform.Amplify = 0 }},
		{"line width over width", func(c *Config) { c.Waveform.LineWidth = c.Waveform.Width + 1 }},
		{"bad port", func(c *Config) { c.Web.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"zero timeout", func(c *Config) { c.Services.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
