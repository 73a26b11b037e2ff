// Package classify uploads captured artifacts to the external
// classification and denoising services. Both services are black
// boxes consumed over multipart HTTP; this package only owns the
// request/response contracts.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/lakindu-banneheka/medical-diagnostic-app/internal/httpc"
	"github.com/lakindu-banneheka/medical-diagnostic-app/internal/metrics"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/wav"
)

// Labels returned by the classification service.
const (
	LabelNormal   = "normal"
	LabelAbnormal = "abnormal"
	LabelArtifact = "artifact"
)

// Result is the classification service response.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Valid reports whether the result matches the service contract.
func (r *Result) Valid() bool {
	switch r.Label {
	case LabelNormal, LabelAbnormal, LabelArtifact:
	default:
		return false
	}
	return r.Confidence >= 0 && r.Confidence <= 1
}

// Config holds the service endpoints.
type Config struct {
	ClassifierURL string        `yaml:"classifier_url"`
	DenoiserURL   string        `yaml:"denoiser_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Client talks to the classification and denoising services.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a service client.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
	}
	if cfg.Timeout > 0 {
		c.http = httpc.NewClient(cfg.Timeout)
	} else {
		c.http = httpc.Client
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify uploads a WAV artifact and returns the predicted label.
func (c *Client) Classify(ctx context.Context, wavData []byte) (*Result, error) {
	if c.cfg.ClassifierURL == "" {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	if c.metrics != nil {
		c.metrics.ClassifyRequests.Inc()
	}

	result, err := c.classify(ctx, wavData)

	if c.metrics != nil {
		c.metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.ClassifyFailures.Inc()
		} else {
			c.metrics.ClassifySuccesses.Inc()
		}
	}
	return result, err
}

func (c *Client) classify(ctx context.Context, wavData []byte) (*Result, error) {
	body, contentType, err := buildMultipart(map[string][]byte{"file": wavData})
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, c.cfg.ClassifierURL, body, contentType, "classifier")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("classify: decode response: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: label %q, confidence %f", ErrInvalidResponse, result.Label, result.Confidence)
	}

	c.logger.Info("classification complete",
		"label", result.Label,
		"confidence", result.Confidence,
	)
	return &result, nil
}

// Denoise uploads a noise-reference recording and the captured
// artifact; the service returns a denoised WAV of the same canonical
// layout.
func (c *Client) Denoise(ctx context.Context, noiseRef, wavData []byte) ([]byte, error) {
	if c.cfg.DenoiserURL == "" {
		return nil, ErrNotConfigured
	}

	body, contentType, err := buildMultipart(map[string][]byte{
		"noise": noiseRef,
		"file":  wavData,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, c.cfg.DenoiserURL, body, contentType, "denoiser")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	denoised, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("denoise: read response: %w", err)
	}
	if err := wav.Validate(denoised); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	c.logger.Info("denoising complete", "bytes", len(denoised))
	return denoised, nil
}

func (c *Client) post(ctx context.Context, url string, body *bytes.Buffer, contentType, service string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("classify: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{Service: service, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    string(msg),
		}
	}
	return resp, nil
}

// buildMultipart assembles a multipart body with one WAV file part
// per field, in deterministic field order for single-entry maps.
func buildMultipart(parts map[string][]byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range []string{"noise", "file"} {
		data, ok := parts[field]
		if !ok {
			continue
		}
		fw, err := w.CreateFormFile(field, field+".wav")
		if err != nil {
			return nil, "", fmt.Errorf("classify: build multipart: %w", err)
		}
		if _, err := fw.Write(data); err != nil {
			return nil, "", fmt.Errorf("classify: write multipart: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("classify: close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
