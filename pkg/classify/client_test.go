package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/wav"
)

func testWAV(t *testing.T) []byte {
	t.Helper()
	data, err := wav.Encode(make([]float32, 480), 48000, 1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestClassify(t *testing.T) {
	var gotField string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not a multipart request: %v", err)
		}
		if _, _, err := r.FormFile("file"); err == nil {
			gotField = "file"
		}
		json.NewEncoder(w).Encode(Result{Label: LabelAbnormal, Confidence: 0.87})
	}))
	defer srv.Close()

	c := NewClient(Config{ClassifierURL: srv.URL, Timeout: 5 * time.Second}, nil)

	result, err := c.Classify(context.Background(), testWAV(t))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Label != LabelAbnormal || result.Confidence != 0.87 {
		t.Errorf("result = %+v, want abnormal/0.87", result)
	}
	if gotField != "file" {
		t.Error("upload did not carry a 'file' multipart part")
	}
}

func TestClassifyRejectsContractViolations(t *testing.T) {
	tests := []struct {
		name   string
		result Result
	}{
		{"unknown label", Result{Label: "healthy", Confidence: 0.5}},
		{"confidence above one", Result{Label: LabelNormal, Confidence: 1.5}},
		{"negative confidence", Result{Label: LabelNormal, Confidence: -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.result)
			}))
			defer srv.Close()

			c := NewClient(Config{ClassifierURL: srv.URL}, nil)
			if _, err := c.Classify(context.Background(), testWAV(t)); !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("Classify = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestClassifyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{ClassifierURL: srv.URL}, nil)
	_, err := c.Classify(context.Background(), testWAV(t))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Classify = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", apiErr.StatusCode)
	}
	if !apiErr.IsRetryable() {
		t.Error("503 should be retryable")
	}
}

func TestClassifyConnectionError(t *testing.T) {
	c := NewClient(Config{ClassifierURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)
	_, err := c.Classify(context.Background(), testWAV(t))

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("Classify = %v, want *ConnectionError", err)
	}
}

func TestClassifyNotConfigured(t *testing.T) {
	c := NewClient(Config{}, nil)
	if _, err := c.Classify(context.Background(), testWAV(t)); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Classify = %v, want ErrNotConfigured", err)
	}
}

func TestDenoise(t *testing.T) {
	clean := testWAV(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not a multipart request: %v", err)
		}
		for _, field := range []string{"noise", "file"} {
			if _, _, err := r.FormFile(field); err != nil {
				t.Errorf("missing %q part: %v", field, err)
			}
		}
		w.Write(clean)
	}))
	defer srv.Close()

	c := NewClient(Config{DenoiserURL: srv.URL}, nil)

	out, err := c.Denoise(context.Background(), testWAV(t), testWAV(t))
	if err != nil {
		t.Fatalf("Denoise failed: %v", err)
	}
	if err := wav.Validate(out); err != nil {
		t.Errorf("denoised output is not canonical WAV: %v", err)
	}
}

func TestDenoiseRejectsNonWAVResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not audio"))
	}))
	defer srv.Close()

	c := NewClient(Config{DenoiserURL: srv.URL}, nil)
	if _, err := c.Denoise(context.Background(), testWAV(t), testWAV(t)); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("Denoise = %v, want ErrInvalidResponse", err)
	}
}
