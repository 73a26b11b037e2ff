package web

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/capture"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/classify"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/playback"
)

// StartCaptureRequest is the request body for starting a capture.
type StartCaptureRequest struct {
	DurationSeconds int `json:"duration_seconds"`
}

// SeekRequest is the request body for seeking playback.
type SeekRequest struct {
	PositionMs int64 `json:"position_ms"`
}

// handleStatus returns the current dashboard state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleCaptureStart begins a new capture session.
func (s *Server) handleCaptureStart(c *fiber.Ctx) error {
	var req StartCaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	// Detached from the request context: the session outlives this
	// request and is terminated by its own timers.
	if err := s.capture.StartCapture(context.Background(), req.DurationSeconds); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, capture.ErrInvalidDuration) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"state":            string(s.capture.State()),
		"duration_seconds": req.DurationSeconds,
	})
}

// handleCaptureStop stops the active session. Stopping with no
// session active is a no-op by design.
func (s *Server) handleCaptureStop(c *fiber.Ctx) error {
	s.capture.StopCapture()
	return c.JSON(s.status())
}

// handlePlaybackToggle plays or pauses the artifact.
func (s *Server) handlePlaybackToggle(c *fiber.Ctx) error {
	if err := s.playback.Toggle(); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, playback.ErrNoArtifact) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.playback.State())
}

// handlePlaybackSeek moves the playback position.
func (s *Server) handlePlaybackSeek(c *fiber.Ctx) error {
	var req SeekRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := s.playback.Seek(time.Duration(req.PositionMs) * time.Millisecond); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, playback.ErrNoArtifact) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.playback.State())
}

// handleDownload serves the artifact as a canonical WAV file.
func (s *Server) handleDownload(c *fiber.Ctx) error {
	data, name, err := s.playback.Download()
	if err != nil {
		if errors.Is(err, playback.ErrNoArtifact) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no recording available",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "audio/wav")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(data)
}

// handleClassify uploads the artifact to the classification service.
func (s *Server) handleClassify(c *fiber.Ctx) error {
	a := s.capture.Artifact()
	if a == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "no recording available",
		})
	}

	result, err := s.services.Classify(c.Context(), a.Bytes())
	if err != nil {
		return c.Status(classifyStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(result)
}

// handleDenoise uploads a noise reference plus the artifact to the
// denoising service and returns the cleaned WAV.
func (s *Server) handleDenoise(c *fiber.Ctx) error {
	a := s.capture.Artifact()
	if a == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "no recording available",
		})
	}

	fh, err := c.FormFile("noise")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing noise reference file",
		})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unreadable noise reference file",
		})
	}
	defer f.Close()
	noiseRef, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unreadable noise reference file",
		})
	}

	denoised, err := s.services.Denoise(c.Context(), noiseRef, a.Bytes())
	if err != nil {
		return c.Status(classifyStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "audio/wav")
	return c.Send(denoised)
}

// classifyStatus maps service client errors to HTTP statuses.
func classifyStatus(err error) int {
	if errors.Is(err, classify.ErrNotConfigured) {
		return fiber.StatusServiceUnavailable
	}
	var apiErr *classify.APIError
	if errors.As(err, &apiErr) {
		return fiber.StatusBadGateway
	}
	var connErr *classify.ConnectionError
	if errors.As(err, &connErr) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
