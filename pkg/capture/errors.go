package capture

import (
	"errors"
	"fmt"
)

// Sentinel errors for capture failures.
var (
	// ErrDevice is returned when the input device cannot be acquired
	// (no device present or access denied). Not retryable without
	// external action.
	ErrDevice = errors.New("capture: audio input device unavailable")

	// ErrNoData is returned when a session stops without having
	// captured any audio. Retryable by starting a new session.
	ErrNoData = errors.New("No audio data was captured.")

	// ErrEncoding is returned when the captured samples cannot be
	// encoded into an artifact. The session's data is discarded.
	ErrEncoding = errors.New("capture: failed to encode audio")

	// ErrInvalidDuration is returned when the requested target
	// duration is not one of the recognized options.
	ErrInvalidDuration = errors.New("capture: invalid target duration")

	// ErrSessionClosed is returned when operating on a controller
	// that has been closed.
	ErrSessionClosed = errors.New("capture: controller closed")
)

// DeviceError wraps a backend failure with device context.
type DeviceError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("capture [%s]: device error: %v", e.Backend, e.Err)
}

// Unwrap allows errors.Is(err, ErrDevice) to match.
func (e *DeviceError) Unwrap() error {
	return ErrDevice
}

// Cause returns the underlying backend error.
func (e *DeviceError) Cause() error {
	return e.Err
}

// WrapDeviceError wraps a backend error with device context.
func WrapDeviceError(backend string, err error) error {
	if err == nil {
		return nil
	}
	return &DeviceError{Backend: backend, Err: err}
}
