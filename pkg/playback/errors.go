package playback

import "errors"

// Sentinel errors for playback failures. Playback errors are reported
// to the caller and never affect capture state.
var (
	// ErrPlayback is the base error for playback failures.
	ErrPlayback = errors.New("playback: failed to play artifact")

	// ErrNoArtifact is returned when no artifact is loaded.
	ErrNoArtifact = errors.New("playback: no artifact loaded")
)
