package playback

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/capture"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/wav"
)

func testArtifact(t *testing.T, seconds float64) *capture.Artifact {
	t.Helper()

	n := int(48000 * seconds)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(i%100) / 200
	}
	data, err := wav.Encode(samples, 48000, 1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return capture.NewArtifact(data, samples, 48000, 1)
}

func TestToggleWithoutArtifact(t *testing.T) {
	c := NewController(NewMockOutput(), nil)

	err := c.Toggle()
	if !errors.Is(err, ErrPlayback) {
		t.Errorf("Toggle = %v, want ErrPlayback", err)
	}
	if !errors.Is(err, ErrNoArtifact) {
		t.Errorf("Toggle = %v, want ErrNoArtifact in chain", err)
	}
}

func TestTogglePlayPause(t *testing.T) {
	out := NewMockOutput()
	c := NewController(out, nil)
	defer c.Close()

	c.Load(testArtifact(t, 1))

	if err := c.Toggle(); err != nil {
		t.Fatalf("Toggle (play) failed: %v", err)
	}
	if !c.State().IsPlaying {
		t.Error("state should be playing after first Toggle")
	}
	if out.InitCount() != 1 {
		t.Errorf("output initialized %d times, want 1", out.InitCount())
	}

	// Simulate the speaker pulling 24000 samples (500ms).
	out.Pump(24000)

	st := c.State()
	want := int64(500)
	if st.CurrentTimeMs < want-10 || st.CurrentTimeMs > want+10 {
		t.Errorf("position = %dms after pumping 24000 samples, want ~%dms", st.CurrentTimeMs, want)
	}
	if st.DurationMs != 1000 {
		t.Errorf("duration = %dms, want 1000", st.DurationMs)
	}

	if err := c.Toggle(); err != nil {
		t.Fatalf("Toggle (pause) failed: %v", err)
	}
	if c.State().IsPlaying {
		t.Error("state should be paused after second Toggle")
	}
}

func TestInitFailureIsPlaybackError(t *testing.T) {
	out := NewMockOutput().WithInitError(io.ErrClosedPipe)
	c := NewController(out, nil)

	c.Load(testArtifact(t, 0.1))
	if err := c.Toggle(); !errors.Is(err, ErrPlayback) {
		t.Errorf("Toggle with failing output = %v, want ErrPlayback", err)
	}
	if c.State().IsPlaying {
		t.Error("failed toggle must not report playing")
	}
}

func TestSeek(t *testing.T) {
	out := NewMockOutput()
	c := NewController(out, nil)
	defer c.Close()

	c.Load(testArtifact(t, 1))

	// Seek before first play must stick.
	if err := c.Seek(250 * time.Millisecond); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if got := c.State().CurrentTimeMs; got != 250 {
		t.Errorf("position after seek = %dms, want 250", got)
	}

	// Seek past the end clamps.
	if err := c.Seek(5 * time.Second); err != nil {
		t.Fatalf("Seek past end failed: %v", err)
	}
	if got := c.State().CurrentTimeMs; got != 1000 {
		t.Errorf("clamped position = %dms, want 1000", got)
	}

	if err := c.Seek(-time.Second); err != nil {
		t.Fatalf("negative Seek failed: %v", err)
	}
	if got := c.State().CurrentTimeMs; got != 0 {
		t.Errorf("position after negative seek = %dms, want 0", got)
	}
}

func TestSeekWithoutArtifact(t *testing.T) {
	c := NewController(NewMockOutput(), nil)
	if err := c.Seek(time.Second); !errors.Is(err, ErrNoArtifact) {
		t.Errorf("Seek = %v, want ErrNoArtifact", err)
	}
}

func TestPlaybackFinishDetection(t *testing.T) {
	out := NewMockOutput()
	c := NewController(out, nil)
	defer c.Close()

	c.Load(testArtifact(t, 0.1)) // 4800 samples

	if err := c.Toggle(); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	// Drain everything; the poller should notice and flip to stopped.
	out.Pump(10000)

	deadline := time.After(2 * time.Second)
	for c.State().IsPlaying {
		select {
		case <-deadline:
			t.Fatal("controller never noticed playback finished")
		case <-time.After(20 * time.Millisecond):
		}
	}

	// Rewound for replay.
	if got := c.State().CurrentTimeMs; got != 0 {
		t.Errorf("position after finish = %dms, want 0", got)
	}
}

func TestPositionCallbacks(t *testing.T) {
	out := NewMockOutput()
	c := NewController(out, nil)
	defer c.Close()

	c.Load(testArtifact(t, 1))

	updates := make(chan State, 64)
	c.OnPosition(func(st State) {
		select {
		case updates <- st:
		default:
		}
	})

	if err := c.Toggle(); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	out.Pump(4800)

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("no position callback within 1s of playing")
	}
}

func TestLoadResetsState(t *testing.T) {
	out := NewMockOutput()
	c := NewController(out, nil)
	defer c.Close()

	first := testArtifact(t, 1)
	c.Load(first)
	c.Toggle()
	out.Pump(9600)

	second := testArtifact(t, 0.5)
	c.Load(second)

	st := c.State()
	if st.ArtifactID != second.ID() {
		t.Errorf("artifact id = %s, want %s", st.ArtifactID, second.ID())
	}
	if st.CurrentTimeMs != 0 || st.IsPlaying {
		t.Errorf("state after Load = %+v, want reset", st)
	}
	if st.DurationMs != 500 {
		t.Errorf("duration = %dms, want 500", st.DurationMs)
	}
}

func TestDownloadIsCanonicalAndNonMutating(t *testing.T) {
	c := NewController(NewMockOutput(), nil)
	a := testArtifact(t, 0.2)
	c.Load(a)

	before := a.Bytes()

	data, name, err := c.Download()
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if err := wav.Validate(data); err != nil {
		t.Errorf("download is not a valid WAV: %v", err)
	}
	if name == "" {
		t.Error("download filename is empty")
	}

	// Deterministic encoder: downloaded bytes match the artifact.
	if !bytes.Equal(data, before) {
		t.Error("downloaded bytes differ from the artifact container")
	}
	if !bytes.Equal(a.Bytes(), before) {
		t.Error("Download mutated the stored artifact")
	}
}

func TestDownloadWithoutArtifact(t *testing.T) {
	c := NewController(NewMockOutput(), nil)
	if _, _, err := c.Download(); !errors.Is(err, ErrNoArtifact) {
		t.Errorf("Download = %v, want ErrNoArtifact", err)
	}
}
