package wav

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func TestQuantizeSample(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want int16
	}{
		{"positive rail", 1.0, 32767},
		{"negative rail", -1.0, -32768},
		{"zero", 0.0, 0},
		{"half positive", 0.5, 16383},
		{"half negative", -0.5, -16384},
		{"clamp above", 2.5, 32767},
		{"clamp below", -2.5, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuantizeSample(tt.in); got != tt.want {
				t.Errorf("QuantizeSample(%f) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeHeader(t *testing.T) {
	samples := make([]float32, 480) // 10ms at 48kHz
	data, err := Encode(samples, 48000, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if len(data) != HeaderSize+len(samples)*2 {
		t.Errorf("file size = %d, want %d", len(data), HeaderSize+len(samples)*2)
	}
	if string(data[0:4]) != "RIFF" {
		t.Errorf("bytes 0-3 = %q, want RIFF", data[0:4])
	}
	if string(data[8:12]) != "WAVE" {
		t.Errorf("bytes 8-11 = %q, want WAVE", data[8:12])
	}
	if string(data[12:16]) != "fmt " {
		t.Errorf("bytes 12-15 = %q, want 'fmt '", data[12:16])
	}
	if string(data[36:40]) != "data" {
		t.Errorf("bytes 36-39 = %q, want data", data[36:40])
	}

	if got := binary.LittleEndian.Uint16(data[20:22]); got != 1 {
		t.Errorf("audio format = %d, want 1 (PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 48000 {
		t.Errorf("sample rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint32(data[28:32]); got != 96000 {
		t.Errorf("byte rate = %d, want 96000", got)
	}
	if got := binary.LittleEndian.Uint16(data[32:34]); got != 2 {
		t.Errorf("block align = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint16(data[34:36]); got != 16 {
		t.Errorf("bits per sample = %d, want 16", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", got, len(samples)*2)
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != uint32(36+len(samples)*2) {
		t.Errorf("chunk size = %d, want %d", got, 36+len(samples)*2)
	}
}

func TestEncodeRails(t *testing.T) {
	data, err := Encode([]float32{1.0, -1.0}, 48000, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	pcm := data[HeaderSize:]
	if pcm[0] != 0xFF || pcm[1] != 0x7F {
		t.Errorf("+1.0 encoded as % X, want FF 7F", pcm[0:2])
	}
	if pcm[2] != 0x00 || pcm[3] != 0x80 {
		t.Errorf("-1.0 encoded as % X, want 00 80", pcm[2:4])
	}
}

func TestEncodeDeterministic(t *testing.T) {
	samples := []float32{0.1, -0.2, 0.3, -0.4, 0.5}
	a, err := Encode(samples, 48000, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b, err := Encode(samples, 48000, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical input produced different output")
	}
}

func TestEncodeInvalidParams(t *testing.T) {
	if _, err := Encode(nil, 0, 1); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := Encode(nil, 48000, 0); err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	in := make([]float32, 1000)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * float64(i) / 100))
	}

	data, err := Encode(in, 48000, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	out, info, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if info.SampleRate != 48000 {
		t.Errorf("sample rate = %d, want 48000", info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("channels = %d, want 1", info.Channels)
	}
	if info.Samples != len(in) {
		t.Errorf("samples = %d, want %d", info.Samples, len(in))
	}

	if len(out) != len(in) {
		t.Fatalf("decoded %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		if diff := math.Abs(float64(out[i] - in[i])); diff > 1.0/32768 {
			t.Fatalf("sample %d: got %f, want %f (diff %f)", i, out[i], in[i], diff)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", make([]byte, 20)},
		{"garbage", bytes.Repeat([]byte{0xAB}, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(tt.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	data, err := Encode([]float32{0, 0.5, -0.5}, 48000, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := Validate(data); err != nil {
		t.Errorf("Validate rejected valid file: %v", err)
	}
	if err := Validate(data[:10]); err == nil {
		t.Error("Validate accepted truncated file")
	}
}

func TestInfoDuration(t *testing.T) {
	info := Info{SampleRate: 48000, Channels: 1, Samples: 48000 * 30}
	if got := info.Duration(); got != 30*time.Second {
		t.Errorf("Duration = %v, want 30s", got)
	}

	var zero Info
	if got := zero.Duration(); got != 0 {
		t.Errorf("zero-value Duration = %v, want 0", got)
	}
}
