// Package wav encodes and decodes 16-bit PCM WAV files.
//
// The encoder produces the canonical artifact format for captured
// recordings: RIFF/WAVE, PCM, 16 bits per sample, little-endian, with a
// standard 44-byte header. Float samples in [-1, 1] are quantized with
// the full signed 16-bit range so that -1.0 maps exactly to -32768 and
// +1.0 maps exactly to +32767.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// HeaderSize is the size of a canonical PCM WAV header in bytes.
const HeaderSize = 44

// Header represents a canonical 44-byte PCM WAV header.
type Header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample/8
	BlockAlign    uint16 // NumChannels * BitsPerSample/8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // data size in bytes
}

// NewHeader creates a PCM WAV header for the given parameters.
func NewHeader(sampleRate, channels, dataSize int) Header {
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	return Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + dataSize),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataSize),
	}
}

// QuantizeSample converts a float sample in [-1, 1] to a signed 16-bit
// value. Negative samples scale by 32768 and positive by 32767, so both
// rails of the float range land exactly on the integer rails.
func QuantizeSample(s float32) int16 {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// Encode converts float32 samples to a complete WAV file.
func Encode(samples []float32, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav: invalid sample rate %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("wav: invalid channel count %d", channels)
	}

	dataSize := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+dataSize))

	header := NewHeader(sampleRate, channels, dataSize)
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("wav: failed to write header: %w", err)
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = QuantizeSample(s)
	}
	if err := binary.Write(buf, binary.LittleEndian, pcm); err != nil {
		return nil, fmt.Errorf("wav: failed to write samples: %w", err)
	}

	return buf.Bytes(), nil
}

// EncodeTo writes the WAV file to w instead of returning bytes.
func EncodeTo(w io.Writer, samples []float32, sampleRate, channels int) error {
	data, err := Encode(samples, sampleRate, channels)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Info describes a decoded WAV file.
type Info struct {
	SampleRate int
	Channels   int
	Samples    int // per channel
}

// Duration returns the audio duration.
func (i Info) Duration() time.Duration {
	if i.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(i.Samples) / float64(i.SampleRate) * float64(time.Second))
}

// Decode parses a 16-bit PCM WAV file into float32 samples in [-1, 1].
// Dequantization mirrors the encoder: negative values divide by 32768
// and non-negative by 32767.
func Decode(data []byte) ([]float32, Info, error) {
	header, err := parseHeader(data)
	if err != nil {
		return nil, Info{}, err
	}

	pcmData := data[HeaderSize:]
	if len(pcmData) > int(header.Subchunk2Size) {
		pcmData = pcmData[:header.Subchunk2Size]
	}

	n := len(pcmData) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcmData[i*2:]))
		if v < 0 {
			samples[i] = float32(v) / 32768
		} else {
			samples[i] = float32(v) / 32767
		}
	}

	info := Info{
		SampleRate: int(header.SampleRate),
		Channels:   int(header.NumChannels),
		Samples:    n / int(header.NumChannels),
	}
	return samples, info, nil
}

// Validate checks that data is a well-formed 16-bit PCM WAV file.
func Validate(data []byte) error {
	_, err := parseHeader(data)
	return err
}

func parseHeader(data []byte) (Header, error) {
	var header Header
	if len(data) < HeaderSize {
		return header, fmt.Errorf("wav: file too short: %d bytes", len(data))
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &header); err != nil {
		return header, fmt.Errorf("wav: failed to read header: %w", err)
	}
	if string(header.ChunkID[:]) != "RIFF" {
		return header, fmt.Errorf("wav: missing RIFF marker")
	}
	if string(header.Format[:]) != "WAVE" {
		return header, fmt.Errorf("wav: missing WAVE marker")
	}
	if header.AudioFormat != 1 {
		return header, fmt.Errorf("wav: unsupported audio format %d, want PCM", header.AudioFormat)
	}
	if header.BitsPerSample != 16 {
		return header, fmt.Errorf("wav: unsupported bit depth %d, want 16", header.BitsPerSample)
	}
	if header.NumChannels == 0 {
		return header, fmt.Errorf("wav: zero channels")
	}
	if string(header.Subchunk2ID[:]) != "data" {
		return header, fmt.Errorf("wav: missing data chunk")
	}
	return header, nil
}
