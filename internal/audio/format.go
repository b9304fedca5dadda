package audio

import (
	"fmt"
	"math"
	"strings"
)

// Format identifies the container/encoding negotiated for a streaming response
type Format int

const (
	FormatLPCM Format = iota
	FormatWAV
	FormatRF64
	FormatFLAC
)

// String returns the canonical name of the format
func (f Format) String() string {
	switch f {
	case FormatLPCM:
		return "LPCM"
	case FormatWAV:
		return "WAV"
	case FormatRF64:
		return "RF64"
	case FormatFLAC:
		return "FLAC"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// ParseFormat converts a configuration string into a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "lpcm", "raw":
		return FormatLPCM, nil
	case "wav":
		return FormatWAV, nil
	case "rf64":
		return FormatRF64, nil
	case "flac":
		return FormatFLAC, nil
	default:
		return 0, fmt.Errorf("unknown streaming format '%s'", s)
	}
}

// SampleFormat identifies the sample encoding of the captured source audio
type SampleFormat int

const (
	SampleI16 SampleFormat = iota
	SampleI24
	SampleF32
)

// String returns the canonical name of the sample format
func (s SampleFormat) String() string {
	switch s {
	case SampleI16:
		return "i16"
	case SampleI24:
		return "i24"
	case SampleF32:
		return "f32"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ParseSampleFormat converts a configuration string into a SampleFormat
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(s) {
	case "i16":
		return SampleI16, nil
	case "i24":
		return SampleI24, nil
	case "f32":
		return SampleF32, nil
	default:
		return 0, fmt.Errorf("unknown sample format '%s'", s)
	}
}

// SourceDescriptor describes the captured audio source. It is read once at
// server startup and treated as immutable for the life of the instance.
type SourceDescriptor struct {
	SampleRate   int
	SampleFormat SampleFormat
	Channels     int
}

// The four resource paths renderers may request. Matching is case-insensitive.
const (
	PathWAV  = "/stream/swyh.wav"
	PathRaw  = "/stream/swyh.raw"
	PathFLAC = "/stream/swyh.flac"
	PathRF64 = "/stream/swyh.rf64"
)

// PathFormat maps a requested resource path to its implied format and bit
// depth. ok is false for any path outside the recognized set.
func PathFormat(path string) (format Format, bits int, ok bool) {
	switch strings.ToLower(path) {
	case PathWAV:
		return FormatWAV, 16, true
	case PathRaw:
		return FormatLPCM, 16, true
	case PathFLAC:
		return FormatFLAC, 24, true
	case PathRF64:
		return FormatRF64, 16, true
	default:
		return 0, 0, false
	}
}

// Negotiate resolves the format actually served for a request. When the
// path-implied format differs from the configured default the client's
// explicit request wins; otherwise the configured default pair is used.
func Negotiate(path string, defaultFormat Format, defaultBits int) (format Format, bits int, ok bool) {
	reqFormat, reqBits, ok := PathFormat(path)
	if !ok {
		return 0, 0, false
	}

	if reqFormat != defaultFormat {
		return reqFormat, reqBits, true
	}
	return defaultFormat, defaultBits, true
}

// ContentType returns the exact content type string for the negotiated
// format. Renderers are picky about these values.
func ContentType(format Format, bits, sampleRate int) string {
	switch format {
	case FormatFLAC:
		return "audio/flac"
	case FormatWAV, FormatRF64:
		return "audio/vnd.wave;codec=1"
	default:
		if bits == 24 {
			return fmt.Sprintf("audio/L24;rate=%d;channels=2", sampleRate)
		}
		return fmt.Sprintf("audio/L16;rate=%d;channels=2", sampleRate)
	}
}

// ContentLength returns the sentinel body length advertised for an unbounded
// live stream. The true length is unknown, so a huge fixed value is declared
// instead of falling back to chunked transfer encoding, which some renderers
// cannot parse. WAV stays within 32-bit RIFF limits.
func ContentLength(format Format) uint64 {
	if format == FormatWAV {
		return math.MaxUint32 - 1
	}
	return math.MaxInt64 - 1
}

// EncodePCM converts float32 capture frames in [-1, 1] into little-endian
// PCM bytes at the given bit depth (16 or 24).
func EncodePCM(samples []float32, bits int) []byte {
	if bits == 24 {
		out := make([]byte, len(samples)*3)
		for i, s := range samples {
			v := clampSample(s) * float32(1<<23-1)
			n := int32(v)
			out[i*3] = byte(n)
			out[i*3+1] = byte(n >> 8)
			out[i*3+2] = byte(n >> 16)
		}
		return out
	}

	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := clampSample(s) * float32(math.MaxInt16)
		n := int16(v)
		out[i*2] = byte(n)
		out[i*2+1] = byte(uint16(n) >> 8)
	}
	return out
}

func clampSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
