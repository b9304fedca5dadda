package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// wavHeader represents the 44-byte header of a canonical WAV stream
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// ds64Chunk carries the 64-bit sizes of an RF64 stream
type ds64Chunk struct {
	ChunkID     [4]byte // "ds64"
	ChunkSize   uint32  // 28
	RIFFSize    uint64
	DataSize    uint64
	SampleCount uint64
}

// NewStreamHeader builds the container header emitted at the start of a live
// stream body. The stream has no known end, so the size fields carry
// near-maximum sentinel values: 32-bit for WAV (and LPCM served with wave
// framing), 64-bit via a ds64 chunk for RF64. FLAC bodies carry no container
// header here because the encoder produces its own framing.
func NewStreamHeader(format Format, sampleRate, bits, channels int) ([]byte, error) {
	if bits != 16 && bits != 24 {
		return nil, fmt.Errorf("unsupported bit depth %d", bits)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	switch format {
	case FormatWAV, FormatLPCM:
		return encodeWAVStreamHeader(sampleRate, bits, channels)
	case FormatRF64:
		return encodeRF64StreamHeader(sampleRate, bits, channels)
	default:
		return nil, fmt.Errorf("format %s has no container header", format)
	}
}

func encodeWAVStreamHeader(sampleRate, bits, channels int) ([]byte, error) {
	dataSize := uint32(math.MaxUint32) - 44

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     dataSize + 36,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(channels) * uint32(bits) / 8,
		BlockAlign:    uint16(channels) * uint16(bits) / 8,
		BitsPerSample: uint16(bits),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	return buf.Bytes(), nil
}

func encodeRF64StreamHeader(sampleRate, bits, channels int) ([]byte, error) {
	// RF64 marks the 32-bit RIFF size fields as 0xFFFFFFFF and moves the
	// real (here sentinel) sizes into the ds64 chunk.
	const unknown32 = uint32(math.MaxUint32)
	dataSize := uint64(math.MaxInt64) - 80

	buf := bytes.NewBuffer(make([]byte, 0, 80))

	buf.WriteString("RF64")
	if err := binary.Write(buf, binary.LittleEndian, unknown32); err != nil {
		return nil, fmt.Errorf("failed to write RF64 header: %w", err)
	}
	buf.WriteString("WAVE")

	ds64 := ds64Chunk{
		ChunkID:     [4]byte{'d', 's', '6', '4'},
		ChunkSize:   28,
		RIFFSize:    dataSize + 72,
		DataSize:    dataSize,
		SampleCount: dataSize / uint64(channels*bits/8),
	}
	if err := binary.Write(buf, binary.LittleEndian, ds64); err != nil {
		return nil, fmt.Errorf("failed to write ds64 chunk: %w", err)
	}

	fmtChunk := struct {
		ChunkID       [4]byte
		ChunkSize     uint32
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}{
		ChunkID:       [4]byte{'f', 'm', 't', ' '},
		ChunkSize:     16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(channels) * uint32(bits) / 8,
		BlockAlign:    uint16(channels) * uint16(bits) / 8,
		BitsPerSample: uint16(bits),
	}
	if err := binary.Write(buf, binary.LittleEndian, fmtChunk); err != nil {
		return nil, fmt.Errorf("failed to write fmt chunk: %w", err)
	}

	buf.WriteString("data")
	if err := binary.Write(buf, binary.LittleEndian, unknown32); err != nil {
		return nil, fmt.Errorf("failed to write data chunk header: %w", err)
	}

	return buf.Bytes(), nil
}
