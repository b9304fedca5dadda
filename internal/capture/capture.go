// Package capture bridges an audio sample source into the session registry,
// fanning each captured frame out to every connected renderer. The silence
// source stands in when no capture backend is attached, so renderers still
// receive a valid, continuous stream.
package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/ein-shved/swyh-rs/internal/audio"
	"github.com/ein-shved/swyh-rs/internal/stream"
)

// frameDuration is the capture granularity. 10ms frames keep renderer
// latency low without flooding the per-session queues.
const frameDuration = 10 * time.Millisecond

// Source produces float32 sample frames in [-1, 1], interleaved stereo.
type Source interface {
	// ReadFrame fills the next frame. The returned slice is valid until the
	// next call.
	ReadFrame() []float32
}

// SilenceSource produces zeroed frames for the configured source descriptor.
type SilenceSource struct {
	frame []float32
}

// NewSilenceSource creates a silence source sized for the given descriptor.
func NewSilenceSource(desc audio.SourceDescriptor) *SilenceSource {
	samplesPerFrame := desc.SampleRate * desc.Channels / int(time.Second/frameDuration)
	return &SilenceSource{frame: make([]float32, samplesPerFrame)}
}

// ReadFrame returns a zeroed frame.
func (s *SilenceSource) ReadFrame() []float32 {
	return s.frame
}

// Pump moves frames from a source into the registry at real-time pace.
type Pump struct {
	source   Source
	registry *stream.Registry
	logger   *slog.Logger
	bits     int
}

// NewPump creates a pump encoding frames at the given bit depth.
func NewPump(source Source, registry *stream.Registry, logger *slog.Logger, bits int) *Pump {
	return &Pump{
		source:   source,
		registry: registry,
		logger:   logger,
		bits:     bits,
	}
}

// Run broadcasts frames until the context is cancelled. Frames are only
// encoded while at least one renderer is connected.
func (p *Pump) Run(ctx context.Context) {
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	p.logger.Info("Capture pump started",
		slog.Duration("frame_duration", frameDuration),
		slog.Int("bits_per_sample", p.bits),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Capture pump stopping")
			return

		case <-ticker.C:
			if p.registry.Count() == 0 {
				continue
			}
			frame := p.source.ReadFrame()
			p.registry.Broadcast(audio.EncodePCM(frame, p.bits))
		}
	}
}
