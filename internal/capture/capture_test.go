package capture

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ein-shved/swyh-rs/internal/audio"
	"github.com/ein-shved/swyh-rs/internal/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSilenceSourceFrameSize(t *testing.T) {
	desc := audio.SourceDescriptor{SampleRate: 44100, SampleFormat: audio.SampleF32, Channels: 2}
	src := NewSilenceSource(desc)

	frame := src.ReadFrame()
	// 10ms of stereo audio at 44.1kHz
	if want := 44100 * 2 / 100; len(frame) != want {
		t.Errorf("Frame size = %d samples, want %d", len(frame), want)
	}

	for i, s := range frame {
		if s != 0 {
			t.Fatalf("Sample %d = %f, want silence", i, s)
		}
	}
}

func TestPumpFeedsConnectedSession(t *testing.T) {
	logger := testLogger()
	registry := stream.NewRegistry(logger)

	cs := audio.NewChannelStream("192.168.1.20", false, 44100, 16, audio.FormatLPCM)
	registry.Add(&stream.Session{
		ID:         uuid.New(),
		RemoteAddr: "192.168.1.20:50000",
		RemoteIP:   "192.168.1.20",
		StartTime:  time.Now(),
		Stream:     cs,
	})

	desc := audio.SourceDescriptor{SampleRate: 44100, SampleFormat: audio.SampleF32, Channels: 2}
	pump := NewPump(NewSilenceSource(desc), registry, logger, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pump.Run(ctx)

	// One 10ms frame of 16-bit stereo silence is 1764 bytes.
	buf := make([]byte, 1764)
	done := make(chan error, 1)
	go func() {
		_, err := cs.Read(buf)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Pump did not deliver a frame")
	}

	for i, b := range buf {
		if b != 0 {
			t.Fatalf("Byte %d = %#x, want silence", i, b)
		}
	}
}

func TestPumpStopsOnCancel(t *testing.T) {
	logger := testLogger()
	registry := stream.NewRegistry(logger)

	desc := audio.SourceDescriptor{SampleRate: 44100, SampleFormat: audio.SampleF32, Channels: 2}
	pump := NewPump(NewSilenceSource(desc), registry, logger, 16)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		pump.Run(ctx)
		close(stopped)
	}()

	cancel()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Pump did not stop on context cancel")
	}
}
