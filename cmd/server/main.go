package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ein-shved/swyh-rs/internal/audio"
	"github.com/ein-shved/swyh-rs/internal/capture"
	"github.com/ein-shved/swyh-rs/internal/config"
	"github.com/ein-shved/swyh-rs/internal/metrics"
	"github.com/ein-shved/swyh-rs/internal/server"
	"github.com/ein-shved/swyh-rs/internal/stream"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "swyh-rs"
	serviceVersion    = "1.0.0"

	shutdownTimeout = 10 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Optional .env file for deployment overrides.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	sampleFormat, err := audio.ParseSampleFormat(cfg.Audio.SampleFormat)
	if err != nil {
		logger.Error("Invalid audio configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	source := audio.SourceDescriptor{
		SampleRate:   cfg.Audio.SampleRate,
		SampleFormat: sampleFormat,
		Channels:     cfg.Audio.Channels,
	}

	logger.Info("Configuration loaded",
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("port", cfg.Server.Port),
		slog.Int("sample_rate", source.SampleRate),
		slog.String("sample_format", source.SampleFormat.String()),
		slog.String("streaming_format", cfg.Streaming.Format),
		slog.Int("bits_per_sample", cfg.Streaming.BitsPerSample),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics := metrics.NewMetrics()
	store := config.NewStore(cfg)
	registry := stream.NewRegistry(logger)
	feedback := stream.NewFeedback(64, logger)

	streamingServer := server.NewStreamingServer(
		cfg.Server, logger, store, registry, feedback, appMetrics, source)
	if err := streamingServer.Start(); err != nil {
		logger.Error("Failed to start streaming server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var monitor *server.Monitor
	if cfg.Monitor.Enabled {
		monitor = server.NewMonitor(cfg.Monitor, logger, store, registry, appMetrics)
		monitor.Start()
	}

	// Stand-in capture source until a platform backend is attached.
	pump := capture.NewPump(
		capture.NewSilenceSource(source), registry, logger, cfg.Streaming.BitsPerSample)
	go pump.Run(ctx)

	// Consume session lifecycle feedback from the handler goroutines.
	go consumeFeedback(ctx, feedback, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...")

	sig := <-sigChan
	logger.Info("Shutdown signal received", slog.String("signal", sig.String()))

	cancel()

	if monitor != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := monitor.Stop(shutdownCtx); err != nil {
			logger.Warn("Monitor shutdown error", slog.String("error", err.Error()))
		}
	}

	streamingServer.Stop()

	logger.Info("Service stopped")
}

// consumeFeedback reacts to session lifecycle transitions. The desktop
// application updates renderer buttons here; the service logs them.
func consumeFeedback(ctx context.Context, feedback *stream.Feedback, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-feedback.Events():
			logger.Info("Session state changed",
				slog.String("remote_ip", ev.RemoteIP),
				slog.String("state", ev.State.String()),
			)
		}
	}
}

// initLogger creates a structured logger from the logging configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
