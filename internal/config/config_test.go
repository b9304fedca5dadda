package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTempConfig writes a YAML config file into a test temp dir
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, `
server:
  bind_address: "192.168.1.10"
  port: 5901
monitor:
  enabled: true
  address: "127.0.0.1"
  port: 5902
audio:
  sample_rate: 48000
  sample_format: "f32"
  channels: 2
streaming:
  format: "lpcm"
  bits_per_sample: 24
  use_wave_format: true
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.BindAddress != "192.168.1.10" {
		t.Errorf("Expected bind_address 192.168.1.10, got %s", cfg.Server.BindAddress)
	}

	if cfg.Server.Port != 5901 {
		t.Errorf("Expected port 5901, got %d", cfg.Server.Port)
	}

	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Expected sample_rate 48000, got %d", cfg.Audio.SampleRate)
	}

	if cfg.Streaming.Format != "lpcm" {
		t.Errorf("Expected streaming format lpcm, got %s", cfg.Streaming.Format)
	}

	if cfg.Streaming.BitsPerSample != 24 {
		t.Errorf("Expected bits_per_sample 24, got %d", cfg.Streaming.BitsPerSample)
	}

	if !cfg.Streaming.UseWaveFormat {
		t.Error("Expected use_wave_format true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	// A minimal file should inherit every default not overridden.
	path := writeTempConfig(t, `
server:
  port: 6000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Expected port 6000, got %d", cfg.Server.Port)
	}

	def := Default()
	if cfg.Server.BindAddress != def.Server.BindAddress {
		t.Errorf("Expected default bind_address %s, got %s", def.Server.BindAddress, cfg.Server.BindAddress)
	}

	if cfg.Streaming.Format != "flac" {
		t.Errorf("Expected default streaming format flac, got %s", cfg.Streaming.Format)
	}

	if cfg.Streaming.BitsPerSample != 16 {
		t.Errorf("Expected default bits_per_sample 16, got %d", cfg.Streaming.BitsPerSample)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SWYH_PORT", "7001")
	t.Setenv("SWYH_LOG_LEVEL", "warn")

	path := writeTempConfig(t, `
server:
  port: 5901
logging:
  level: info
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 7001 {
		t.Errorf("Expected env override port 7001, got %d", cfg.Server.Port)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected env override level warn, got %s", cfg.Logging.Level)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server config",
		},
		{
			name:    "empty bind address",
			mutate:  func(c *Config) { c.Server.BindAddress = "" },
			wantErr: "bind_address",
		},
		{
			name:    "bad sample rate",
			mutate:  func(c *Config) { c.Audio.SampleRate = 100 },
			wantErr: "sample_rate",
		},
		{
			name:    "bad sample format",
			mutate:  func(c *Config) { c.Audio.SampleFormat = "u8" },
			wantErr: "sample_format",
		},
		{
			name:    "mono source",
			mutate:  func(c *Config) { c.Audio.Channels = 1 },
			wantErr: "channels",
		},
		{
			name:    "unknown streaming format",
			mutate:  func(c *Config) { c.Streaming.Format = "ogg" },
			wantErr: "format",
		},
		{
			name:    "unsupported bit depth",
			mutate:  func(c *Config) { c.Streaming.BitsPerSample = 32 },
			wantErr: "bits_per_sample",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "level",
		},
		{
			name:    "monitor without address",
			mutate:  func(c *Config) { c.Monitor.Enabled = true; c.Monitor.Address = "" },
			wantErr: "monitor config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewStore(Default())

	snap := store.Streaming()
	if snap.Format != "flac" {
		t.Fatalf("Expected initial format flac, got %s", snap.Format)
	}

	if err := store.UpdateStreaming(StreamingConfig{
		Format:        "lpcm",
		BitsPerSample: 24,
		UseWaveFormat: true,
	}); err != nil {
		t.Fatalf("UpdateStreaming failed: %v", err)
	}

	// The earlier snapshot must not observe the update.
	if snap.Format != "flac" {
		t.Errorf("Old snapshot changed, got format %s", snap.Format)
	}

	next := store.Streaming()
	if next.Format != "lpcm" || next.BitsPerSample != 24 || !next.UseWaveFormat {
		t.Errorf("New snapshot missing update: %+v", next)
	}
}

func TestStoreUpdateRejectsInvalid(t *testing.T) {
	store := NewStore(Default())

	err := store.UpdateStreaming(StreamingConfig{Format: "ogg", BitsPerSample: 16})
	if err == nil {
		t.Fatal("Expected error for invalid streaming update")
	}

	if store.Streaming().Format != "flac" {
		t.Error("Invalid update must leave the store unchanged")
	}
}
