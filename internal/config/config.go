package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Monitor   MonitorConfig   `yaml:"monitor" json:"monitor"`
	Audio     AudioConfig     `yaml:"audio" json:"audio"`
	Streaming StreamingConfig `yaml:"streaming" json:"streaming"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ServerConfig contains streaming server configuration
type ServerConfig struct {
	BindAddress string `yaml:"bind_address" json:"bind_address"`
	Port        int    `yaml:"port" json:"port"`
}

// MonitorConfig contains the monitoring API server configuration
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Port    int    `yaml:"port" json:"port"`
}

// AudioConfig describes the captured audio source
type AudioConfig struct {
	SampleRate   int    `yaml:"sample_rate" json:"sample_rate"`
	SampleFormat string `yaml:"sample_format" json:"sample_format"` // i16, i24 or f32
	Channels     int    `yaml:"channels" json:"channels"`
}

// StreamingConfig contains the per-connection streaming defaults.
// These are read fresh for every incoming request, so changes apply
// to the next connection rather than existing ones.
type StreamingConfig struct {
	Format        string `yaml:"format" json:"format"` // flac, wav, rf64 or lpcm
	BitsPerSample int    `yaml:"bits_per_sample" json:"bits_per_sample"`
	UseWaveFormat bool   `yaml:"use_wave_format" json:"use_wave_format"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress: "0.0.0.0",
			Port:        5901,
		},
		Monitor: MonitorConfig{
			Enabled: true,
			Address: "127.0.0.1",
			Port:    5902,
		},
		Audio: AudioConfig{
			SampleRate:   44100,
			SampleFormat: "f32",
			Channels:     2,
		},
		Streaming: StreamingConfig{
			Format:        "flac",
			BitsPerSample: 16,
			UseWaveFormat: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses the configuration file, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// applyEnvOverrides lets deployment environments adjust the listening
// endpoints and log level without editing the YAML file.
func (c *Config) applyEnvOverrides() {
	c.Server.BindAddress = getEnv("SWYH_BIND_ADDRESS", c.Server.BindAddress)
	c.Server.Port = getEnvInt("SWYH_PORT", c.Server.Port)
	c.Monitor.Address = getEnv("SWYH_MONITOR_ADDRESS", c.Monitor.Address)
	c.Monitor.Port = getEnvInt("SWYH_MONITOR_PORT", c.Monitor.Port)
	c.Logging.Level = getEnv("SWYH_LOG_LEVEL", c.Logging.Level)
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is unset or empty.
func getEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// getEnvInt returns the integer value of the environment variable named by
// key, or fallback if the variable is unset, empty, or not a valid integer.
func getEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// Validate performs validation of the complete configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Monitor.Validate(); err != nil {
		return fmt.Errorf("monitor config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Streaming.Validate(); err != nil {
		return fmt.Errorf("streaming config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates streaming server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	return nil
}

// Validate validates monitor configuration
func (m *MonitorConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", m.Port)
		}

		if m.Address == "" {
			return fmt.Errorf("address cannot be empty when the monitor is enabled")
		}
	}

	return nil
}

// Validate validates audio source configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", a.SampleRate)
	}

	validFormats := map[string]bool{"i16": true, "i24": true, "f32": true}
	if !validFormats[a.SampleFormat] {
		return fmt.Errorf("sample_format must be one of [i16, i24, f32], got '%s'", a.SampleFormat)
	}

	if a.Channels != 2 {
		return fmt.Errorf("channels must be 2 (stereo renderers), got %d", a.Channels)
	}

	return nil
}

// Validate validates streaming defaults
func (s *StreamingConfig) Validate() error {
	validFormats := map[string]bool{"lpcm": true, "wav": true, "rf64": true, "flac": true}
	if !validFormats[s.Format] {
		return fmt.Errorf("format must be one of [lpcm, wav, rf64, flac], got '%s'", s.Format)
	}

	if s.BitsPerSample != 16 && s.BitsPerSample != 24 {
		return fmt.Errorf("bits_per_sample must be 16 or 24, got %d", s.BitsPerSample)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}
