// Package config provides configuration loading and validation for the audio relay service.
// It handles YAML-based configuration with struct validation, environment overrides,
// and a thread-safe store so streaming settings can change between connections.
package config
