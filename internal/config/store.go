package config

import "sync"

// Store holds the live configuration behind a reader/writer lock.
// Request handlers take a snapshot of the streaming section at the start of
// every connection, so an update applies to the next renderer that connects
// while connections already streaming keep the settings they started with.
type Store struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewStore creates a store seeded with the given configuration.
func NewStore(cfg *Config) *Store {
	return &Store{cfg: cfg}
}

// Snapshot returns a copy of the full configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Streaming returns a copy of the streaming defaults.
func (s *Store) Streaming() StreamingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Streaming
}

// UpdateStreaming replaces the streaming defaults after validating them.
func (s *Store) UpdateStreaming(sc StreamingConfig) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Streaming = sc
	return nil
}
