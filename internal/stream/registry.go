package stream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ein-shved/swyh-rs/internal/audio"
)

// Session is one active streaming response to one connected renderer.
type Session struct {
	ID            uuid.UUID
	RemoteAddr    string // addr:port, unique per live connection
	RemoteIP      string // bare address used for feedback and logs
	Format        audio.Format
	BitsPerSample int
	StartTime     time.Time
	Stream        *audio.ChannelStream
}

// SessionInfo is the monitoring view of a session.
type SessionInfo struct {
	ID            string        `json:"id"`
	RemoteAddr    string        `json:"remote_addr"`
	RemoteIP      string        `json:"remote_ip"`
	Format        string        `json:"format"`
	BitsPerSample int           `json:"bits_per_sample"`
	StartTime     time.Time     `json:"start_time"`
	Duration      time.Duration `json:"duration"`
	QueuedBytes   int           `json:"queued_bytes"`
}

// Registry is the shared mapping from connection identity to outbound sample
// channel. Handler goroutines insert and remove their own entries; the audio
// pipeline fans captured buffers out to every entry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Add registers a session under its remote address and returns the new
// registry size. A connection identity is unique per live TCP connection, so
// an existing entry under the same key is a stale leftover and is replaced
// after stopping its stream.
func (r *Registry) Add(s *Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.sessions[s.RemoteAddr]; exists {
		r.logger.Warn("Replacing stale session",
			slog.String("remote_addr", s.RemoteAddr),
			slog.String("old_session_id", old.ID.String()),
		)
		old.Stream.Stop()
	}

	r.sessions[s.RemoteAddr] = s
	return len(r.sessions)
}

// Remove deletes the session registered under remoteAddr, stopping its
// channel stream, and returns the remaining registry size. The second return
// is false when no entry existed.
func (r *Registry) Remove(remoteAddr string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[remoteAddr]
	if !exists {
		return len(r.sessions), false
	}

	s.Stream.Stop()
	delete(r.sessions, remoteAddr)
	return len(r.sessions), true
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Broadcast pushes one encoded sample buffer to every active session. The
// buffer is shared between sessions and must not be modified afterwards.
func (r *Registry) Broadcast(buf []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		s.Stream.Push(buf)
	}
}

// Snapshot returns monitoring information for all active sessions.
func (r *Registry) Snapshot() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, SessionInfo{
			ID:            s.ID.String(),
			RemoteAddr:    s.RemoteAddr,
			RemoteIP:      s.RemoteIP,
			Format:        s.Format.String(),
			BitsPerSample: s.BitsPerSample,
			StartTime:     s.StartTime,
			Duration:      time.Since(s.StartTime),
			QueuedBytes:   s.Stream.Queued(),
		})
	}

	return infos
}
