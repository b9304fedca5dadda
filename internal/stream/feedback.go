package stream

import "log/slog"

// State is a session lifecycle transition reported to the control loop.
type State int

const (
	StateStarted State = iota
	StateEnded
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateStarted:
		return "Started"
	case StateEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// Event is one session lifecycle notification. For a given session the
// Started event always precedes the Ended event; events from different
// sessions interleave arbitrarily.
type Event struct {
	RemoteIP string
	State    State
}

// Feedback is a fire-and-forget event channel from handler goroutines to the
// application control loop. Sends never block: if the consumer is gone or
// lagging the event is dropped with a log line, which is the only action the
// sender can usefully take.
type Feedback struct {
	ch     chan Event
	logger *slog.Logger
}

// NewFeedback creates a feedback channel with the given buffer capacity.
func NewFeedback(capacity int, logger *slog.Logger) *Feedback {
	return &Feedback{
		ch:     make(chan Event, capacity),
		logger: logger,
	}
}

// Notify delivers an event without blocking the caller.
func (f *Feedback) Notify(ev Event) {
	select {
	case f.ch <- ev:
	default:
		f.logger.Warn("Feedback event dropped, consumer not keeping up",
			slog.String("remote_ip", ev.RemoteIP),
			slog.String("state", ev.State.String()),
		)
	}
}

// Events returns the consumer side of the channel.
func (f *Feedback) Events() <-chan Event {
	return f.ch
}
