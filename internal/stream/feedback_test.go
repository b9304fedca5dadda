package stream

import (
	"testing"
)

func TestFeedbackOrdering(t *testing.T) {
	fb := NewFeedback(16, testLogger())

	fb.Notify(Event{RemoteIP: "192.168.1.20", State: StateStarted})
	fb.Notify(Event{RemoteIP: "192.168.1.20", State: StateEnded})

	ev := <-fb.Events()
	if ev.State != StateStarted {
		t.Errorf("First event state = %s, want Started", ev.State)
	}

	ev = <-fb.Events()
	if ev.State != StateEnded {
		t.Errorf("Second event state = %s, want Ended", ev.State)
	}
}

func TestFeedbackNeverBlocks(t *testing.T) {
	// Capacity 1 and no consumer: the second notify must drop, not block.
	fb := NewFeedback(1, testLogger())

	fb.Notify(Event{RemoteIP: "192.168.1.20", State: StateStarted})
	fb.Notify(Event{RemoteIP: "192.168.1.20", State: StateEnded})

	if got := len(fb.Events()); got != 1 {
		t.Errorf("Expected 1 buffered event, got %d", got)
	}
}

func TestStateString(t *testing.T) {
	if StateStarted.String() != "Started" {
		t.Errorf("StateStarted = %s", StateStarted.String())
	}
	if StateEnded.String() != "Ended" {
		t.Errorf("StateEnded = %s", StateEnded.String())
	}
}
