package audio

import (
	"io"
	"sync"
)

// ChannelStream is the outbound sample channel for one connected renderer.
// The audio pipeline pushes encoded sample buffers on one side; the HTTP
// handler reads them as a byte stream on the other, blocking while the queue
// is empty. The queue is unbounded: a stalled renderer grows it until its
// connection dies and the session is removed.
type ChannelStream struct {
	remoteIP   string
	format     Format
	sampleRate int
	bits       int
	useWave    bool

	mu         sync.Mutex
	cond       *sync.Cond
	queue      [][]byte
	queued     int
	cur        []byte
	headerSent bool
	stopped    bool
}

// NewChannelStream creates a channel stream for one renderer connection.
// useWave selects canonical WAV framing for LPCM responses.
func NewChannelStream(remoteIP string, useWave bool, sampleRate, bits int, format Format) *ChannelStream {
	cs := &ChannelStream{
		remoteIP:   remoteIP,
		format:     format,
		sampleRate: sampleRate,
		bits:       bits,
		useWave:    useWave,
	}
	cs.cond = sync.NewCond(&cs.mu)
	return cs
}

// RemoteIP returns the renderer address this stream belongs to.
func (cs *ChannelStream) RemoteIP() string {
	return cs.remoteIP
}

// Format returns the negotiated streaming format.
func (cs *ChannelStream) Format() Format {
	return cs.format
}

// Push appends an encoded sample buffer for the renderer. The buffer must
// not be modified by the caller afterwards. Pushes after Stop are dropped.
func (cs *ChannelStream) Push(buf []byte) {
	if len(buf) == 0 {
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.stopped {
		return
	}

	cs.queue = append(cs.queue, buf)
	cs.queued += len(buf)
	cs.cond.Signal()
}

// Read implements io.Reader for the HTTP body writer. It blocks until
// samples are available and returns io.EOF once the stream has been stopped
// and drained. WAV, RF64 and wave-framed LPCM streams yield their container
// header before any sample data.
func (cs *ChannelStream) Read(p []byte) (int, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.headerSent {
		cs.headerSent = true
		if cs.needsHeader() {
			header, err := NewStreamHeader(cs.format, cs.sampleRate, cs.bits, 2)
			if err != nil {
				return 0, err
			}
			cs.cur = header
		}
	}

	for {
		if len(cs.cur) > 0 {
			n := copy(p, cs.cur)
			cs.cur = cs.cur[n:]
			return n, nil
		}

		if len(cs.queue) > 0 {
			cs.cur = cs.queue[0]
			cs.queue = cs.queue[1:]
			cs.queued -= len(cs.cur)
			continue
		}

		if cs.stopped {
			return 0, io.EOF
		}

		cs.cond.Wait()
	}
}

// Stop releases the stream: queued buffers are dropped, blocked readers wake
// up and observe io.EOF, and further pushes are ignored. Safe to call more
// than once.
func (cs *ChannelStream) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.stopped {
		return
	}

	cs.stopped = true
	cs.queue = nil
	cs.queued = 0
	cs.cur = nil
	cs.cond.Broadcast()
}

// Queued reports the number of buffered bytes not yet read by the renderer.
func (cs *ChannelStream) Queued() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.queued
}

func (cs *ChannelStream) needsHeader() bool {
	switch cs.format {
	case FormatWAV, FormatRF64:
		return true
	case FormatLPCM:
		return cs.useWave
	default:
		return false
	}
}
