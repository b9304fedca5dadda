package audio

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestChannelStreamDeliversPushedBytes(t *testing.T) {
	cs := NewChannelStream("192.168.1.20", false, 44100, 16, FormatLPCM)

	cs.Push([]byte{1, 2, 3})
	cs.Push([]byte{4, 5})

	buf := make([]byte, 16)
	n, err := cs.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte{1, 2, 3}) {
		t.Errorf("First read = % x, want 01 02 03", buf[:n])
	}

	n, err = cs.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte{4, 5}) {
		t.Errorf("Second read = % x, want 04 05", buf[:n])
	}

	cs.Stop()
	if _, err := cs.Read(buf); err != io.EOF {
		t.Errorf("Expected io.EOF after Stop, got %v", err)
	}
}

func TestChannelStreamBlocksUntilPush(t *testing.T) {
	cs := NewChannelStream("192.168.1.20", false, 44100, 16, FormatLPCM)

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 8)
		n, err := cs.Read(buf)
		if err != nil {
			got <- nil
			return
		}
		got <- append([]byte(nil), buf[:n]...)
	}()

	// Give the reader time to block on the empty queue.
	time.Sleep(20 * time.Millisecond)
	cs.Push([]byte{9, 8, 7})

	select {
	case data := <-got:
		if !bytes.Equal(data, []byte{9, 8, 7}) {
			t.Errorf("Read returned % x, want 09 08 07", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not wake up after Push")
	}
}

func TestChannelStreamStopWakesReader(t *testing.T) {
	cs := NewChannelStream("192.168.1.20", false, 44100, 16, FormatLPCM)

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 8)
		_, err := cs.Read(buf)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cs.Stop()

	select {
	case err := <-done:
		if err != io.EOF {
			t.Errorf("Expected io.EOF, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Blocked reader was not woken by Stop")
	}
}

func TestChannelStreamStopIdempotent(t *testing.T) {
	cs := NewChannelStream("192.168.1.20", false, 44100, 16, FormatLPCM)
	cs.Stop()
	cs.Stop()

	// Pushes after Stop are dropped.
	cs.Push([]byte{1})
	if cs.Queued() != 0 {
		t.Errorf("Expected empty queue after Stop, got %d bytes", cs.Queued())
	}
}

func TestChannelStreamWAVHeaderFirst(t *testing.T) {
	cs := NewChannelStream("192.168.1.20", false, 44100, 16, FormatWAV)
	cs.Push([]byte{1, 2, 3, 4})

	header := make([]byte, 44)
	if _, err := io.ReadFull(cs, header); err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}

	if string(header[0:4]) != "RIFF" {
		t.Errorf("WAV body must open with RIFF header, got %q", header[0:4])
	}

	buf := make([]byte, 8)
	n, err := cs.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte{1, 2, 3, 4}) {
		t.Errorf("Sample data after header = % x, want 01 02 03 04", buf[:n])
	}
}

func TestChannelStreamRF64HeaderFirst(t *testing.T) {
	cs := NewChannelStream("192.168.1.20", false, 44100, 16, FormatRF64)
	cs.Push([]byte{1})

	header := make([]byte, 4)
	if _, err := io.ReadFull(cs, header); err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}
	if string(header) != "RF64" {
		t.Errorf("RF64 body must open with RF64 marker, got %q", header)
	}
}

func TestChannelStreamLPCMWaveFraming(t *testing.T) {
	// LPCM with the wave-framing flag opens with a canonical WAV header.
	cs := NewChannelStream("192.168.1.20", true, 44100, 16, FormatLPCM)
	cs.Push([]byte{1})

	header := make([]byte, 4)
	if _, err := io.ReadFull(cs, header); err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}
	if string(header) != "RIFF" {
		t.Errorf("Wave-framed LPCM must open with RIFF, got %q", header)
	}
}

func TestChannelStreamRawLPCMNoHeader(t *testing.T) {
	cs := NewChannelStream("192.168.1.20", false, 44100, 16, FormatLPCM)
	cs.Push([]byte{0x42})

	buf := make([]byte, 8)
	n, err := cs.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 1 || buf[0] != 0x42 {
		t.Errorf("Raw LPCM first read = % x, want 42", buf[:n])
	}
}

func TestChannelStreamQueued(t *testing.T) {
	cs := NewChannelStream("192.168.1.20", false, 44100, 16, FormatLPCM)

	cs.Push(make([]byte, 100))
	cs.Push(make([]byte, 50))

	if cs.Queued() != 150 {
		t.Errorf("Queued = %d, want 150", cs.Queued())
	}

	buf := make([]byte, 100)
	if _, err := cs.Read(buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if cs.Queued() != 50 {
		t.Errorf("Queued after read = %d, want 50", cs.Queued())
	}
}
