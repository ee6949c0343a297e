package protocol

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
)

func TestFramerReadWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	f := NewFramer(&buf)

	frames := []string{
		`{"type":"7ekey"}`,
		`{"type":"login","username":"alice","password":"pw"}`,
	}
	for _, fr := range frames {
		if err := f.WriteFrame(fr); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}

	for _, want := range frames {
		got, err := f.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		if got != want {
			t.Fatalf("frame mismatch: got %q want %q", got, want)
		}
	}

	if _, err := f.ReadFrame(); err != io.EOF {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestFramerStripsCarriageReturn(t *testing.T) {
	f := NewFramer(readWriter{strings.NewReader("{\"type\":\"exit\"}\r\n"), io.Discard})
	got, err := f.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if got != `{"type":"exit"}` {
		t.Fatalf("expected CR stripped, got %q", got)
	}
}

func TestFramerRejectsOversizedFrame(t *testing.T) {
	long := strings.Repeat("a", MaxFrameSize+1) + "\n"
	f := NewFramer(readWriter{strings.NewReader(long), io.Discard})
	if _, err := f.ReadFrame(); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

// Concurrent writers must never interleave partial frames.
func TestFramerConcurrentWrites(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	f := NewFramer(server)
	const writers = 8
	const perWriter = 20

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			frame := strings.Repeat(string(rune('a'+n)), 100)
			for j := 0; j < perWriter; j++ {
				if err := f.WriteFrame(frame); err != nil {
					return
				}
			}
		}(i)
	}

	reader := NewFramer(client)
	for i := 0; i < writers*perWriter; i++ {
		frame, err := reader.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		if len(frame) != 100 || strings.Count(frame, frame[:1]) != 100 {
			t.Fatalf("frame %d interleaved: %q", i, frame)
		}
	}
	wg.Wait()
}

type readWriter struct {
	io.Reader
	io.Writer
}
