// Package protocol implements the wire format spoken between clients and the
// server: newline-delimited frames, each carrying one flat JSON object.
package protocol

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// MaxFrameSize caps a single frame. A longer line is a framing violation and
// fatal for the connection that sent it.
const MaxFrameSize = 256 * 1024

// ErrFrameTooLarge is returned by ReadFrame when a frame exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("protocol: frame exceeds maximum size")

// Framer reads and writes newline-delimited frames over a byte stream.
//
// ReadFrame must only be called from a single goroutine (the connection's
// session loop). WriteFrame is safe for concurrent use: the router pushes
// frames from other connections' goroutines, and a mutex keeps every frame a
// single atomic write.
type Framer struct {
	scanner *bufio.Scanner

	wmu sync.Mutex
	w   io.Writer
}

// NewFramer wraps a byte stream in a Framer.
func NewFramer(rw io.ReadWriter) *Framer {
	sc := bufio.NewScanner(rw)
	sc.Buffer(make([]byte, 0, 4096), MaxFrameSize)
	return &Framer{scanner: sc, w: rw}
}

// ReadFrame blocks until a complete frame is available and returns it without
// its trailing newline. When the stream ends cleanly it returns io.EOF; any
// other error (including ErrFrameTooLarge) is fatal for the connection.
func (f *Framer) ReadFrame() (string, error) {
	if !f.scanner.Scan() {
		if err := f.scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return "", ErrFrameTooLarge
			}
			return "", err
		}
		return "", io.EOF
	}
	return f.scanner.Text(), nil
}

// WriteFrame writes one frame followed by a newline as a single write.
func (f *Framer) WriteFrame(frame string) error {
	f.wmu.Lock()
	defer f.wmu.Unlock()
	_, err := f.w.Write(append([]byte(frame), '\n'))
	return err
}
