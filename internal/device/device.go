// Package device carries the line-oriented command and telemetry link to
// the host. Lines are read by a background goroutine and handed to the
// control loop one at a time without blocking.
package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the controller's USB serial link.
	DefaultBaudRate = 9600
	// DefaultBufferSize is how many complete lines may queue between cycles.
	DefaultBufferSize = 16
)

// ErrClosed is returned by WriteLine after Close.
var ErrClosed = errors.New("device closed")

// Line is a serial line device.
type Line struct {
	w io.Writer
	c io.Closer

	lines  chan string
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Open opens a serial port at baud.
func Open(port string, baud int) (*Line, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return New(p, p, p, DefaultBufferSize), nil
}

// OpenStdio uses the process's stdin and stdout as the link.
func OpenStdio() *Line {
	return New(os.Stdin, os.Stdout, nil, DefaultBufferSize)
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

// New starts reading lines from r. c, if non-nil, is closed by Close.
func New(r io.Reader, w io.Writer, c io.Closer, bufSize int) *Line {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Line{
		w:      w,
		c:      c,
		lines:  make(chan string, bufSize),
		ctx:    ctx,
		cancel: cancel,
	}
	go l.read(r)
	return l
}

// read queues newline-terminated lines. A trailing fragment without a
// newline is dropped at EOF.
func (l *Line) read(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		s, err := br.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) && l.ctx.Err() == nil {
				log.Printf("device: read: %v", err)
			}
			return
		}
		s = strings.TrimRight(s, "\r\n")
		select {
		case l.lines <- s:
		case <-l.ctx.Done():
			return
		}
	}
}

// PollLine returns the next complete line if one is waiting.
func (l *Line) PollLine() (string, bool) {
	select {
	case s := <-l.lines:
		return s, true
	default:
		return "", false
	}
}

// WriteLine writes s followed by a newline.
func (l *Line) WriteLine(s string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, err := io.WriteString(l.w, s+"\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// Close stops the reader and closes the underlying port.
func (l *Line) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.cancel()
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}
