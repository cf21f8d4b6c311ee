// Package transport provides the line-oriented frame sources the ingestion
// loop connects to: a serial device or TCP endpoint, and an MQTT bridge for
// devices that publish frames through a broker.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// lineStream adapts an io.ReadCloser into the pipeline's Stream contract:
// one channel message per newline-terminated frame, Err set once the
// underlying reader fails or reaches end of stream.
type lineStream struct {
	rc    io.ReadCloser
	lines chan string

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

func newLineStream(rc io.ReadCloser) *lineStream {
	s := &lineStream{rc: rc, lines: make(chan string, 16)}
	go s.read()
	return s
}

func (s *lineStream) read() {
	defer close(s.lines)
	scanner := bufio.NewScanner(s.rc)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		s.setErr(err)
	} else {
		s.setErr(io.EOF)
	}
}

func (s *lineStream) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *lineStream) Lines() <-chan string { return s.lines }

func (s *lineStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *lineStream) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.rc.Close() })
	return err
}

// LineSource opens a newline-delimited frame stream from either a TCP
// endpoint ("tcp://host:port") or a device/file path such as /dev/ttyUSB0.
// The serial line is expected to be configured out of band (baud rate etc.);
// the source only consumes the already-framed byte stream.
type LineSource struct {
	Addr        string
	DialTimeout time.Duration
}

func NewLineSource(addr string) *LineSource {
	return &LineSource{Addr: addr, DialTimeout: 5 * time.Second}
}

func (s *LineSource) Connect(ctx context.Context) (Stream, error) {
	if after, ok := strings.CutPrefix(s.Addr, "tcp://"); ok {
		d := net.Dialer{Timeout: s.DialTimeout}
		conn, err := d.DialContext(ctx, "tcp", after)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", s.Addr, err)
		}
		return newLineStream(conn), nil
	}

	f, err := os.Open(s.Addr)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Addr, err)
	}
	return newLineStream(f), nil
}

// Source establishes a transport connection. The ingestion loop owns the
// returned stream and reconnects through the same source after loss.
type Source interface {
	Connect(ctx context.Context) (Stream, error)
}

// Stream delivers raw frame lines until the transport fails or is closed.
// After Lines is closed, Err reports the transport error, if any.
type Stream interface {
	Lines() <-chan string
	Err() error
	Close() error
}
