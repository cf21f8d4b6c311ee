package transport

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, s Stream) []string {
	t.Helper()
	var lines []string
	deadline := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-s.Lines():
			if !ok {
				return lines
			}
			lines = append(lines, line)
		case <-deadline:
			t.Fatal("stream did not end")
		}
	}
}

func TestLineSourceReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames")
	require.NoError(t, os.WriteFile(path, []byte("23.5,45,120\n24.0,50,80\n"), 0o644))

	src := NewLineSource(path)
	stream, err := src.Connect(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"23.5,45,120", "24.0,50,80"}, collect(t, stream))
	assert.ErrorIs(t, stream.Err(), io.EOF)
}

func TestLineSourceMissingPath(t *testing.T) {
	src := NewLineSource(filepath.Join(t.TempDir(), "absent"))
	_, err := src.Connect(context.Background())
	assert.Error(t, err)
}

func TestLineSourceDialsTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write([]byte("23.5,45,120\nnan,10,5\n"))
		_ = conn.Close()
	}()

	src := NewLineSource("tcp://" + ln.Addr().String())
	stream, err := src.Connect(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"23.5,45,120", "nan,10,5"}, collect(t, stream))
}

func TestLineSourceDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	src := NewLineSource("tcp://" + addr)
	src.DialTimeout = time.Second
	_, err = src.Connect(context.Background())
	assert.Error(t, err)
}

func TestStreamCloseUnblocksReader(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	stream := newLineStream(client)
	require.NoError(t, stream.Close())

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-stream.Lines():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("reader still blocked after close")
		}
	}
}
