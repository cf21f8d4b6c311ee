package sensor_simulator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/transport"
)

// Publisher is the outbound side of the simulator (an MQTT topic in the
// composed system).
type Publisher interface {
	PublishFrame(line string) error
	Close()
}

// Simulator emits one generated frame per interval to a Publisher.
type Simulator struct {
	generator *Generator
	publisher Publisher
	log       *zap.Logger
}

func NewSimulator(gen *Generator, pub Publisher, log *zap.Logger) *Simulator {
	return &Simulator{generator: gen, publisher: pub, log: log}
}

// Start blocks until ctx is cancelled, publishing frames at the interval.
func (s *Simulator) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case now := <-ticker.C:
			line := s.generator.Next(now)
			if err := s.publisher.PublishFrame(line); err != nil {
				s.log.Warn("frame publish failed", zap.Error(err))
			}
		}
	}
}

// Source adapts the generator into an in-process transport, for running the
// monitor without a device or broker. Each Connect starts a fresh stream;
// trend state carries across reconnects in the tracker, not here.
type Source struct {
	Interval time.Duration
	Seed     int64
}

func (s *Source) Connect(ctx context.Context) (transport.Stream, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	st := &simStream{lines: make(chan string), done: make(chan struct{})}
	go st.run(ctx, NewGenerator(s.Seed), interval)
	return st, nil
}

type simStream struct {
	lines chan string
	done  chan struct{}

	closeOnce sync.Once
}

// run is the only writer and the only closer of the lines channel.
func (s *simStream) run(ctx context.Context, gen *Generator, interval time.Duration) {
	defer close(s.lines)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case now := <-ticker.C:
			select {
			case s.lines <- gen.Next(now):
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *simStream) Lines() <-chan string { return s.lines }
func (s *simStream) Err() error           { return nil }

func (s *simStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
