package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/model"
	"github.com/wardsense/roommonitor/internal/transport"
)

// Transformer maps a validated reading and its risk level to clinical
// observation records.
type Transformer interface {
	Transform(r model.ValidatedReading, risk model.RiskLevel) []model.ClinicalObservation
}

// Sink durably stores observations. Writes happen off the hot path; a
// failed write is surfaced operationally and never re-queued, since the
// observation has already been broadcast.
type Sink interface {
	Insert(ctx context.Context, obs []model.ClinicalObservation) error
}

// Publisher fans an event out to live subscribers without ever blocking.
type Publisher interface {
	Publish(roomID string, obs []model.ClinicalObservation, risk model.RiskLevel)
}

// Enricher optionally annotates an event with an external statistical
// classification. It is an enrichment, not a dependency: the pipeline is
// correct with it absent or unreachable.
type Enricher interface {
	Annotate(ctx context.Context, r model.ValidatedReading, f model.Features) (string, bool)
}

// LoopState is the ingestion loop's connection state.
type LoopState int32

const (
	StateDisconnected LoopState = iota
	StateConnecting
	StateStreaming
)

func (s LoopState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

// Event is one fully processed cycle result handed to the dispatcher.
type Event struct {
	Reading      model.ValidatedReading
	Features     model.Features
	Risk         model.RiskLevel
	Observations []model.ClinicalObservation
}

// LoopConfig carries the loop tunables.
type LoopConfig struct {
	RoomID         string
	ReconnectDelay time.Duration // constant; the device is expected to reappear
	DispatchBuffer int
}

// Loop owns the transport and drives decode → validate → track → classify →
// transform each cycle, dispatching results to the sink and the hub through
// a bounded channel so storage speed never bounds ingestion latency.
type Loop struct {
	cfg       LoopConfig
	source    transport.Source
	decoder   *Decoder
	validator *Validator
	tracker   *Tracker
	classify  *Classifier
	transform Transformer
	sink      Sink
	hub       Publisher
	enricher  Enricher
	metrics   *Metrics
	log       *zap.Logger

	thresholds Thresholds

	mu           sync.Mutex
	state        LoopState
	stillAlerted bool
}

func NewLoop(
	cfg LoopConfig,
	source transport.Source,
	tracker *Tracker,
	classifier *Classifier,
	transformer Transformer,
	sink Sink,
	hub Publisher,
	enricher Enricher,
	thresholds Thresholds,
	metrics *Metrics,
	log *zap.Logger,
) *Loop {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 2 * time.Second
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 64
	}
	return &Loop{
		cfg:        cfg,
		source:     source,
		decoder:    NewDecoder(cfg.RoomID),
		validator:  NewValidator(),
		tracker:    tracker,
		classify:   classifier,
		transform:  transformer,
		sink:       sink,
		hub:        hub,
		enricher:   enricher,
		metrics:    metrics,
		log:        log.With(zap.String("room", cfg.RoomID)),
		thresholds: thresholds,
	}
}

// State reports the current connection state.
func (l *Loop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) setState(s LoopState) {
	l.mu.Lock()
	prev := l.state
	l.state = s
	l.mu.Unlock()
	if prev != s {
		l.log.Info("ingestion state change",
			zap.String("from", prev.String()), zap.String("to", s.String()))
	}
}

// Run blocks until ctx is cancelled. Transport loss moves the loop to
// Disconnected and reconnection is retried indefinitely with a constant
// delay; decode and validation failures are counted, never retried.
// Cancellation lets the in-flight cycle finish before teardown.
func (l *Loop) Run(ctx context.Context) error {
	events := make(chan Event, l.cfg.DispatchBuffer)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.dispatch(events)
	}()
	defer func() {
		close(events)
		wg.Wait()
	}()

	for {
		l.setState(StateConnecting)
		stream, err := l.connect(ctx)
		if err != nil {
			l.setState(StateDisconnected)
			return err // only on ctx cancellation
		}
		l.setState(StateStreaming)

		l.consume(ctx, stream, events)
		_ = stream.Close()
		l.setState(StateDisconnected)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.metrics.Reconnects.Inc()
	}
}

func (l *Loop) connect(ctx context.Context) (transport.Stream, error) {
	bo := backoff.WithContext(backoff.NewConstantBackOff(l.cfg.ReconnectDelay), ctx)
	var stream transport.Stream
	err := backoff.Retry(func() error {
		s, err := l.source.Connect(ctx)
		if err != nil {
			l.log.Warn("transport connect failed", zap.Error(err))
			return err
		}
		stream = s
		return nil
	}, bo)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// consume drains the stream until it ends or ctx is cancelled. The select
// ordering guarantees that a line already received is fully processed
// before shutdown tears anything down.
func (l *Loop) consume(ctx context.Context, stream transport.Stream, events chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-stream.Lines():
			if !ok {
				if err := stream.Err(); err != nil {
					l.log.Warn("transport stream lost", zap.Error(err))
				}
				return
			}
			l.cycle(line, events)
		}
	}
}

// cycle runs one Decode → Validate → Track → Classify → Transform pass.
func (l *Loop) cycle(line string, events chan Event) {
	l.metrics.FramesTotal.WithLabelValues(l.cfg.RoomID).Inc()

	reading, err := l.decoder.Decode(line)
	if err != nil {
		kind := "unknown"
		if de, ok := err.(*model.DecodeError); ok {
			kind = string(de.Kind)
		}
		l.metrics.DecodeErrors.WithLabelValues(l.cfg.RoomID, kind).Inc()
		l.log.Debug("frame dropped", zap.String("kind", kind), zap.String("line", line))
		return
	}

	validated, err := l.validator.Validate(reading)
	if err != nil {
		field := "unknown"
		if ve, ok := err.(*model.ValidationError); ok {
			field = ve.Field
		}
		l.metrics.ValidationErrors.WithLabelValues(l.cfg.RoomID, field).Inc()
		l.log.Warn("reading rejected", zap.Error(err))
		return
	}

	features := l.tracker.Derive(validated)
	raw := l.classify.Classify(validated, features)
	level := l.tracker.Commit(validated, raw)
	l.metrics.RiskTransitions.WithLabelValues(l.cfg.RoomID, level.String()).Inc()

	l.checkStillness(validated)

	obs := l.transform.Transform(validated, level)

	select {
	case events <- Event{Reading: validated, Features: features, Risk: level, Observations: obs}:
	default:
		// Dispatcher backlog full: storage is best-effort relative to
		// real-time delivery, so drop the oldest queued event.
		select {
		case <-events:
		default:
		}
		events <- Event{Reading: validated, Features: features, Risk: level, Observations: obs}
	}
}

// checkStillness raises the prolonged-inactivity signal once per still
// episode.
func (l *Loop) checkStillness(r model.ValidatedReading) {
	still := l.tracker.StillFor(r.RoomID, r.Timestamp)
	if still >= l.thresholds.StillAlert {
		if !l.stillAlerted {
			l.stillAlerted = true
			l.metrics.StillAlerts.Inc()
			l.log.Warn("prolonged inactivity",
				zap.Duration("still_for", still),
				zap.Duration("alert_bound", l.thresholds.StillAlert))
		}
		return
	}
	l.stillAlerted = false
}

// dispatch delivers events to the hub and the sink in read order. The hub
// publish never blocks; sink writes are bounded by their own timeout and a
// failure is logged, not retried.
func (l *Loop) dispatch(events <-chan Event) {
	for ev := range events {
		if l.enricher != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if note, ok := l.enricher.Annotate(ctx, ev.Reading, ev.Features); ok {
				for i := range ev.Observations {
					ev.Observations[i].Annotation += "; " + note
				}
			}
			cancel()
		}

		l.hub.Publish(ev.Reading.RoomID, ev.Observations, ev.Risk)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := l.sink.Insert(ctx, ev.Observations); err != nil {
			l.log.Error("persistence write failed", zap.Error(err))
		}
		cancel()
	}
}
