// Package persistence writes clinical observations to InfluxDB. Storage is
// best effort relative to real-time delivery: a failed write is surfaced to
// the alerting path and never re-queued.
package persistence

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/model"
)

const measurement = "clinical_observation"

// Config for the Influx sink.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Sink wraps the non-blocking WriteAPI and tracks the last write error so
// /healthz can report storage health.
type Sink struct {
	client influxdb2.Client
	api    api.WriteAPI
	log    *zap.Logger

	mu      sync.RWMutex
	lastErr time.Time

	writeErrors prometheus.Counter
}

func NewSink(cfg Config, reg prometheus.Registerer, log *zap.Logger) (*Sink, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, errIncompleteConfig
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	s := &Sink{
		client:  client,
		api:     client.WriteAPI(cfg.Org, cfg.Bucket),
		log:     log,
		lastErr: time.Now().Add(-24 * time.Hour),
		writeErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "roommonitor_persistence_write_errors_total",
			Help: "Asynchronous InfluxDB write failures.",
		}),
	}
	go func() {
		for err := range s.api.Errors() {
			if err == nil {
				continue
			}
			s.mu.Lock()
			s.lastErr = time.Now()
			s.mu.Unlock()
			s.writeErrors.Inc()
			log.Error("influx write error", zap.Error(err))
		}
	}()
	return s, nil
}

// Insert queues the observations for asynchronous write, preserving their
// order. It never blocks on storage acknowledgment.
func (s *Sink) Insert(_ context.Context, obs []model.ClinicalObservation) error {
	for _, o := range obs {
		s.api.WritePoint(observationToPoint(o))
	}
	return nil
}

// LastErrorAge reports how long ago the last write error happened.
func (s *Sink) LastErrorAge() time.Duration {
	s.mu.RLock()
	t := s.lastErr
	s.mu.RUnlock()
	return time.Since(t)
}

// Flush forces pending writes out, for shutdown.
func (s *Sink) Flush() { s.api.Flush() }

// Close flushes and releases the client.
func (s *Sink) Close() {
	s.api.Flush()
	s.client.Close()
}

// observationToPoint normalizes an observation into an Influx point. Codes
// and identifiers become tags, the measured value and annotation fields.
func observationToPoint(o model.ClinicalObservation) *write.Point {
	tags := map[string]string{
		"room_id":  o.RoomID,
		"quantity": string(o.Quantity),
		"code":     o.Value.Coding.Code,
		"system":   o.Value.Coding.System,
		"risk":     o.Risk.String(),
	}
	fields := map[string]interface{}{
		"value":      o.Value.Value,
		"unit":       o.Value.Unit,
		"annotation": o.Annotation,
		"id":         o.ID,
	}
	return influxdb2.NewPoint(measurement, tags, fields, o.Effective)
}
