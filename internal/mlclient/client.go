// Package mlclient talks to the external statistical classifier. It is a
// capability-gated collaborator: the deterministic classifier works with it
// absent or unreachable, and its verdict is only ever an extra annotation.
package mlclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/model"
)

// Features is the prediction request expected by the scoring service.
type Features struct {
	Temperature float64 `json:"temperature"`
	MotionLevel int     `json:"motion_level"`
	SoundLevel  int     `json:"sound_level"`
	HourOfDay   int     `json:"hour_of_day"`
	IsNight     int     `json:"is_night"`
	MotionTrend float64 `json:"motion_trend"`
}

// Prediction is the scoring service's verdict.
type Prediction struct {
	ActivityClass    string             `json:"activity_class"`
	Confidence       float64            `json:"confidence"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Timestamp   string `json:"timestamp"`
}

// Client wraps the scoring endpoint behind a circuit breaker so a dead
// service costs one failed call per probe window, not one per reading.
type Client struct {
	http      *resty.Client
	breaker   *gobreaker.CircuitBreaker
	log       *zap.Logger
	fallbacks prometheus.Counter
}

func New(baseURL string, timeout time.Duration, reg prometheus.Registerer, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ml-service",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
		log: log,
		fallbacks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "roommonitor_ml_fallbacks_total",
			Help: "Cycles classified without the statistical service.",
		}),
	}
}

// Available probes the scoring service's health endpoint.
func (c *Client) Available(ctx context.Context) bool {
	var health healthResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&health).Get("/health")
	if err != nil || resp.IsError() {
		return false
	}
	return health.ModelLoaded
}

// Classify scores one reading. Errors are the caller's cue to fall back to
// the deterministic classifier; they never fail the cycle.
func (c *Client) Classify(ctx context.Context, f Features) (Prediction, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var pred Prediction
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(f).
			SetResult(&pred).
			Post("/predict")
		if err != nil {
			return nil, fmt.Errorf("ml connection: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("ml service: %s", resp.Status())
		}
		return pred, nil
	})
	if err != nil {
		return Prediction{}, err
	}
	return result.(Prediction), nil
}

// Annotate implements the pipeline's Enricher: on success it returns a
// human-readable note carrying the statistical verdict.
func (c *Client) Annotate(ctx context.Context, r model.ValidatedReading, f model.Features) (string, bool) {
	isNight := 0
	if f.IsNight {
		isNight = 1
	}
	pred, err := c.Classify(ctx, Features{
		Temperature: r.TemperatureC,
		MotionLevel: r.MotionLevel,
		SoundLevel:  r.SoundLevel,
		HourOfDay:   r.Timestamp.Hour(),
		IsNight:     isNight,
		MotionTrend: f.MotionTrend,
	})
	if err != nil {
		c.fallbacks.Inc()
		c.log.Debug("ml classification unavailable", zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("ML: %s (%.1f%%)", formatActivityClass(pred.ActivityClass), pred.Confidence*100), true
}

// formatActivityClass renders "FALL_DETECTED" as "Fall Detected".
func formatActivityClass(class string) string {
	words := strings.Split(strings.ToLower(class), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
