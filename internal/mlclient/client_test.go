package mlclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, prometheus.NewRegistry(), zap.NewNop()), srv
}

func scoringHandler(t *testing.T, pred Prediction) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       "healthy",
			"model_loaded": true,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		var f Features
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pred)
	})
	return mux
}

func TestAvailable(t *testing.T) {
	c, _ := newTestClient(t, scoringHandler(t, Prediction{}))
	assert.True(t, c.Available(context.Background()))
}

func TestAvailableFalseWhenModelNotLoaded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "degraded", "model_loaded": false})
	})
	c, _ := newTestClient(t, mux)
	assert.False(t, c.Available(context.Background()))
}

func TestAvailableFalseWhenUnreachable(t *testing.T) {
	c, srv := newTestClient(t, http.NotFoundHandler())
	srv.Close()
	assert.False(t, c.Available(context.Background()))
}

func TestClassify(t *testing.T) {
	want := Prediction{
		ActivityClass: "RESTING",
		Confidence:    0.97,
		ConfidenceScores: map[string]float64{
			"RESTING": 0.97,
			"ACTIVE":  0.03,
		},
	}
	c, _ := newTestClient(t, scoringHandler(t, want))

	pred, err := c.Classify(context.Background(), Features{
		Temperature: 23.5,
		MotionLevel: 45,
		SoundLevel:  120,
		HourOfDay:   14,
	})
	require.NoError(t, err)
	assert.Equal(t, want, pred)
}

func TestAnnotateFormatsVerdict(t *testing.T) {
	c, _ := newTestClient(t, scoringHandler(t, Prediction{ActivityClass: "FALL_DETECTED", Confidence: 0.912}))

	r := model.ValidatedReading{
		RoomID:       "room-101",
		TemperatureC: 23.5,
		MotionLevel:  2,
		SoundLevel:   200,
		Timestamp:    time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC),
	}
	note, ok := c.Annotate(context.Background(), r, model.Features{IsNight: true, MotionTrend: -40})
	require.True(t, ok)
	assert.Equal(t, "ML: Fall Detected (91.2%)", note)
}

func TestAnnotateSendsDerivedFeatures(t *testing.T) {
	var got Features
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(Prediction{ActivityClass: "SLEEPING", Confidence: 0.8})
	})
	c, _ := newTestClient(t, mux)

	r := model.ValidatedReading{
		TemperatureC: 21.0,
		MotionLevel:  5,
		SoundLevel:   10,
		Timestamp:    time.Date(2025, 3, 14, 2, 30, 0, 0, time.UTC),
	}
	_, ok := c.Annotate(context.Background(), r, model.Features{IsNight: true, MotionTrend: -3.5})
	require.True(t, ok)

	assert.Equal(t, 21.0, got.Temperature)
	assert.Equal(t, 5, got.MotionLevel)
	assert.Equal(t, 10, got.SoundLevel)
	assert.Equal(t, 2, got.HourOfDay)
	assert.Equal(t, 1, got.IsNight)
	assert.Equal(t, -3.5, got.MotionTrend)
}

func TestAnnotateFallsBackOnServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))

	_, ok := c.Annotate(context.Background(), model.ValidatedReading{Timestamp: time.Now()}, model.Features{})
	assert.False(t, ok)
}

// After three consecutive failures the breaker opens and stops hitting the
// service until the probe window elapses.
func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	for i := 0; i < 6; i++ {
		_, err := c.Classify(context.Background(), Features{})
		require.Error(t, err)
	}
	assert.Equal(t, int64(3), calls.Load())
}

func TestFormatActivityClass(t *testing.T) {
	assert.Equal(t, "Fall Detected", formatActivityClass("FALL_DETECTED"))
	assert.Equal(t, "Resting", formatActivityClass("RESTING"))
	assert.Equal(t, "Active", formatActivityClass("active"))
	assert.Equal(t, "", formatActivityClass(""))
}
