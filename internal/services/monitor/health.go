package monitor

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wardsense/roommonitor/internal/pipeline"
)

// StorageHealth is the slice of the persistence sink the health surface
// needs. The no-op sink reports a permanently healthy store.
type StorageHealth interface {
	LastErrorAge() time.Duration
}

// IngestHealth is the slice of the ingestion loop the health surface needs.
type IngestHealth interface {
	State() pipeline.LoopState
}

// healthHandler reports service health: streaming state of the ingestion
// loop plus storage write health.
type healthHandler struct {
	loop IngestHealth
	sink StorageHealth
}

func NewHealthHandler(loop IngestHealth, sink StorageHealth) http.Handler {
	return &healthHandler{loop: loop, sink: sink}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string  `json:"status"`
		IngestState     string  `json:"ingest_state"`
		LastWriteErrorS float64 `json:"last_write_error_age_sec"`
	}
	st := status{
		IngestState:     h.loop.State().String(),
		LastWriteErrorS: h.sink.LastErrorAge().Seconds(),
	}

	streaming := h.loop.State() == pipeline.StateStreaming
	storageOK := h.sink.LastErrorAge() > 30*time.Second
	switch {
	case streaming && storageOK:
		st.Status = "ok"
	case streaming || storageOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// readyHandler returns 200 only while streaming with healthy storage.
type readyHandler struct {
	loop IngestHealth
	sink StorageHealth
}

func NewReadyHandler(loop IngestHealth, sink StorageHealth) http.Handler {
	return &readyHandler{loop: loop, sink: sink}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.loop.State() == pipeline.StateStreaming && h.sink.LastErrorAge() > 2*time.Second
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(struct {
		Ready bool `json:"ready"`
	}{Ready: ready})
}
