// Package monitor wires the pipeline into a runnable service: HTTP surface
// for health, diagnostics and the live subscriber stream.
package monitor

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/hub"
	"github.com/wardsense/roommonitor/internal/pipeline"
)

// Deps are the running components the HTTP surface reads from.
type Deps struct {
	Hub      *hub.Hub
	Tracker  *pipeline.Tracker
	Loop     IngestHealth
	Sink     StorageHealth
	Registry *prometheus.Registry
	Log      *zap.Logger
}

// NewHTTPMux exposes:
//
//	GET /healthz        service + dependency health
//	GET /readyz         readiness (streaming and storage healthy)
//	GET /metrics        Prometheus metrics
//	GET /rooms/latest   current snapshot of every room
//	GET /rooms/state    trend-state diagnostics per room
//	GET /ws?room=<id>   live subscriber stream (WebSocket)
func NewHTTPMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/healthz", NewHealthHandler(d.Loop, d.Sink))
	mux.Handle("/readyz", NewReadyHandler(d.Loop, d.Sink))
	mux.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/ws", hub.NewWSHandler(d.Hub, d.Log))

	mux.HandleFunc("/rooms/latest", func(w http.ResponseWriter, _ *http.Request) {
		snaps := d.Hub.Snapshots()
		sort.Slice(snaps, func(i, j int) bool { return snaps[i].RoomID < snaps[j].RoomID })
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snaps)
	})

	mux.HandleFunc("/rooms/state", func(w http.ResponseWriter, _ *http.Request) {
		type roomDiag struct {
			RoomID        string `json:"room_id"`
			Risk          string `json:"risk"`
			MotionWindow  []int  `json:"motion_window"`
			SoundWindow   []int  `json:"sound_window"`
			StillSince    string `json:"still_since,omitempty"`
			LastChangedAt string `json:"last_changed_at"`
		}
		rooms := d.Tracker.Rooms()
		sort.Strings(rooms)
		out := make([]roomDiag, 0, len(rooms))
		for _, id := range rooms {
			st, ok := d.Tracker.State(id)
			if !ok {
				continue
			}
			diag := roomDiag{
				RoomID:        id,
				Risk:          st.Risk.String(),
				MotionWindow:  st.MotionWindow,
				SoundWindow:   st.SoundWindow,
				LastChangedAt: st.LastChangedAt.UTC().Format(time.RFC3339),
			}
			if !st.StillSince.IsZero() {
				diag.StillSince = st.StillSince.UTC().Format(time.RFC3339)
			}
			out = append(out, diag)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})

	return mux
}
