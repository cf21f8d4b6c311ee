// Package hub holds the latest per-room snapshot and fans updates out to
// any number of subscribers without ever blocking the ingestion path.
package hub

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/model"
)

const defaultQueueSize = 8

// Subscription is a live feed for one room. The first message is always the
// room's current snapshot; every later message is the full replacement
// snapshot (last value wins). The channel is closed when the subscriber
// unsubscribes or the hub shuts down.
type Subscription struct {
	roomID string
	ch     chan model.Snapshot
}

// C is the receive side of the feed.
func (s *Subscription) C() <-chan model.Snapshot { return s.ch }

// RoomID reports which room the subscription follows.
func (s *Subscription) RoomID() string { return s.roomID }

// Hub is the single shared state between the ingestion worker and its
// viewers. Snapshots are replaced wholesale under the lock, so a reader
// always sees a complete snapshot, never a mix of two publishes.
type Hub struct {
	mu        sync.RWMutex
	snapshots map[string]*model.Snapshot
	subs      map[string]map[*Subscription]struct{}
	closed    bool

	queueSize int
	dropped   prometheus.Counter
	log       *zap.Logger
}

func New(queueSize int, reg prometheus.Registerer, log *zap.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Hub{
		snapshots: make(map[string]*model.Snapshot),
		subs:      make(map[string]map[*Subscription]struct{}),
		queueSize: queueSize,
		dropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "roommonitor_hub_dropped_updates_total",
			Help: "Updates replaced in a slow subscriber's queue.",
		}),
		log: log,
	}
}

// Publish replaces the room's snapshot and notifies subscribers. A slow
// subscriber loses its own oldest queued update, never anyone else's, and
// the publisher never blocks.
func (h *Hub) Publish(roomID string, obs []model.ClinicalObservation, risk model.RiskLevel) {
	snap := &model.Snapshot{
		RoomID:       roomID,
		Observations: obs,
		Risk:         risk,
		UpdatedAt:    time.Now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.snapshots[roomID] = snap
	for sub := range h.subs[roomID] {
		h.offer(sub, *snap)
	}
}

// offer enqueues without blocking, dropping the subscriber's oldest queued
// update on overflow. Callers hold h.mu.
func (h *Hub) offer(sub *Subscription, snap model.Snapshot) {
	for {
		select {
		case sub.ch <- snap:
			return
		default:
		}
		select {
		case <-sub.ch:
			h.dropped.Inc()
		default:
		}
	}
}

// Subscribe registers a feed for the room. The current snapshot, if any, is
// queued immediately; subscribers never receive historical events.
func (h *Hub) Subscribe(roomID string) *Subscription {
	sub := &Subscription{roomID: roomID, ch: make(chan model.Snapshot, h.queueSize)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	if h.subs[roomID] == nil {
		h.subs[roomID] = make(map[*Subscription]struct{})
	}
	h.subs[roomID][sub] = struct{}{}
	if snap := h.snapshots[roomID]; snap != nil {
		sub.ch <- *snap
	}
	return sub
}

// Unsubscribe removes the feed and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.roomID]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.ch)
}

// Snapshot returns the room's current snapshot.
func (h *Hub) Snapshot(roomID string) (model.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snap := h.snapshots[roomID]
	if snap == nil {
		return model.Snapshot{}, false
	}
	return *snap, true
}

// Snapshots returns the current snapshot of every room.
func (h *Hub) Snapshots() []model.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.Snapshot, 0, len(h.snapshots))
	for _, snap := range h.snapshots {
		out = append(out, *snap)
	}
	return out
}

// Close shuts the hub down: pending receives terminate with end-of-stream
// instead of hanging.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
	}
	h.subs = make(map[string]map[*Subscription]struct{})
	if h.log != nil {
		h.log.Info("broadcast hub closed")
	}
}
