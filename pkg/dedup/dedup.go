// Package dedup suppresses redelivered payloads (MQTT QoS 1 retries) by
// remembering recently seen ids for a TTL.
package dedup

import (
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	cap  int
	seen map[string]time.Time // id -> expiry
}

func New(ttl time.Duration, cap int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if cap <= 0 {
		cap = 10000
	}
	return &Deduper{ttl: ttl, cap: cap, seen: make(map[string]time.Time, cap)}
}

// ShouldProcess reports whether id is new within the TTL and records it.
// An empty id is always processed.
func (d *Deduper) ShouldProcess(id string) bool {
	if id == "" {
		return true
	}
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.cap {
		d.evict(now)
	}
	return true
}

// evict removes expired entries, and if that is not enough, arbitrary ones
// until the map fits the cap again. Callers hold d.mu.
func (d *Deduper) evict(now time.Time) {
	for id, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, id)
		}
	}
	for id := range d.seen {
		if len(d.seen) <= d.cap {
			return
		}
		delete(d.seen, id)
	}
}
