package pipeline

import (
	"sync"
	"time"

	"github.com/wardsense/roommonitor/internal/model"
)

// RoomState is the per-room trend state. It is owned by the Tracker: the
// ingestion worker is the only mutator, diagnostics get an immutable copy.
type RoomState struct {
	Last          model.ValidatedReading
	HasLast       bool
	MotionWindow  []int
	SoundWindow   []int
	Risk          model.RiskLevel
	FallHoldUntil time.Time
	StillSince    time.Time
	LastChangedAt time.Time
}

// Tracker maintains bounded per-room state and derives the feature set the
// classifier consumes. Rooms are independent entries in a registry keyed by
// room id; each entry is mutated exactly once per validated reading, by
// replacing the state pointer wholesale.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[string]*RoomState
	cfg   Thresholds
}

func NewTracker(cfg Thresholds) *Tracker {
	if cfg.MotionWindow <= 0 {
		cfg.MotionWindow = DefaultThresholds().MotionWindow
	}
	return &Tracker{rooms: make(map[string]*RoomState), cfg: cfg}
}

// Derive computes the feature set for a reading without mutating state.
func (t *Tracker) Derive(r model.ValidatedReading) model.Features {
	t.mu.RLock()
	st := t.rooms[r.RoomID]
	t.mu.RUnlock()

	f := model.Features{IsNight: t.isNight(r.Timestamp)}

	if st != nil && st.HasLast {
		f.MotionDelta = r.MotionLevel - st.Last.MotionLevel
	}

	// Rolling peak includes the current sample so a single-cycle impact
	// spike is never masked.
	f.RollingPeakSound = r.SoundLevel
	if st != nil {
		for _, s := range st.SoundWindow {
			if s > f.RollingPeakSound {
				f.RollingPeakSound = s
			}
		}
		if n := len(st.MotionWindow); n > 0 {
			sum := 0
			for _, m := range st.MotionWindow {
				sum += m
			}
			f.MotionTrend = float64(r.MotionLevel) - float64(sum)/float64(n)
		}
	}

	if r.MotionLevel <= t.cfg.StillMotion {
		if st != nil && !st.StillSince.IsZero() {
			f.StillDuration = r.Timestamp.Sub(st.StillSince)
		}
	}
	return f
}

// Commit applies the reading and the classifier's raw verdict to the room's
// state and returns the published risk level after hysteresis: within the
// fall-hold window the level never drops below FallRisk.
func (t *Tracker) Commit(r model.ValidatedReading, raw model.RiskLevel) model.RiskLevel {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.rooms[r.RoomID]

	next := &RoomState{
		Last:    r,
		HasLast: true,
	}
	if prev != nil {
		next.MotionWindow = append(next.MotionWindow, prev.MotionWindow...)
		next.SoundWindow = append(next.SoundWindow, prev.SoundWindow...)
		next.FallHoldUntil = prev.FallHoldUntil
		next.LastChangedAt = prev.LastChangedAt
	}
	next.MotionWindow = appendBounded(next.MotionWindow, r.MotionLevel, t.cfg.MotionWindow)
	next.SoundWindow = appendBounded(next.SoundWindow, r.SoundLevel, t.cfg.MotionWindow)

	// Stillness accumulator: reset the instant motion exceeds the
	// low-activity bound, otherwise keep the original start time.
	if r.MotionLevel > t.cfg.StillMotion {
		next.StillSince = time.Time{}
	} else if prev != nil && !prev.StillSince.IsZero() {
		next.StillSince = prev.StillSince
	} else {
		next.StillSince = r.Timestamp
	}

	level := raw
	if raw == model.RiskFallDetected {
		next.FallHoldUntil = r.Timestamp.Add(t.cfg.FallHold)
	} else if r.Timestamp.Before(next.FallHoldUntil) && level < model.RiskFallRisk {
		level = model.RiskFallRisk
	}
	next.Risk = level
	if prev == nil || prev.Risk != level {
		next.LastChangedAt = r.Timestamp
	}

	t.rooms[r.RoomID] = next
	return level
}

// StillFor reports how long the room has been below the low-activity bound
// as of ts. Used for the prolonged-inactivity health signal.
func (t *Tracker) StillFor(roomID string, ts time.Time) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st := t.rooms[roomID]
	if st == nil || st.StillSince.IsZero() {
		return 0
	}
	return ts.Sub(st.StillSince)
}

// State returns an immutable copy of a room's state for diagnostics.
func (t *Tracker) State(roomID string) (RoomState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st := t.rooms[roomID]
	if st == nil {
		return RoomState{}, false
	}
	cp := *st
	cp.MotionWindow = append([]int(nil), st.MotionWindow...)
	cp.SoundWindow = append([]int(nil), st.SoundWindow...)
	return cp, true
}

// Rooms returns the ids of all tracked rooms.
func (t *Tracker) Rooms() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.rooms))
	for id := range t.rooms {
		out = append(out, id)
	}
	return out
}

func (t *Tracker) isNight(ts time.Time) bool {
	h := ts.Hour()
	start, end := t.cfg.NightStart, t.cfg.NightEnd
	if start == end {
		return false
	}
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

func appendBounded(w []int, v, max int) []int {
	w = append(w, v)
	if len(w) > max {
		w = w[len(w)-max:]
	}
	return w
}
