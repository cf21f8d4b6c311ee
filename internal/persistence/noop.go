package persistence

import (
	"context"
	"time"

	"github.com/wardsense/roommonitor/internal/model"
)

// Noop discards observations. Used when no durable store is configured,
// e.g. local runs against the simulator.
type Noop struct{}

func (Noop) Insert(context.Context, []model.ClinicalObservation) error { return nil }

// LastErrorAge always reports a healthy store.
func (Noop) LastErrorAge() time.Duration { return 24 * time.Hour }
