package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wardsense/roommonitor/internal/model"
)

func classify(t *testing.T, motion, delta, peak int) model.RiskLevel {
	t.Helper()
	c := NewClassifier(DefaultThresholds())
	r := validated("room-101", motion, 0, trendBase)
	return c.Classify(r, model.Features{MotionDelta: delta, RollingPeakSound: peak})
}

func TestClassifyFallDetected(t *testing.T) {
	// Motion crossed 80 → 2 in one cycle with an impact-level sound peak.
	assert.Equal(t, model.RiskFallDetected, classify(t, 2, -78, 180))

	// Same crossing without the impact sound is not a fall.
	assert.NotEqual(t, model.RiskFallDetected, classify(t, 2, -78, 90))

	// Previous motion below the high bound is not a fall either.
	assert.NotEqual(t, model.RiskFallDetected, classify(t, 2, -40, 180))

	// Current motion above the near-zero bound rules it out.
	assert.NotEqual(t, model.RiskFallDetected, classify(t, 20, -60, 180))
}

func TestClassifyFallRisk(t *testing.T) {
	assert.Equal(t, model.RiskFallRisk, classify(t, 60, 45, 120))
	assert.Equal(t, model.RiskFallRisk, classify(t, 10, -45, 120))

	// Peak at or past the impact bound belongs to the fall rule, not this one.
	assert.NotEqual(t, model.RiskFallRisk, classify(t, 60, 45, 150))

	// Sound below the elevated bound downgrades to restless.
	assert.Equal(t, model.RiskRestless, classify(t, 60, 45, 80))
}

func TestClassifyRestless(t *testing.T) {
	assert.Equal(t, model.RiskRestless, classify(t, 40, 30, 50))
	assert.Equal(t, model.RiskRestless, classify(t, 10, -30, 50))

	// Delta below the restless bound stays normal.
	assert.Equal(t, model.RiskNormal, classify(t, 40, 20, 50))
}

func TestClassifyNormal(t *testing.T) {
	// Moderate daytime activity from the wire format example.
	assert.Equal(t, model.RiskNormal, classify(t, 45, 5, 120))
	assert.Equal(t, model.RiskNormal, classify(t, 0, 0, 0))
	// Elevated sound alone, without erratic motion, is not a risk signal.
	assert.Equal(t, model.RiskNormal, classify(t, 30, 10, 120))
}

// The rules are evaluated top to bottom and the first match wins, so a
// sample satisfying the fall conditions is never reported as merely erratic.
func TestClassifyFirstMatchWins(t *testing.T) {
	level := classify(t, 5, -75, 200)
	assert.Equal(t, model.RiskFallDetected, level)
}

// Full two-cycle fall sequence through tracker and classifier together.
func TestFallSequenceEndToEnd(t *testing.T) {
	cfg := DefaultThresholds()
	tr := NewTracker(cfg)
	c := NewClassifier(cfg)

	r1 := validated("room-101", 80, 40, trendBase)
	f1 := tr.Derive(r1)
	level := tr.Commit(r1, c.Classify(r1, f1))
	assert.Equal(t, model.RiskNormal, level)

	// Loud impact then near-total stillness on the very next cycle.
	r2 := validated("room-101", 2, 200, trendBase.Add(time.Second))
	f2 := tr.Derive(r2)
	assert.Equal(t, -78, f2.MotionDelta)
	assert.Equal(t, 200, f2.RollingPeakSound)
	level = tr.Commit(r2, c.Classify(r2, f2))
	assert.Equal(t, model.RiskFallDetected, level)

	// Quiet stillness right after still publishes at least FallRisk.
	r3 := validated("room-101", 1, 5, trendBase.Add(6*time.Second))
	f3 := tr.Derive(r3)
	level = tr.Commit(r3, c.Classify(r3, f3))
	assert.Equal(t, model.RiskFallRisk, level)
}
