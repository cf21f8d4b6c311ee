package pipeline

import (
	"github.com/wardsense/roommonitor/internal/model"
)

// Classifier turns a validated reading plus derived features into a risk
// level. It is a pure rule cascade, safe to re-run for audit; hysteresis is
// applied afterwards by the tracker, which owns the dwell state.
type Classifier struct {
	cfg Thresholds
}

func NewClassifier(cfg Thresholds) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify evaluates the decision rules top to bottom, first match wins.
// The ordering is the core business rule: fall detection always dominates.
//
//  1. FallDetected: motion crossed from high to near-zero within one cycle
//     while the rolling sound peak shows a high-impact event (sudden silence
//     after a loud impact).
//  2. FallRisk: erratic motion with elevated, sub-impact sound.
//  3. Restless: moderate motion swing without elevated sound.
//  4. Normal: everything else, including night rest and low activity.
func (c *Classifier) Classify(r model.ValidatedReading, f model.Features) model.RiskLevel {
	prevMotion := r.MotionLevel - f.MotionDelta

	if prevMotion >= c.cfg.FallMotionHigh &&
		r.MotionLevel <= c.cfg.FallMotionLow &&
		f.RollingPeakSound >= c.cfg.ImpactSound {
		return model.RiskFallDetected
	}

	if abs(f.MotionDelta) >= c.cfg.ErraticDelta &&
		f.RollingPeakSound >= c.cfg.ElevatedSound &&
		f.RollingPeakSound < c.cfg.ImpactSound {
		return model.RiskFallRisk
	}

	if abs(f.MotionDelta) >= c.cfg.RestlessDelta &&
		f.RollingPeakSound < c.cfg.ElevatedSound {
		return model.RiskRestless
	}

	return model.RiskNormal
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
