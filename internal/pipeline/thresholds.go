package pipeline

import "time"

// Thresholds are the named tunables of the trend tracker and risk
// classifier. The zero value is not usable; start from DefaultThresholds.
type Thresholds struct {
	// FallMotionHigh/FallMotionLow bound the "motion crosses from high to
	// near-zero within one cycle" condition of fall detection.
	FallMotionHigh int
	FallMotionLow  int

	// ImpactSound is the rolling-peak sound level treated as a high-impact
	// event (raw ADC units).
	ImpactSound int

	// ErraticDelta is the absolute motion delta treated as erratic movement,
	// RestlessDelta the moderate delta treated as restlessness.
	ErraticDelta  int
	RestlessDelta int

	// ElevatedSound is the rolling-peak sound level treated as elevated but
	// below impact.
	ElevatedSound int

	// StillMotion is the low-activity bound: motion at or below it
	// accumulates still time, above it resets the accumulator.
	StillMotion int

	// StillAlert is the still duration after which prolonged inactivity is
	// surfaced (pressure ulcer prevention).
	StillAlert time.Duration

	// FallHold is the minimum dwell after a detected fall during which the
	// published level is never downgraded below FallRisk.
	FallHold time.Duration

	// NightStart/NightEnd delimit the night window (hours, local to the
	// reading timestamp). The window wraps midnight.
	NightStart int
	NightEnd   int

	// MotionWindow is the number of recent readings kept for the rolling
	// sound peak and motion trend.
	MotionWindow int
}

// DefaultThresholds returns the documented defaults. The exact numbers are
// operational tuning, not clinical guidance.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FallMotionHigh: 60,
		FallMotionLow:  10,
		ImpactSound:    150,
		ErraticDelta:   40,
		RestlessDelta:  25,
		ElevatedSound:  100,
		StillMotion:    15,
		StillAlert:     2 * time.Hour,
		FallHold:       30 * time.Second,
		NightStart:     22,
		NightEnd:       6,
		MotionWindow:   10,
	}
}
