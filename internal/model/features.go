package model

import "time"

// Features is the derived trend state computed by the tracker for one cycle.
// MotionDelta is 0 on the first reading of a room (cold start).
type Features struct {
	MotionDelta      int           `json:"motion_delta"`
	RollingPeakSound int           `json:"rolling_peak_sound"`
	IsNight          bool          `json:"is_night"`
	StillDuration    time.Duration `json:"still_duration"`

	// MotionTrend is the current motion relative to the recent window mean,
	// fed to the external statistical classifier.
	MotionTrend float64 `json:"motion_trend"`
}
