package model

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is the discrete outcome of the risk classifier. The order is
// meaningful: higher values dominate lower ones and downgrades during the
// fall-hold window are clamped against it.
type RiskLevel int

const (
	RiskNormal RiskLevel = iota
	RiskRestless
	RiskFallRisk
	RiskFallDetected
)

func (r RiskLevel) String() string {
	switch r {
	case RiskNormal:
		return "NORMAL"
	case RiskRestless:
		return "RESTLESS"
	case RiskFallRisk:
		return "FALL_RISK"
	case RiskFallDetected:
		return "FALL_DETECTED"
	default:
		return "UNKNOWN"
	}
}

// Display returns the human-readable form used in observation annotations
// and on the dashboard ("FALL_DETECTED" -> "Fall Detected").
func (r RiskLevel) Display() string {
	switch r {
	case RiskNormal:
		return "Normal"
	case RiskRestless:
		return "Restless"
	case RiskFallRisk:
		return "Fall Risk"
	case RiskFallDetected:
		return "Fall Detected"
	default:
		return "Unknown"
	}
}

// Color returns the dashboard color for the level.
func (r RiskLevel) Color() string {
	switch r {
	case RiskNormal:
		return "#3b82f6"
	case RiskRestless:
		return "#f59e0b"
	case RiskFallRisk:
		return "#ef4444"
	case RiskFallDetected:
		return "#dc2626"
	default:
		return "#6b7280"
	}
}

func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

func (r *RiskLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "NORMAL":
		*r = RiskNormal
	case "RESTLESS":
		*r = RiskRestless
	case "FALL_RISK":
		*r = RiskFallRisk
	case "FALL_DETECTED":
		*r = RiskFallDetected
	default:
		return fmt.Errorf("unknown risk level %q", s)
	}
	return nil
}
