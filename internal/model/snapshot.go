package model

import "time"

// Snapshot is the most recent set of observations and risk level for a room.
// The hub replaces it wholesale on every publish; readers never observe a
// half-updated snapshot.
type Snapshot struct {
	RoomID       string                `json:"room_id"`
	Observations []ClinicalObservation `json:"observations"`
	Risk         RiskLevel             `json:"risk"`
	UpdatedAt    time.Time             `json:"updated_at"`
}
