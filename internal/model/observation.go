package model

import "time"

// Quantity identifies one physical quantity reported by the device.
type Quantity string

const (
	QuantityTemperature Quantity = "temperature"
	QuantityMotion      Quantity = "motion"
	QuantitySound       Quantity = "sound"
)

// Coding is a terminology binding (system URL + code), FHIR style.
type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// CodedValue is a measured value with unit and terminology coding.
type CodedValue struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Coding Coding  `json:"coding"`
}

// ClinicalObservation is the externally facing record produced by the
// transformer, one per physical quantity. Immutable once created; handed to
// the persistence sink and broadcast hub and not retained by the pipeline.
type ClinicalObservation struct {
	ID         string     `json:"id"`
	RoomID     string     `json:"room_id"`
	Quantity   Quantity   `json:"quantity"`
	Status     string     `json:"status"` // FHIR observation status, always "final"
	Value      CodedValue `json:"value"`
	Risk       RiskLevel  `json:"risk"`
	Annotation string     `json:"annotation"`
	Effective  time.Time  `json:"effective"`
}
