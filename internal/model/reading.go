package model

import "time"

// Reading is one decoded sensor sample from a bedside device. It exists only
// if the frame decoder succeeded; there are no partial readings.
type Reading struct {
	RoomID       string    `json:"room_id"`
	TemperatureC float64   `json:"temperature_c"`
	MotionLevel  int       `json:"motion_level"` // 0..100 activity percentage
	SoundLevel   int       `json:"sound_level"`  // 0..1023 raw ADC peak
	Timestamp    time.Time `json:"timestamp"`
}

// ValidatedReading is a Reading that passed every range check. It is the only
// type allowed past the validator boundary.
type ValidatedReading struct {
	RoomID       string    `json:"room_id"`
	TemperatureC float64   `json:"temperature_c"`
	MotionLevel  int       `json:"motion_level"`
	SoundLevel   int       `json:"sound_level"`
	Timestamp    time.Time `json:"timestamp"`
}

// Validation ranges for sensor readings. Temperature is ambient room
// temperature in Celsius; sound is the raw value of a 10-bit ADC.
const (
	TemperatureMin = 0.0
	TemperatureMax = 50.0
	MotionMin      = 0
	MotionMax      = 100
	SoundMin       = 0
	SoundMax       = 1023
)
