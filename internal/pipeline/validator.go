package pipeline

import (
	"github.com/wardsense/roommonitor/internal/model"
)

// Validator range-checks decoded readings. Checks run in a fixed order and
// short-circuit on the first failure: temperature, then motion, then sound.
// A rejected reading is counted and dropped; it is never persisted,
// classified or broadcast.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

func (v *Validator) Validate(r model.Reading) (model.ValidatedReading, error) {
	if r.TemperatureC < model.TemperatureMin || r.TemperatureC > model.TemperatureMax {
		return model.ValidatedReading{}, &model.ValidationError{
			Field: "temperature",
			Min:   model.TemperatureMin,
			Max:   model.TemperatureMax,
			Value: r.TemperatureC,
		}
	}
	if r.MotionLevel < model.MotionMin || r.MotionLevel > model.MotionMax {
		return model.ValidatedReading{}, &model.ValidationError{
			Field: "motion",
			Min:   model.MotionMin,
			Max:   model.MotionMax,
			Value: float64(r.MotionLevel),
		}
	}
	if r.SoundLevel < model.SoundMin || r.SoundLevel > model.SoundMax {
		return model.ValidatedReading{}, &model.ValidationError{
			Field: "sound",
			Min:   model.SoundMin,
			Max:   model.SoundMax,
			Value: float64(r.SoundLevel),
		}
	}
	return model.ValidatedReading{
		RoomID:       r.RoomID,
		TemperatureC: r.TemperatureC,
		MotionLevel:  r.MotionLevel,
		SoundLevel:   r.SoundLevel,
		Timestamp:    r.Timestamp,
	}, nil
}
