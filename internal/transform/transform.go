// Package transform maps validated readings into FHIR-style clinical
// observation records, one per physical quantity, each carrying a fixed
// terminology code bound at startup.
package transform

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wardsense/roommonitor/internal/model"
)

const (
	systemLOINC  = "http://loinc.org"
	systemSNOMED = "http://snomed.info/sct"
)

// codingSystems accepted in the terminology table. Anything else is a
// startup-time misconfiguration.
var codingSystems = map[string]bool{
	systemLOINC:  true,
	systemSNOMED: true,
}

// CodeTable binds each physical quantity to its terminology coding and
// unit. The codes are fixed identifiers, used verbatim in every
// observation, never chosen dynamically.
type CodeTable map[model.Quantity]struct {
	Coding model.Coding
	Unit   string
}

// DefaultCodeTable mirrors the device's documented terminology bindings.
func DefaultCodeTable() CodeTable {
	return CodeTable{
		model.QuantityTemperature: {
			Coding: model.Coding{System: systemLOINC, Code: "8310-5", Display: "Body temperature"},
			Unit:   "Cel",
		},
		model.QuantityMotion: {
			Coding: model.Coding{System: systemSNOMED, Code: "52821000", Display: "Physical activity"},
			Unit:   "%",
		},
		model.QuantitySound: {
			Coding: model.Coding{System: systemLOINC, Code: "89020-2", Display: "Sound level"},
			Unit:   "{ADU}",
		},
	}
}

// Validate rejects an incomplete or misbound code table. This is the one
// hard startup failure of the pipeline.
func (t CodeTable) Validate() error {
	for _, q := range []model.Quantity{model.QuantityTemperature, model.QuantityMotion, model.QuantitySound} {
		entry, ok := t[q]
		if !ok {
			return fmt.Errorf("code table: missing quantity %q", q)
		}
		if entry.Coding.Code == "" || entry.Unit == "" {
			return fmt.Errorf("code table: incomplete binding for %q", q)
		}
		if !codingSystems[entry.Coding.System] {
			return fmt.Errorf("code table: unsupported coding system %q for %q", entry.Coding.System, q)
		}
	}
	return nil
}

// Transformer is a pure, total mapping: out-of-range values cannot reach it
// because the validator already excluded them.
type Transformer struct {
	codes CodeTable
	newID func() string
	now   func() time.Time
}

func New(codes CodeTable) (*Transformer, error) {
	if err := codes.Validate(); err != nil {
		return nil, err
	}
	return &Transformer{codes: codes, newID: func() string { return uuid.NewString() }, now: time.Now}, nil
}

// Transform produces one observation per quantity, each tagged with the
// computed risk level.
func (t *Transformer) Transform(r model.ValidatedReading, risk model.RiskLevel) []model.ClinicalObservation {
	annotation := fmt.Sprintf("Activity: %s", risk.Display())
	values := []struct {
		quantity model.Quantity
		value    float64
	}{
		{model.QuantityTemperature, r.TemperatureC},
		{model.QuantityMotion, float64(r.MotionLevel)},
		{model.QuantitySound, float64(r.SoundLevel)},
	}

	out := make([]model.ClinicalObservation, 0, len(values))
	for _, v := range values {
		entry := t.codes[v.quantity]
		out = append(out, model.ClinicalObservation{
			ID:       t.newID(),
			RoomID:   r.RoomID,
			Quantity: v.quantity,
			Status:   "final",
			Value: model.CodedValue{
				Value:  v.value,
				Unit:   entry.Unit,
				Coding: entry.Coding,
			},
			Risk:       risk,
			Annotation: annotation,
			Effective:  r.Timestamp,
		})
	}
	return out
}
