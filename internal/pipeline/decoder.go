package pipeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wardsense/roommonitor/internal/model"
)

// Decoder parses one raw transport line into a Reading. The wire format is
// "temperature,motion,sound" with exactly three comma separated fields.
// Decoding never fails fatally: every malformed line is reported as a
// DecodeError and skipped, the transport itself is unaffected.
type Decoder struct {
	roomID string
	now    func() time.Time
}

func NewDecoder(roomID string) *Decoder {
	return &Decoder{roomID: roomID, now: time.Now}
}

// Decode parses a single frame. A temperature of NaN is the sensor's own
// fault sentinel and is normalized to 0.0 rather than rejected.
func (d *Decoder) Decode(line string) (model.Reading, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return model.Reading{}, &model.DecodeError{Kind: model.DecodeMalformedLine, Line: line}
	}

	parts := strings.Split(trimmed, ",")
	if len(parts) != 3 {
		return model.Reading{}, &model.DecodeError{Kind: model.DecodeFieldCountMismatch, Line: trimmed}
	}

	temp, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Reading{}, &model.DecodeError{Kind: model.DecodeNonNumericField, Line: trimmed, Err: err}
	}
	if math.IsNaN(temp) {
		temp = 0.0
	}

	motion, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return model.Reading{}, &model.DecodeError{Kind: model.DecodeNonNumericField, Line: trimmed, Err: err}
	}

	sound, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return model.Reading{}, &model.DecodeError{Kind: model.DecodeNonNumericField, Line: trimmed, Err: err}
	}

	return model.Reading{
		RoomID:       d.roomID,
		TemperatureC: temp,
		MotionLevel:  motion,
		SoundLevel:   sound,
		Timestamp:    d.now().UTC(),
	}, nil
}
