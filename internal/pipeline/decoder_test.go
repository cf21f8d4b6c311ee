package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardsense/roommonitor/internal/model"
)

func fixedDecoder(room string) *Decoder {
	d := NewDecoder(room)
	d.now = func() time.Time { return time.Date(2025, 3, 14, 14, 0, 0, 0, time.UTC) }
	return d
}

func TestDecodeValidFrame(t *testing.T) {
	d := fixedDecoder("room-101")

	r, err := d.Decode("23.5,45,120")
	require.NoError(t, err)
	assert.Equal(t, "room-101", r.RoomID)
	assert.Equal(t, 23.5, r.TemperatureC)
	assert.Equal(t, 45, r.MotionLevel)
	assert.Equal(t, 120, r.SoundLevel)
	assert.Equal(t, 14, r.Timestamp.Hour())
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	d := fixedDecoder("room-101")

	r, err := d.Decode("  21.0, 10 ,5\r")
	require.NoError(t, err)
	assert.Equal(t, 21.0, r.TemperatureC)
	assert.Equal(t, 10, r.MotionLevel)
	assert.Equal(t, 5, r.SoundLevel)
}

func TestDecodeNaNSentinelNormalizedToZero(t *testing.T) {
	d := fixedDecoder("room-101")

	for _, line := range []string{"nan,10,5", "NaN,10,5"} {
		r, err := d.Decode(line)
		require.NoError(t, err, line)
		assert.Equal(t, 0.0, r.TemperatureC, line)
		assert.Equal(t, 10, r.MotionLevel)
	}
}

func TestDecodeFieldCountMismatch(t *testing.T) {
	d := fixedDecoder("room-101")

	for _, line := range []string{"23.5,abc", "1,2,3,4", "23.5"} {
		_, err := d.Decode(line)
		var de *model.DecodeError
		require.ErrorAs(t, err, &de, line)
		assert.Equal(t, model.DecodeFieldCountMismatch, de.Kind, line)
	}
}

func TestDecodeNonNumericField(t *testing.T) {
	d := fixedDecoder("room-101")

	cases := []string{"abc,10,5", "23.5,abc,5", "23.5,10,abc", "23.5,1.5,5"}
	for _, line := range cases {
		_, err := d.Decode(line)
		var de *model.DecodeError
		require.ErrorAs(t, err, &de, line)
		assert.Equal(t, model.DecodeNonNumericField, de.Kind, line)
	}
}

func TestDecodeMalformedLine(t *testing.T) {
	d := fixedDecoder("room-101")

	for _, line := range []string{"", "   ", "\r\n"} {
		_, err := d.Decode(line)
		var de *model.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, model.DecodeMalformedLine, de.Kind)
	}
}
