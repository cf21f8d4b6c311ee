package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldProcessSuppressesRepeats(t *testing.T) {
	d := New(time.Minute, 100)

	assert.True(t, d.ShouldProcess("frame-1"))
	assert.False(t, d.ShouldProcess("frame-1"))
	assert.True(t, d.ShouldProcess("frame-2"))
	assert.False(t, d.ShouldProcess("frame-2"))
	assert.False(t, d.ShouldProcess("frame-1"))
}

func TestShouldProcessEmptyIDAlwaysPasses(t *testing.T) {
	d := New(time.Minute, 100)

	assert.True(t, d.ShouldProcess(""))
	assert.True(t, d.ShouldProcess(""))
}

func TestExpiredEntriesAreReprocessed(t *testing.T) {
	d := New(10*time.Millisecond, 100)

	assert.True(t, d.ShouldProcess("frame-1"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, d.ShouldProcess("frame-1"))
}

func TestCapBoundsMemory(t *testing.T) {
	d := New(time.Hour, 10)

	for i := 0; i < 100; i++ {
		d.ShouldProcess(fmt.Sprintf("frame-%d", i))
	}
	assert.LessOrEqual(t, len(d.seen), 10)
}

func TestDefaultsApplied(t *testing.T) {
	d := New(0, 0)
	assert.Equal(t, 10*time.Minute, d.ttl)
	assert.Equal(t, 10000, d.cap)
}
