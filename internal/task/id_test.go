package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDGeneratorUsesClock(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	g := NewIDGenerator(func() time.Time { return now })
	assert.Equal(t, int64(1_700_000_000_000), g.Next())
}

func TestIDGeneratorNeverRepeatsWithinATick(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	g := NewIDGenerator(func() time.Time { return frozen })

	seen := make(map[int64]bool)
	var prev int64
	for i := 0; i < 100; i++ {
		id := g.Next()
		assert.False(t, seen[id], "duplicate id %d", id)
		assert.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
}

func TestIDGeneratorSurvivesClockGoingBackwards(t *testing.T) {
	now := time.UnixMilli(2000)
	g := NewIDGenerator(func() time.Time { return now })
	first := g.Next()

	now = time.UnixMilli(1000)
	assert.Equal(t, first+1, g.Next())
}

func TestIDGeneratorObserve(t *testing.T) {
	g := NewIDGenerator(func() time.Time { return time.UnixMilli(10) })
	g.Observe(500)
	g.Observe(20)
	assert.Equal(t, int64(501), g.Next())
}
