package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowFor_MidMonth(t *testing.T) {
	w := WindowFor(time.Date(2026, time.August, 21, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, "p202608", w.Suffix())
}

func TestWindowFor_BoundaryInstants(t *testing.T) {
	monthStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	// The first instant of a month belongs to that month.
	w := WindowFor(monthStart)
	assert.Equal(t, monthStart, w.Start)
	assert.True(t, w.Contains(monthStart))

	// The last instant before the boundary still belongs to the prior month.
	lastNano := monthStart.Add(-time.Nanosecond)
	prior := WindowFor(lastNano)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), prior.Start)
	assert.True(t, prior.Contains(lastNano))
	assert.False(t, prior.Contains(monthStart))
}

func TestWindowFor_NonUTCInput(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2026-07-01 05:00 +10:00 is still 2026-06-30 19:00 UTC.
	w := WindowFor(time.Date(2026, time.July, 1, 5, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC), w.Start)
}

func TestWindowFor_YearRollover(t *testing.T) {
	w := WindowFor(time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, "p202612", w.Suffix())
	next := w.Next()
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), next.Start)
	assert.Equal(t, "p202701", next.Suffix())
}

func TestWindowFor_Deterministic(t *testing.T) {
	instant := time.Date(2026, time.May, 14, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, WindowFor(instant), WindowFor(instant))
}

func TestWindows_ContiguousNonOverlapping(t *testing.T) {
	w := WindowFor(time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 24; i++ {
		next := w.Next()
		assert.Equal(t, w.End, next.Start)
		assert.False(t, w.Contains(next.Start))
		assert.True(t, next.Contains(next.Start))
		w = next
	}
}
