package dao

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonotonicClock(t *testing.T) {
	start := time.Date(2023, 11, 2, 12, 0, 0, 0, time.UTC)

	src := NewManualClock(start)
	c := NewMonotonicClock(src)

	require.Equal(t, start, c.Now())

	src.Advance(time.Hour)
	require.Equal(t, start.Add(time.Hour), c.Now())

	// the source going back is not observed
	src.Set(start)
	require.Equal(t, start.Add(time.Hour), c.Now())

	src.Set(start.Add(2 * time.Hour))
	require.Equal(t, start.Add(2*time.Hour), c.Now())
}

func TestSystemClockIsUTC(t *testing.T) {
	require.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
