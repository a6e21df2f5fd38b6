package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mean(values []float32) float32 {
	if len(values) == 0 {
		return 0
	}
	var sum float32
	for _, v := range values {
		sum += v
	}
	return sum / float32(len(values))
}

func TestChangeWindowSingleSample(t *testing.T) {
	w := NewChangeWindow(DefaultWindowSize)
	w.SetPreviousAverage(0.10)

	got := w.Observe(0.30)

	assert.InDelta(t, 0.20, got, 1e-6)
	assert.InDelta(t, 0.20, w.Smoothed(), 1e-6)
	assert.InDelta(t, 0.30, w.PreviousAverage(), 1e-6)
	assert.Equal(t, 1, w.Len())
}

func TestChangeWindowIsNotIdempotent(t *testing.T) {
	w := NewChangeWindow(DefaultWindowSize)

	first := w.Observe(0.5)
	second := w.Observe(0.5)

	// First: delta 0.5, smoothed 0.5, instant 0.5.
	// Second: delta 0, smoothed 0.25, instant 0.25.
	assert.InDelta(t, 0.5, first, 1e-6)
	assert.InDelta(t, 0.25, second, 1e-6)
}

func TestChangeWindowEvictsOldestFirst(t *testing.T) {
	const capacity = 4
	w := NewChangeWindow(capacity)

	// Averages chosen so the deltas are 1, 3, 0.5, 2, 0.25, 5 in order.
	averages := []float32{1, 4, 4.5, 2.5, 2.75, 7.75}
	var deltas []float32
	prev := float32(0)
	for _, a := range averages {
		d := a - prev
		if d < 0 {
			d = -d
		}
		deltas = append(deltas, d)
		prev = a
	}

	for i, a := range averages {
		w.Observe(a)

		require.LessOrEqual(t, w.Len(), capacity)
		start := 0
		if i+1 > capacity {
			start = i + 1 - capacity
		}
		want := deltas[start : i+1]
		assert.Equal(t, want, w.Samples(), "step %d", i)
		assert.InDelta(t, mean(want), w.Smoothed(), 1e-5, "step %d", i)
	}

	// After capacity+2 observations the two oldest (1 and 3) are gone, even
	// though 3 is not the smallest sample.
	assert.Equal(t, []float32{0.5, 2, 0.25, 5}, w.Samples())
}

func TestChangeWindowInstantChange(t *testing.T) {
	w := NewChangeWindow(3)

	var prevSmoothed float32
	for _, a := range []float32{0.2, 0.1, 0.4, 0.4, 0.9, 0.3} {
		got := w.Observe(a)
		smoothed := w.Smoothed()
		diff := prevSmoothed - smoothed
		if diff < 0 {
			diff = -diff
		}
		assert.InDelta(t, diff, got, 1e-6)
		prevSmoothed = smoothed
	}
}

func TestChangeWindowReset(t *testing.T) {
	w := NewChangeWindow(0)
	assert.Equal(t, DefaultWindowSize, w.Cap())

	w.Observe(0.7)
	w.Observe(0.2)
	w.Reset()

	assert.Zero(t, w.Len())
	assert.Zero(t, w.Smoothed())
	assert.Zero(t, w.PreviousAverage())
	assert.Empty(t, w.Samples())
}
