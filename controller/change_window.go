// Package controller - Sliding-window smoothing of frame-to-frame depth change.
package controller

import "github.com/chewxy/math32"

// DefaultWindowSize is the number of change samples retained by default.
const DefaultWindowSize = 12

// ChangeWindow keeps the most recent absolute changes in average depth and
// turns them into an activity signal.
//
// The window is a fixed-capacity ring: once full, the oldest sample is evicted
// to admit the newest. Observe is order dependent because it retains the
// previous average depth and the previous smoothed value.
type ChangeWindow struct {
	samples []float32
	head    int
	size    int

	previousAverage  float32
	previousSmoothed float32
}

// NewChangeWindow creates a window retaining at most capacity samples.
// A non-positive capacity falls back to DefaultWindowSize.
func NewChangeWindow(capacity int) *ChangeWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &ChangeWindow{samples: make([]float32, capacity)}
}

// Observe records a new frame average and returns the instant change.
//
// Arguments:
//   - averageDepth: The normalized average depth of the current frame.
//
// Returns:
//   - float32: |previous smoothed change - current smoothed change|, where the
//     smoothed change is the mean of every sample currently in the window.
//
// @example
// w := NewChangeWindow(DefaultWindowSize)
// w.SetPreviousAverage(0.10)
// w.Observe(0.30) // 0.20
func (w *ChangeWindow) Observe(averageDepth float32) float32 {
	w.push(math32.Abs(w.previousAverage - averageDepth))

	smoothed := w.Smoothed()
	instant := math32.Abs(w.previousSmoothed - smoothed)

	w.previousSmoothed = smoothed
	w.previousAverage = averageDepth
	return instant
}

func (w *ChangeWindow) push(delta float32) {
	capacity := len(w.samples)
	if w.size < capacity {
		w.samples[(w.head+w.size)%capacity] = delta
		w.size++
		return
	}
	w.samples[w.head] = delta
	w.head = (w.head + 1) % capacity
}

// Smoothed returns the arithmetic mean of the retained samples, or 0 when the
// window is empty.
func (w *ChangeWindow) Smoothed() float32 {
	if w.size == 0 {
		return 0
	}
	var sum float32
	for i := 0; i < w.size; i++ {
		sum += w.samples[(w.head+i)%len(w.samples)]
	}
	return sum / float32(w.size)
}

// Samples returns the retained samples, oldest first.
func (w *ChangeWindow) Samples() []float32 {
	out := make([]float32, w.size)
	for i := range out {
		out[i] = w.samples[(w.head+i)%len(w.samples)]
	}
	return out
}

// Len returns the number of retained samples.
func (w *ChangeWindow) Len() int { return w.size }

// Cap returns the window capacity.
func (w *ChangeWindow) Cap() int { return len(w.samples) }

// PreviousAverage returns the average depth of the last observed frame. It is
// also the weighting reference for the next statistics pass.
func (w *ChangeWindow) PreviousAverage() float32 { return w.previousAverage }

// SetPreviousAverage seeds the running reference, typically when resuming from
// a known scene.
func (w *ChangeWindow) SetPreviousAverage(v float32) { w.previousAverage = v }

// Reset clears the samples and the running state.
func (w *ChangeWindow) Reset() {
	w.head = 0
	w.size = 0
	w.previousAverage = 0
	w.previousSmoothed = 0
}
