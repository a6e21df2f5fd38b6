// Package images - This file contains the multi-threshold blob extraction
// using OpenCV (via gocv).
//
// The BlobExtractor sweeps a binarization threshold across the full 8-bit
// range and keeps the outer contours found at every level:
//
// ┌──────────────────────┐
// │ Preprocessed frame   │
// └──────┬───────────────┘
// ┌──────────────────────────────────────┐
// │ for t := 0; t <= 255; t += step      │
// │   Threshold (binary at t)            │
// │   FindContours (external, simple)    │
// │   append to BlobSet                  │
// └──────┬───────────────────────────────┘
// ┌──────────────────────┐
// │ BlobSet              │
// └──────────────────────┘
//
// Contours are never merged across levels, so one physical blob usually shows
// up several times. The count is used downstream as a coarse density proxy,
// not as an object count.
//
// Note: You must call Close() when finished to release native resources.
package images

import (
	"image"

	"gocv.io/x/gocv"
)

// DefaultStepSize is the default distance between sweep levels.
const DefaultStepSize = 52

// BlobSet is every contour found during one sweep, in discovery order.
type BlobSet [][]image.Point

// Count returns the number of contours.
func (b BlobSet) Count() int {
	return len(b)
}

// SweepLevels returns the thresholds visited for a step size: 0, step,
// 2*step, ... up to and including 255 when a step lands on it.
//
// A step below 1 is treated as 1.
func SweepLevels(step int) []int {
	if step < 1 {
		step = 1
	}
	levels := make([]int, 0, 255/step+1)
	for t := 0; t <= 255; t += step {
		levels = append(levels, t)
	}
	return levels
}

// BlobExtractor holds the scratch matrix reused across frames.
type BlobExtractor struct {
	StepSize  int      // Distance between sweep levels
	Threshold gocv.Mat // Binary mask of the current level
	last      BlobSet
	perLevel  []int
}

// NewBlobExtractor constructs an extractor with the given sweep step.
//
// Always call Close() to release memory.
func NewBlobExtractor(step int) *BlobExtractor {
	return &BlobExtractor{
		StepSize:  step,
		Threshold: gocv.NewMat(),
	}
}

// Extract runs the sweep over a preprocessed single-channel frame.
//
// Arguments:
//   - gray: An 8-bit single-channel frame. It is not modified.
//
// Returns:
//   - BlobSet: Every external contour of every level, with collinear points
//     elided.
func (b *BlobExtractor) Extract(gray gocv.Mat) BlobSet {
	levels := SweepLevels(b.StepSize)
	blobs := BlobSet{}
	b.perLevel = b.perLevel[:0]

	if gray.Empty() {
		b.last = blobs
		return blobs
	}

	for _, t := range levels {
		gocv.Threshold(gray, &b.Threshold, float32(t), 255, gocv.ThresholdBinary)

		contours := gocv.FindContours(b.Threshold, gocv.RetrievalExternal, gocv.ChainApproxSimple)
		for i := 0; i < contours.Size(); i++ {
			blobs = append(blobs, contours.At(i).ToPoints())
		}
		b.perLevel = append(b.perLevel, contours.Size())
		contours.Close()
	}

	b.last = blobs
	return blobs
}

// BlobCount returns the size of the most recent blob set.
func (b *BlobExtractor) BlobCount() int {
	return len(b.last)
}

// LevelCounts returns the number of contours found at each sweep level during
// the most recent Extract.
func (b *BlobExtractor) LevelCounts() []int {
	out := make([]int, len(b.perLevel))
	copy(out, b.perLevel)
	return out
}

// Close releases all OpenCV native resources used by the extractor.
func (b *BlobExtractor) Close() {
	b.Threshold.Close()
}
