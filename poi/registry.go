// Package poi - Points of interest and their per-frame trigger accumulation.
package poi

import (
	"image"
	"math"

	"github.com/nvr-ai/go-depthtrack/depth"
)

// FireThreshold is the number of near-range pixels a point of interest must
// collect within one frame before it is armed.
const FireThreshold = 40

// PointOfInterest is a named circular region evaluated every frame for
// occupancy evidence.
type PointOfInterest struct {
	// ID is the caller supplied label. It is not required to be unique.
	ID string
	// Position is the center in pixel coordinates.
	Position image.Point
	// Radius is in pixels.
	Radius int32
	// TriggerCount is the evidence collected during the current frame.
	TriggerCount uint16
}

// Armed reports whether the point has reached the firing threshold.
func (p PointOfInterest) Armed() bool {
	return p.TriggerCount >= FireThreshold
}

// Contains reports whether (x, y) lies within the radius.
func (p PointOfInterest) Contains(x, y int) bool {
	dx := int64(x - p.Position.X)
	dy := int64(y - p.Position.Y)
	r := int64(p.Radius)
	return dx*dx+dy*dy <= r*r
}

// Registry owns the active points of interest.
//
// Trigger counts are not latched: ResetAllTriggers runs at the start of every
// frame, so an armed point fires again on each frame where the evidence
// persists and goes quiet as soon as it does not. There is no cool-down and no
// acknowledgment.
//
// A Registry is not safe for concurrent use; it is owned by the pipeline.
type Registry struct {
	width  int
	height int
	points []PointOfInterest
}

// NewRegistry creates an empty registry scaled to the fixed frame dimensions.
func NewRegistry() *Registry {
	return NewRegistryWithSize(depth.Width, depth.Height)
}

// NewRegistryWithSize creates an empty registry for a custom frame size.
func NewRegistryWithSize(width, height int) *Registry {
	return &Registry{width: width, height: height}
}

// Add appends a point of interest.
//
// Arguments:
//   - id: Label reported when the point fires.
//   - normalizedX, normalizedY: Position in [0, 1], scaled by frame size.
//   - radius: Radius in pixels.
//
// Returns:
//   - PointOfInterest: The stored point, with TriggerCount 0.
//
// Duplicates, non-positive radii and out-of-frame positions are accepted as is.
func (r *Registry) Add(id string, normalizedX, normalizedY float32, radius int32) PointOfInterest {
	p := PointOfInterest{
		ID: id,
		Position: image.Pt(
			int(math.Round(float64(normalizedX)*float64(r.width))),
			int(math.Round(float64(normalizedY)*float64(r.height))),
		),
		Radius: radius,
	}
	r.points = append(r.points, p)
	return p
}

// ResetAllTriggers zeroes every trigger count.
func (r *Registry) ResetAllTriggers() {
	for i := range r.points {
		r.points[i].TriggerCount = 0
	}
}

// Accumulate credits a near-range pixel to every point still below the
// firing threshold that contains it. Armed points stay frozen until the next
// reset.
func (r *Registry) Accumulate(x, y int) {
	for i := range r.points {
		p := &r.points[i]
		if p.TriggerCount >= FireThreshold || !p.Contains(x, y) {
			continue
		}
		p.TriggerCount++
	}
}

// Armed returns the points that reached the threshold this frame, in
// insertion order.
func (r *Registry) Armed() []PointOfInterest {
	var armed []PointOfInterest
	for _, p := range r.points {
		if p.Armed() {
			armed = append(armed, p)
		}
	}
	return armed
}

// All returns a copy of every point of interest.
func (r *Registry) All() []PointOfInterest {
	out := make([]PointOfInterest, len(r.points))
	copy(out, r.points)
	return out
}

// Len returns the number of registered points.
func (r *Registry) Len() int {
	return len(r.points)
}
