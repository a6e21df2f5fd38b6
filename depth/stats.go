package depth

const (
	// NearThreshold is the normalized depth above which a pixel counts as
	// occupancy evidence for points of interest.
	NearThreshold float32 = 0.8
)

// Stats summarizes a single frame.
type Stats struct {
	// Average is the normalized mean depth. Samples deeper than the running
	// reference count twice, so the value lies in [0, 2].
	Average float32
	// MinSample is the closest sample in the frame.
	MinSample uint16
	// MaxSample is the farthest sample in the frame.
	MaxSample uint16
}

// Accumulator receives the coordinates of every pixel beyond NearThreshold.
type Accumulator interface {
	Accumulate(x, y int)
}

// Normalize maps a raw sample into [0, 1].
func Normalize(sample uint16) float32 {
	return float32(sample) / float32(Resolution)
}

// ComputeStats runs one pass over the frame.
//
// Arguments:
//   - frame: The depth frame to summarize.
//   - reference: The previous normalized average depth. Samples above it are
//     weighted double, which emphasizes the scene receding over it approaching.
//   - triggers: Receives near-range pixels. May be nil.
//
// Returns:
//   - Stats: Average, min and max for the frame.
func ComputeStats(frame *Frame, reference float32, triggers Accumulator) Stats {
	stats := Stats{MinSample: Resolution, MaxSample: 0}
	if frame == nil || len(frame.Samples) == 0 {
		return Stats{}
	}

	var sum float64
	for p, sample := range frame.Samples {
		n := Normalize(sample)
		if n > reference {
			sum += 2 * float64(n)
		} else {
			sum += float64(n)
		}
		if sample < stats.MinSample {
			stats.MinSample = sample
		}
		if sample > stats.MaxSample {
			stats.MaxSample = sample
		}

		if triggers != nil && n > NearThreshold {
			y := p / frame.Width
			triggers.Accumulate(p-y*frame.Width, y)
		}
	}

	stats.Average = float32(sum / float64(len(frame.Samples)))
	return stats
}
