// Package depth - Depth frame definition and per-frame statistics.
package depth

import (
	"fmt"
	"image"
	"image/color"
)

const (
	// Width is the fixed horizontal resolution of every depth frame.
	Width = 640
	// Height is the fixed vertical resolution of every depth frame.
	Height = 480
	// Resolution is the largest sample value a depth frame can carry.
	Resolution = 65535
)

// Frame is a single depth snapshot: one relative distance sample per pixel,
// stored row-major.
//
// A Frame is owned by the pipeline for the duration of one tick and must not be
// mutated once handed over.
type Frame struct {
	// Width is the number of samples per row.
	Width int
	// Height is the number of rows.
	Height int
	// Samples holds Width*Height values in [0, Resolution].
	Samples []uint16
}

// NewFrame allocates a zeroed frame with the fixed sensor dimensions.
func NewFrame() *Frame {
	return &Frame{
		Width:   Width,
		Height:  Height,
		Samples: make([]uint16, Width*Height),
	}
}

// Filled returns a frame with every sample set to value.
func Filled(value uint16) *Frame {
	f := NewFrame()
	for i := range f.Samples {
		f.Samples[i] = value
	}
	return f
}

// At returns the sample at (x, y).
func (f *Frame) At(x, y int) uint16 {
	return f.Samples[y*f.Width+x]
}

// Set writes the sample at (x, y).
func (f *Frame) Set(x, y int, v uint16) {
	f.Samples[y*f.Width+x] = v
}

// Validate checks that the frame matches the fixed sensor dimensions.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("depth frame is nil")
	}
	if f.Width != Width || f.Height != Height {
		return fmt.Errorf("depth frame is %dx%d, expected %dx%d", f.Width, f.Height, Width, Height)
	}
	if len(f.Samples) != f.Width*f.Height {
		return fmt.Errorf("depth frame has %d samples, expected %d", len(f.Samples), f.Width*f.Height)
	}
	return nil
}

// GrayBytes reduces every sample to 8 bits, the single-channel
// representation consumed by the blob path.
func (f *Frame) GrayBytes() []byte {
	out := make([]byte, len(f.Samples))
	for i, s := range f.Samples {
		out[i] = uint8(s >> 8)
	}
	return out
}

// FromImage converts any image into a depth frame by taking the 16-bit
// luminance of each pixel.
//
// *image.Gray16 and *image.Gray are copied directly; other models go through
// color.Gray16Model. The result has the image's own dimensions and should be
// validated (or resized beforehand) by the caller.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := &Frame{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Samples: make([]uint16, b.Dx()*b.Dy()),
	}

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				f.Samples[y*f.Width+x] = src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
	case *image.Gray:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				// 0xff * 257 == 0xffff
				f.Samples[y*f.Width+x] = uint16(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y) * 257
			}
		}
	default:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				f.Samples[y*f.Width+x] = g.Y
			}
		}
	}
	return f
}

// FromGray8 builds a frame from 8-bit single-channel bytes, widening each
// value to the full sample range.
func FromGray8(width, height int, data []byte) (*Frame, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("gray buffer has %d bytes, expected %d", len(data), width*height)
	}
	f := &Frame{Width: width, Height: height, Samples: make([]uint16, width*height)}
	for i, v := range data {
		f.Samples[i] = uint16(v) * 257
	}
	return f, nil
}

// FromSamples wraps a 16-bit buffer, copying it so the frame owns its data.
func FromSamples(width, height int, data []uint16) (*Frame, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("depth buffer has %d samples, expected %d", len(data), width*height)
	}
	f := &Frame{Width: width, Height: height, Samples: make([]uint16, len(data))}
	copy(f.Samples, data)
	return f, nil
}
