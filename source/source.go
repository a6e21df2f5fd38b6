// Package source - Frame providers feeding the analysis pipeline.
//
// Three interchangeable providers exist: a live depth sensor, a looping movie
// file and a looping directory of still images. The pipeline only sees the
// Source interface and is indifferent to which one is in use, as long as the
// frames match the fixed sensor dimensions.
package source

import (
	"sync/atomic"

	"github.com/nvr-ai/go-depthtrack/depth"
)

// Source provides at most one depth frame per tick.
type Source interface {
	// Next returns the newest frame. ok is false when no new frame is
	// available, which is not an error.
	Next() (frame *depth.Frame, ok bool, err error)
	// Close releases the underlying device or file.
	Close() error
}

// Latest is a single-slot cell holding the newest captured frame.
//
// A capture goroutine calls Store; the processing goroutine calls Take. Each
// frame is fully built before it is published, and a frame that is never taken
// is simply replaced by the next one.
type Latest struct {
	frame atomic.Pointer[depth.Frame]
}

// Store publishes a frame, replacing any frame not yet taken.
func (l *Latest) Store(f *depth.Frame) {
	l.frame.Store(f)
}

// Take removes and returns the newest frame, if any.
func (l *Latest) Take() (*depth.Frame, bool) {
	f := l.frame.Swap(nil)
	return f, f != nil
}
