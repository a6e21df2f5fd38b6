// Package recorder - Writes processed frames to a movie file on operator
// request. Recording never feeds back into the analysis.
package recorder

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// DefaultCodec is the FourCC used for recordings.
	DefaultCodec = "MJPG"
	// DefaultFPS is the nominal frame rate written to the container.
	DefaultFPS = 30.0
)

// Recorder appends frames to a movie while active.
//
// Start and Stop may be called from a signal handler goroutine while the
// pipeline calls Write, so all methods are synchronized.
type Recorder struct {
	dir    string
	width  int
	height int
	fps    float64
	logger *slog.Logger

	mu     sync.Mutex
	writer *gocv.VideoWriter
	path   string
	frames int
}

// New creates an idle recorder writing width x height single-channel frames
// into dir.
func New(dir string, width, height int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		dir:    dir,
		width:  width,
		height: height,
		fps:    DefaultFPS,
		logger: logger,
	}
}

// FileName returns a unique recording name for the given start time.
func FileName(start time.Time) string {
	return fmt.Sprintf("depth-%s-%s.avi", start.Format("20060102-150405"), uuid.NewString()[:8])
}

// Start opens a new movie file. Starting an active recorder is a no-op.
//
// Returns:
//   - string: Path of the file being written.
//   - error: If the movie writer could not be created.
func (r *Recorder) Start() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer != nil {
		return r.path, nil
	}

	path := filepath.Join(r.dir, FileName(time.Now()))
	writer, err := gocv.VideoWriterFile(path, DefaultCodec, r.fps, r.width, r.height, false)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create movie writer for %s", path)
	}
	if !writer.IsOpened() {
		writer.Close()
		return "", errors.Errorf("movie writer for %s did not open", path)
	}

	r.writer = writer
	r.path = path
	r.frames = 0
	r.logger.Info("recording started", "path", path)
	return path, nil
}

// Stop finishes the current movie. Stopping an idle recorder is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil {
		return nil
	}
	err := r.writer.Close()
	r.logger.Info("recording stopped", "path", r.path, "frames", r.frames)
	r.writer = nil
	r.path = ""
	if err != nil {
		return errors.Wrap(err, "failed to finish movie")
	}
	return nil
}

// Toggle starts an idle recorder or stops an active one.
func (r *Recorder) Toggle() error {
	if r.Active() {
		return r.Stop()
	}
	_, err := r.Start()
	return err
}

// Active reports whether frames are being written.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer != nil
}

// Write appends a frame when recording. It is a no-op otherwise.
func (r *Recorder) Write(frame gocv.Mat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil || frame.Empty() {
		return nil
	}
	if err := r.writer.Write(frame); err != nil {
		return errors.Wrapf(err, "failed to write frame %d to %s", r.frames, r.path)
	}
	r.frames++
	return nil
}

// Frames returns the number of frames written to the current movie.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
