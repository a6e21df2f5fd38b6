package source

import (
	"log/slog"

	"github.com/nvr-ai/go-depthtrack/depth"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MovieSource plays a pre-recorded movie in a loop, one frame per tick.
type MovieSource struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	path    string
	logger  *slog.Logger
	loops   int
}

// OpenMovie opens a movie file for looping playback.
func OpenMovie(path string, logger *slog.Logger) (*MovieSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load movie %s", path)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("unable to load movie %s", path)
	}

	logger.Info("movie loaded",
		"path", path,
		"width", capture.Get(gocv.VideoCaptureFrameWidth),
		"height", capture.Get(gocv.VideoCaptureFrameHeight),
		"frames", capture.Get(gocv.VideoCaptureFrameCount),
		"fps", capture.Get(gocv.VideoCaptureFPS),
	)

	return &MovieSource{
		capture: capture,
		frame:   gocv.NewMat(),
		path:    path,
		logger:  logger,
	}, nil
}

// Next decodes the next movie frame, rewinding to the start at the end of the
// file. A movie always has a frame available.
func (m *MovieSource) Next() (*depth.Frame, bool, error) {
	if !m.read() {
		m.capture.Set(gocv.VideoCapturePosFrames, 0)
		m.loops++
		m.logger.Debug("movie rewound", "path", m.path, "loops", m.loops)
		if !m.read() {
			return nil, false, errors.Errorf("no frames could be read from %s", m.path)
		}
	}

	frame, err := FrameFromMat(m.frame)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to convert frame from %s", m.path)
	}
	return frame, true, nil
}

func (m *MovieSource) read() bool {
	return m.capture.Read(&m.frame) && !m.frame.Empty()
}

// Loops returns how many times playback wrapped around.
func (m *MovieSource) Loops() int {
	return m.loops
}

// Close releases the movie file.
func (m *MovieSource) Close() error {
	m.frame.Close()
	return m.capture.Close()
}
