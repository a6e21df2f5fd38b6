package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nvr-ai/go-depthtrack/depth"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// SensorSource reads depth maps from an OpenNI2 device on a capture goroutine
// and hands the newest one to the pipeline through a Latest cell.
type SensorSource struct {
	capture *gocv.VideoCapture
	latest  Latest
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	lastErr error
}

// OpenSensor opens the depth device and starts capturing.
//
// Arguments:
//   - ctx: Stops the capture goroutine when cancelled.
//   - deviceID: Index of the OpenNI2 device.
//   - logger: Capture diagnostics. A nil logger uses slog.Default().
//
// Returns:
//   - *SensorSource: The running source.
//   - error: If no device could be opened.
func OpenSensor(ctx context.Context, deviceID int, logger *slog.Logger) (*SensorSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	capture, err := gocv.OpenVideoCaptureWithAPI(deviceID, gocv.VideoCaptureOpenNI2)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open depth sensor %d", deviceID)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("depth sensor %d is not available", deviceID)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &SensorSource{capture: capture, logger: logger, cancel: cancel}
	s.wg.Add(1)
	go s.run(ctx)

	logger.Info("depth sensor opened", "device", deviceID)
	return s, nil
}

func (s *SensorSource) run(ctx context.Context) {
	defer s.wg.Done()

	mat := gocv.NewMat()
	defer mat.Close()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ok := s.capture.Read(&mat); !ok || mat.Empty() {
			failures++
			if failures == 1 || failures%100 == 0 {
				s.logger.Warn("no depth frame from sensor", "failures", failures)
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		failures = 0

		frame, err := FrameFromMat(mat)
		if err != nil {
			s.setErr(err)
			continue
		}
		s.latest.Store(frame)
	}
}

func (s *SensorSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Next returns the newest captured frame, if one arrived since the last call.
// A conversion failure on the capture goroutine is reported once.
func (s *SensorSource) Next() (*depth.Frame, bool, error) {
	s.mu.Lock()
	err := s.lastErr
	s.lastErr = nil
	s.mu.Unlock()
	if err != nil {
		return nil, false, err
	}

	f, ok := s.latest.Take()
	return f, ok, nil
}

// Close stops capturing and releases the device.
func (s *SensorSource) Close() error {
	s.cancel()
	s.wg.Wait()
	return s.capture.Close()
}
