// Package controller - This file contains the pipeline that routes each depth
// frame through statistics, change smoothing, blob extraction and event
// publication.
package controller

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hypebeast/go-osc/osc"
	"github.com/nvr-ai/go-depthtrack/config"
	"github.com/nvr-ai/go-depthtrack/depth"
	"github.com/nvr-ai/go-depthtrack/events"
	"github.com/nvr-ai/go-depthtrack/images"
	"github.com/nvr-ai/go-depthtrack/poi"
	"github.com/nvr-ai/go-depthtrack/profiler"
	"github.com/nvr-ai/go-depthtrack/recorder"
	"github.com/nvr-ai/go-depthtrack/source"
)

// PipelineOptions wires a Pipeline to its collaborators.
type PipelineOptions struct {
	// Source provides frames. Required.
	Source source.Source
	// Sender delivers outbound events. A nil sender disables publishing.
	Sender events.Sender
	// Inbox holds inbound commands. Optional.
	Inbox *events.Inbox
	// Recorder receives the preprocessed frame while active. Optional.
	Recorder *recorder.Recorder
	// Profiler tracks per-stage timings. Optional.
	Profiler *profiler.TickProfiler
	// Tuning is the initial set of tunables.
	Tuning config.Tuning
	// WindowSize is the change window capacity (default: DefaultWindowSize).
	WindowSize int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Diagnostics is a snapshot of the most recent analyzed frame.
type Diagnostics struct {
	Frames      int
	Stats       depth.Stats
	Activity    float32
	Smoothed    float32
	BlobCount   int
	LevelCounts []int
	POIs        int
	Armed       []string
	Dropped     uint64
	Sent        map[string]int
}

// Pipeline runs one analysis pass per Tick. All analysis happens on the
// goroutine calling Tick; only SetTuning may be called concurrently.
type Pipeline struct {
	source       source.Source
	window       *ChangeWindow
	registry     *poi.Registry
	preprocessor *images.Preprocessor
	extractor    *images.BlobExtractor
	publisher    *events.Publisher
	inbox        *events.Inbox
	recorder     *recorder.Recorder
	profiler     *profiler.TickProfiler
	logger       *slog.Logger

	mu      sync.Mutex
	pending *config.Tuning

	diag Diagnostics
}

// NewPipeline creates a pipeline.
//
// Arguments:
//   - opts: The collaborators and initial tunables.
//
// Returns:
//   - *Pipeline: The pipeline. Call Close() to release native resources.
//   - error: If the source is missing or the tuning is out of range.
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline requires a frame source")
	}
	if err := opts.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		source:       opts.Source,
		window:       NewChangeWindow(opts.WindowSize),
		registry:     poi.NewRegistry(),
		preprocessor: images.NewPreprocessor(opts.Tuning.Preprocess()),
		extractor:    images.NewBlobExtractor(opts.Tuning.StepSize),
		publisher:    events.NewPublisher(opts.Sender, logger),
		inbox:        opts.Inbox,
		recorder:     opts.Recorder,
		profiler:     opts.Profiler,
		logger:       logger,
	}, nil
}

// Tick analyzes at most one frame and then handles queued commands.
//
// Returns:
//   - bool: Whether a frame was analyzed.
//   - error: If the source failed or delivered an unusable frame. Commands are
//     still handled in that case.
func (p *Pipeline) Tick() (bool, error) {
	done := p.profiler.StartOperation("tick")
	defer done()

	p.applyPendingTuning()
	p.registry.ResetAllTriggers()

	analyzed, err := p.analyze()
	p.handleCommands()
	return analyzed, err
}

func (p *Pipeline) analyze() (bool, error) {
	frame, ok, err := p.source.Next()
	if err != nil {
		return false, fmt.Errorf("failed to read frame: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := frame.Validate(); err != nil {
		return false, fmt.Errorf("skipping frame: %w", err)
	}

	end := p.profiler.StartOperation("stats")
	stats := depth.ComputeStats(frame, p.window.PreviousAverage(), p.registry)
	activity := p.window.Observe(stats.Average)
	end()

	end = p.profiler.StartOperation("preprocess")
	processed, err := p.preprocessor.Process(frame)
	end()
	if err != nil {
		processed.Close()
		return false, fmt.Errorf("failed to preprocess frame: %w", err)
	}

	end = p.profiler.StartOperation("sweep")
	blobs := p.extractor.Extract(processed)
	end()

	if p.recorder != nil {
		if err := p.recorder.Write(processed); err != nil {
			p.logger.Warn("failed to record frame", "error", err)
		}
	}

	armed := p.registry.Armed()
	p.publisher.PublishActivity(activity)
	p.publisher.PublishBlobs(blobs)
	p.publisher.PublishTriggers(armed)

	p.profiler.RecordMetric("activity", float64(activity))
	p.profiler.RecordMetric("blobs", float64(blobs.Count()))

	ids := make([]string, len(armed))
	for i, point := range armed {
		ids[i] = point.ID
	}
	p.diag.Frames++
	p.diag.Stats = stats
	p.diag.Activity = activity
	p.diag.Smoothed = p.window.Smoothed()
	p.diag.BlobCount = blobs.Count()
	p.diag.LevelCounts = p.extractor.LevelCounts()
	p.diag.Armed = ids

	p.logger.Debug("frame analyzed",
		"average", stats.Average,
		"activity", activity,
		"blobs", blobs.Count(),
		"armed", len(armed),
	)
	return true, nil
}

// handleCommands drains the inbox. Bad commands are logged and dropped.
func (p *Pipeline) handleCommands() {
	if p.inbox == nil {
		return
	}
	p.inbox.Drain(func(msg *osc.Message) {
		cmd, err := events.DecodeCommand(msg)
		if err != nil {
			p.logger.Warn("ignoring OSC command", "address", msg.Address, "error", err)
			return
		}
		point := p.registry.Add(cmd.ID, cmd.X, cmd.Y, cmd.Radius)
		p.logger.Info("point of interest added",
			"id", point.ID,
			"x", point.Position.X,
			"y", point.Position.Y,
			"radius", point.Radius,
		)
	})
}

// SetTuning queues new tunables. They take effect at the start of the next
// tick; invalid values are rejected and the current ones kept.
func (p *Pipeline) SetTuning(t config.Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.pending = &t
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) applyPendingTuning() {
	p.mu.Lock()
	t := p.pending
	p.pending = nil
	p.mu.Unlock()

	if t == nil {
		return
	}
	p.preprocessor.Config = t.Preprocess()
	p.extractor.StepSize = t.StepSize
	p.logger.Info("tuning applied",
		"step_size", t.StepSize,
		"blur_amount", t.BlurAmount,
		"contrast", t.Contrast,
		"brightness", t.Brightness,
		"threshold", t.Threshold,
	)
}

// Tuning returns the tunables in effect, ignoring any not yet applied.
func (p *Pipeline) Tuning() config.Tuning {
	c := p.preprocessor.Config
	return config.Tuning{
		StepSize:   p.extractor.StepSize,
		BlurAmount: c.BlurAmount,
		Contrast:   c.Contrast,
		Brightness: c.Brightness,
		Threshold:  c.Threshold,
	}
}

// Registry exposes the points of interest.
func (p *Pipeline) Registry() *poi.Registry {
	return p.registry
}

// Window exposes the change window.
func (p *Pipeline) Window() *ChangeWindow {
	return p.window
}

// Diagnostics returns a snapshot of the last analyzed frame.
func (p *Pipeline) Diagnostics() Diagnostics {
	d := p.diag
	d.LevelCounts = append([]int(nil), p.diag.LevelCounts...)
	d.Armed = append([]string(nil), p.diag.Armed...)
	d.POIs = p.registry.Len()
	d.Sent = p.publisher.Sent()
	if p.inbox != nil {
		d.Dropped = p.inbox.Dropped()
	}
	return d
}

// Close releases the native resources owned by the pipeline. The source,
// inbox and recorder belong to the caller.
func (p *Pipeline) Close() {
	p.preprocessor.Close()
	p.extractor.Close()
}
