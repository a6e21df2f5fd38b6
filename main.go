package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/lmittmann/tint"
	"github.com/nvr-ai/go-depthtrack/config"
	"github.com/nvr-ai/go-depthtrack/controller"
	"github.com/nvr-ai/go-depthtrack/depth"
	"github.com/nvr-ai/go-depthtrack/events"
	"github.com/nvr-ai/go-depthtrack/profiler"
	"github.com/nvr-ai/go-depthtrack/recorder"
	"github.com/nvr-ai/go-depthtrack/source"
)

const (
	// DefaultFPS is the tick rate of the analysis loop.
	DefaultFPS = 30
	// DefaultRecordDir is where recordings are written.
	DefaultRecordDir = "recordings"
)

// Supported movie file extensions
var supportedMovieExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".oni"}

// options holds the command line flags.
type options struct {
	configPath    string
	deviceID      int
	moviePath     string
	sequenceDir   string
	fps           int
	recordDir     string
	recordOnStart bool
	debug         bool
	report        time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the YAML configuration file")
	flag.IntVar(&opts.deviceID, "device", 0, "Depth sensor device ID")
	flag.StringVar(&opts.moviePath, "movie", "", "Looping movie used when the sensor is unavailable (.mp4, .avi, .mov, .mkv, .oni)")
	flag.StringVar(&opts.sequenceDir, "sequence", "", "Directory of frame-N images used when the sensor is unavailable")
	flag.IntVar(&opts.fps, "fps", DefaultFPS, "Analysis ticks per second")
	flag.StringVar(&opts.recordDir, "record", DefaultRecordDir, "Directory for recordings")
	flag.BoolVar(&opts.recordOnStart, "record-on-start", false, "Start recording immediately")
	flag.BoolVar(&opts.debug, "debug", false, "Enable per-frame debug logging")
	flag.DurationVar(&opts.report, "report", 10*time.Second, "Profiler report interval")
	flag.Parse()

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)
	slog.SetDefault(logger)

	if err := run(opts, logger); err != nil {
		logger.Error("depthtrack stopped", "error", err)
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) error {
	if opts.fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", opts.fps)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	client := osc.NewClient(cfg.OSC.Host, cfg.OSC.OutPort)
	inbox := events.NewInbox(events.DefaultInboxSize, logger)
	if err := inbox.Listen(fmt.Sprintf(":%d", cfg.OSC.InPort)); err != nil {
		return err
	}
	defer inbox.Close()

	if err := os.MkdirAll(opts.recordDir, 0o755); err != nil {
		return fmt.Errorf("failed to create recording directory: %w", err)
	}
	rec := recorder.New(opts.recordDir, depth.Width, depth.Height, logger)
	defer rec.Stop()
	if opts.recordOnStart {
		if _, err := rec.Start(); err != nil {
			logger.Warn("recording unavailable", "error", err)
		}
	}

	prof := profiler.New(profiler.Options{ReportInterval: opts.report}, logger)
	prof.Start(ctx)
	defer prof.Stop()

	pipeline, err := controller.NewPipeline(controller.PipelineOptions{
		Source:   src,
		Sender:   client,
		Inbox:    inbox,
		Recorder: rec,
		Profiler: prof,
		Tuning:   cfg.Tuning,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer pipeline.Close()

	logger.Info("depthtrack started",
		"events", fmt.Sprintf("%s:%d", cfg.OSC.Host, cfg.OSC.OutPort),
		"commands", cfg.OSC.InPort,
		"fps", opts.fps,
		"config", opts.configPath,
	)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP, syscall.SIGUSR1)
	defer signal.Stop(reload)

	ticker := time.NewTicker(time.Second / time.Duration(opts.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cfg.Tuning = pipeline.Tuning()
			if err := config.Save(opts.configPath, cfg); err != nil {
				logger.Warn("failed to save configuration", "error", err)
			}
			d := pipeline.Diagnostics()
			logger.Info("depthtrack stopping", "frames", d.Frames, "pois", d.POIs, "dropped_commands", d.Dropped)
			return nil

		case sig := <-reload:
			handleSignal(sig, opts.configPath, pipeline, rec, logger)

		case <-ticker.C:
			if _, err := pipeline.Tick(); err != nil {
				logger.Warn("frame skipped", "error", err)
			}
		}
	}
}

// handleSignal reloads tunables on SIGHUP and toggles recording on SIGUSR1.
func handleSignal(sig os.Signal, configPath string, pipeline *controller.Pipeline, rec *recorder.Recorder, logger *slog.Logger) {
	switch sig {
	case syscall.SIGHUP:
		cfg, err := config.Load(configPath)
		if err != nil {
			logger.Warn("keeping current tuning", "error", err)
			return
		}
		if err := pipeline.SetTuning(cfg.Tuning); err != nil {
			logger.Warn("keeping current tuning", "error", err)
		}
	case syscall.SIGUSR1:
		if err := rec.Toggle(); err != nil {
			logger.Warn("failed to toggle recording", "error", err)
		}
	}
}

// openSource prefers the live sensor and falls back to a movie or an image
// sequence when it cannot be opened.
func openSource(ctx context.Context, opts options, logger *slog.Logger) (source.Source, error) {
	sensor, err := source.OpenSensor(ctx, opts.deviceID, logger)
	if err == nil {
		return sensor, nil
	}
	logger.Warn("depth sensor unavailable", "device", opts.deviceID, "error", err)

	if opts.moviePath != "" {
		if !hasExtension(opts.moviePath, supportedMovieExtensions) {
			return nil, fmt.Errorf("unsupported movie format: %s", filepath.Ext(opts.moviePath))
		}
		logger.Info("using looping movie", "path", opts.moviePath)
		return source.OpenMovie(opts.moviePath, logger)
	}
	if opts.sequenceDir != "" {
		logger.Info("using looping image sequence", "dir", opts.sequenceDir)
		return source.OpenSequence(opts.sequenceDir)
	}
	return nil, fmt.Errorf("no frame source: sensor failed (%v) and neither -movie nor -sequence was given", err)
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
