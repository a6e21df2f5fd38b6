// Package profiler - Per-tick timing and metric tracking for the pipeline.
package profiler

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Summary is the aggregate of one tracked series.
type Summary struct {
	Name  string
	Avg   float64
	Min   float64
	Max   float64
	Count int64
	// Window is the number of samples the average covers.
	Window int
}

// series keeps the most recent samples of one metric. Min and max cover the
// whole lifetime, the average only the retained window.
type series struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

func (s *series) add(v float64, limit int) {
	if s.count == 0 {
		s.min, s.max = v, v
	}
	s.values = append(s.values, v)
	s.sum += v
	if len(s.values) > limit {
		s.sum -= s.values[0]
		s.values = s.values[1:]
	}
	s.count++
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
}

func (s *series) summary(name string) Summary {
	out := Summary{Name: name, Min: s.min, Max: s.max, Count: s.count, Window: len(s.values)}
	if len(s.values) > 0 {
		out.Avg = s.sum / float64(len(s.values))
	}
	return out
}

// Options configures a TickProfiler.
type Options struct {
	// ReportInterval specifies how often to log a report (default: 10s).
	ReportInterval time.Duration
	// MaxSamples bounds each series (default: 300).
	MaxSamples int
}

// TickProfiler records operation durations (in milliseconds) and arbitrary
// values such as blob counts. It is safe for concurrent use; the reporter runs
// on its own goroutine.
type TickProfiler struct {
	interval   time.Duration
	maxSamples int
	logger     *slog.Logger
	startTime  time.Time

	mu         sync.Mutex
	metrics    map[string]*series
	operations map[string]*series

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a profiler. A nil logger uses slog.Default().
func New(opts Options, logger *slog.Logger) *TickProfiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 10 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 300
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TickProfiler{
		interval:   opts.ReportInterval,
		maxSamples: opts.MaxSamples,
		logger:     logger,
		startTime:  time.Now(),
		metrics:    make(map[string]*series),
		operations: make(map[string]*series),
	}
}

// RecordMetric records a value for a named metric.
func (p *TickProfiler) RecordMetric(name string, value float64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.metrics[name]
	if !ok {
		s = &series{}
		p.metrics[name] = s
	}
	s.add(value, p.maxSamples)
}

// StartOperation begins timing an operation and returns the function that
// ends it.
//
// @example
// done := p.StartOperation("tick")
// defer done()
func (p *TickProfiler) StartOperation(name string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.RecordDuration(name, time.Since(start))
	}
}

// RecordDuration records a completed operation.
func (p *TickProfiler) RecordDuration(name string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.operations[name]
	if !ok {
		s = &series{}
		p.operations[name] = s
	}
	s.add(float64(d)/float64(time.Millisecond), p.maxSamples)
}

// Metrics returns the metric summaries sorted by name.
func (p *TickProfiler) Metrics() []Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return summarize(p.metrics)
}

// Operations returns the operation summaries, in milliseconds, sorted by name.
func (p *TickProfiler) Operations() []Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return summarize(p.operations)
}

func summarize(m map[string]*series) []Summary {
	out := make([]Summary, 0, len(m))
	for name, s := range m {
		out = append(out, s.summary(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start logs a report every interval until ctx is cancelled or Stop is called.
func (p *TickProfiler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Report()
			}
		}
	}()
}

// Stop ends the reporter and waits for it.
func (p *TickProfiler) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Report logs the current summaries once.
func (p *TickProfiler) Report() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.logger.Info("profiler report",
		"uptime", time.Since(p.startTime).Truncate(time.Second),
		"goroutines", runtime.NumGoroutine(),
		"heap_alloc", mem.HeapAlloc,
	)
	for _, s := range p.Operations() {
		p.logger.Info("operation", "name", s.Name, "avg_ms", s.Avg, "min_ms", s.Min, "max_ms", s.Max, "count", s.Count)
	}
	for _, s := range p.Metrics() {
		p.logger.Info("metric", "name", s.Name, "avg", s.Avg, "min", s.Min, "max", s.Max, "count", s.Count)
	}
}
