package rnalign

import (
	"math/rand"
	"time"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	rng              *rand.Rand
	now              func() time.Time
	runID            string
}

// Option configures an Align call.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, NoopLogger is used.
//
// Example:
//
//	out, err := rnalign.Align(ctx, ref, target, cfg,
//	    rnalign.WithLogger(rnalign.NewJSONLogger(slog.LevelDebug)))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithRand sets the random source of the run. It takes precedence over
// Config.Seed. The source is only used from the calling goroutine; worker
// streams are seeded from it.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithRunID sets the run id attached to log records. A random UUID is used
// by default.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// WithClock overrides the wall clock used for deadlines.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(cfg Config, opts []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		now:              time.Now,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = o.now().UnixNano()
		}
		o.rng = rand.New(rand.NewSource(seed)) // nolint gosec
	}
	return o
}
