package rnalign

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"github.com/hupe1980/rnalign/internal/pool"
	"github.com/hupe1980/rnalign/internal/search"
	"github.com/hupe1980/rnalign/model"
)

// Improvement logs are limited to this rate (per second) with a small burst.
// Workers can improve the best result many times per second early in a run.
const (
	improvementLogRate  = 5
	improvementLogBurst = 10
)

// Logger wraps slog.Logger with alignment-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger

	limiter *rate.Limiter
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger:  slog.New(handler),
		limiter: rate.NewLimiter(improvementLogRate, improvementLogBurst),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{
		Logger:  l.Logger.With(args...),
		limiter: l.limiter,
	}
}

// WithRunID tags every record with the run id.
func (l *Logger) WithRunID(id string) *Logger {
	return l.with("run_id", id)
}

// WithMethod adds the search method.
func (l *Logger) WithMethod(m Method) *Logger {
	return l.with("method", string(m))
}

// WithSizes adds the reference and target lengths.
func (l *Logger) WithSizes(ref, target int) *Logger {
	return l.with("reference_size", ref, "target_size", target)
}

// LogPhase logs the start of a search phase.
func (l *Logger) LogPhase(ctx context.Context, phase string, args ...any) {
	l.DebugContext(ctx, "phase started", append([]any{"phase", phase}, args...)...)
}

// LogImprovement logs a new best alignment. Records beyond the rate limit
// are dropped.
func (l *Logger) LogImprovement(ctx context.Context, kind string, aligned int, rmsd, incorrectRatio float64) {
	if l.limiter != nil && !l.limiter.Allow() {
		return
	}
	l.DebugContext(ctx, "best alignment improved",
		"kind", kind,
		"aligned", aligned,
		"rmsd", rmsd,
		"incorrect_ratio", incorrectRatio,
	)
}

// LogResult logs the outcome of a run.
func (l *Logger) LogResult(ctx context.Context, out *model.Output, err error) {
	if err != nil {
		l.ErrorContext(ctx, "alignment failed",
			"error", err,
		)
		return
	}
	if out.Aligned == 0 {
		l.InfoContext(ctx, "alignment not found",
			"elapsed", out.Elapsed,
		)
		return
	}
	l.InfoContext(ctx, "alignment completed",
		"aligned", out.Aligned,
		"rmsd", out.RMSD,
		"elapsed", out.Elapsed,
	)
}

// LogSearchStats logs the tracker's bookkeeping at the end of a search.
func (l *Logger) LogSearchStats(ctx context.Context, st search.Stats) {
	l.DebugContext(ctx, "search finished",
		"offers", st.Offers,
		"stagnation", st.Stagnation,
		"deadline", st.Deadline,
		"remaining", st.Remaining,
		"full_coverage", st.FullCoverage,
	)
}

// LogUnitFailure logs a recovered panic of one unit of work.
func (l *Logger) LogUnitFailure(ctx context.Context, phase string, err *pool.PanicError) {
	l.ErrorContext(ctx, "unit of work failed",
		"phase", phase,
		"unit", err.Unit,
		"error", err,
		"stack", string(err.Stack),
	)
}
