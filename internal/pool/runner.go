package pool

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// PanicError describes a panic recovered inside a unit of work.
type PanicError struct {
	Unit  int
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("unit %d panicked: %v", e.Unit, e.Value)
}

// FailureHandler is called for every unit of work that panicked.
// It may be called concurrently.
type FailureHandler func(err *PanicError)

// Run executes fn for units 0..n-1 on at most workers goroutines.
//
// A unit that panics is abandoned and reported to onFailure; the remaining
// units continue. No new units are scheduled once ctx is done, and in-flight
// units run to completion. Run returns ctx.Err() if the context ended before
// all units were scheduled.
func Run(ctx context.Context, workers, n int, fn func(ctx context.Context, unit int), onFailure FailureHandler) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		unit := i
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil && onFailure != nil {
					buf := make([]byte, 4096)
					buf = buf[:runtime.Stack(buf, false)]
					onFailure(&PanicError{Unit: unit, Value: r, Stack: buf})
				}
			}()
			fn(ctx, unit)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}
