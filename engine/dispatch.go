package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/Konsultn-Engineering/sqlrepo/descriptor"
	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
)

// Work is the resolved chain of one invocation.
type Work func(ctx context.Context) (*Outcome, error)

// Future is the pending result of work scheduled on the dispatcher.
type Future struct {
	done    chan struct{}
	outcome *Outcome
	err     error
}

// Done is closed once the work has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the work finishes or ctx ends, whichever is first.
func (f *Future) Wait(ctx context.Context) (*Outcome, error) {
	select {
	case <-f.done:
		return f.outcome, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispatcher runs invocations on the caller goroutine or on a goroutine of
// their own, according to the descriptor's async settings.
type Dispatcher struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Go schedules work and returns its future. A panic in work is recovered and
// reported as an async error.
func (d *Dispatcher) Go(ctx context.Context, op string, work Work) *Future {
	f := &Future{done: make(chan struct{})}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("async operation panicked", "op", op, "panic", r, "stack", string(debug.Stack()))
				f.outcome = nil
				f.err = sqlerr.New(sqlerr.KindAsync, op, fmt.Errorf("panic: %v", r))
			}
		}()
		f.outcome, f.err = work(ctx)
	}()
	return f
}

// Dispatch runs work as desc asks. SubmitOnly returns (nil, nil) at once and
// only logs a failure; the work is detached from ctx cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, desc *descriptor.Descriptor, work Work) (*Outcome, error) {
	if !desc.Async {
		return work(ctx)
	}

	switch desc.AsyncMode {
	case descriptor.SubmitOnly:
		f := d.Go(context.WithoutCancel(ctx), desc.Identity, work)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			<-f.done
			if f.err != nil {
				d.logger.Error("submitted operation failed", "op", desc.Identity, "error", f.err)
			}
		}()
		return nil, nil
	case descriptor.JoinFuture:
		return d.Go(ctx, desc.Identity, work).Wait(ctx)
	default:
		f := d.Go(ctx, desc.Identity, work)
		<-f.done
		return f.outcome, f.err
	}
}

// Wait blocks until every scheduled operation has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
