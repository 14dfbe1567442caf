package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/Konsultn-Engineering/sqlrepo/descriptor"
	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
)

var ErrClosed = errors.New("engine closed")

// Engine is the dispatch boundary: it maps an operation identity and its
// metadata to a descriptor, runs it on the repository's binding and returns
// the materialized outcome.
type Engine struct {
	opts       Options
	logger     *slog.Logger
	resolver   *descriptor.Resolver
	dispatcher *Dispatcher

	mu       sync.Mutex
	bindings map[string]*Binding
	closed   bool
}

func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:       opts,
		logger:     opts.Logger,
		resolver:   descriptor.NewResolver(),
		dispatcher: NewDispatcher(opts.Logger),
		bindings:   make(map[string]*Binding),
	}
}

func (e *Engine) Resolver() *descriptor.Resolver { return e.resolver }

// Binding returns the binding already created for a repository.
func (e *Engine) Binding(repository string) (*Binding, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.bindings[repository]
	return b, ok
}

// Invoke runs the operation identified by identity. md is decoded on the
// first call for identity only. Operations declared NoResponse, and async
// SubmitOnly operations, return a nil outcome.
func (e *Engine) Invoke(ctx context.Context, identity string, md descriptor.Metadata, args ...any) (*Outcome, error) {
	invocation := ulid.Make().String()
	logger := e.logger.With("op", identity, "invocation", invocation)

	d, err := e.resolver.Resolve(identity, md)
	if err != nil {
		return nil, sqlerr.Annotate(sqlerr.KindConfiguration, identity, err)
	}
	b, err := e.binding(d)
	if err != nil {
		return nil, sqlerr.Annotate(sqlerr.KindConfiguration, identity, err)
	}

	work := func(ctx context.Context) (*Outcome, error) {
		var (
			out *Outcome
			err error
		)
		if d.Kind == descriptor.KindTransaction {
			out, err = b.transaction(ctx, logger, d, args)
		} else {
			out, err = b.query(ctx, logger, d, args)
		}
		if err != nil {
			err = sqlerr.Annotate(sqlerr.KindExecution, identity, err)
		}
		if d.NoResponse {
			out = nil
		}
		return out, err
	}

	out, err := e.dispatcher.Dispatch(ctx, d, work)
	if err != nil {
		return out, sqlerr.Annotate(sqlerr.KindAsync, identity, err)
	}
	return out, nil
}

func (e *Engine) binding(d *descriptor.Descriptor) (*Binding, error) {
	key := d.Repository
	if key == "" {
		key = d.Connection.Key()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if b, ok := e.bindings[key]; ok {
		return b, nil
	}

	cfg := d.Connection.Interpolate(e.opts.Lookup)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := newBinding(key, d.Table, cfg, e.opts)
	e.bindings[key] = b
	return b, nil
}

// Wait blocks until every async operation scheduled so far has finished.
func (e *Engine) Wait() {
	e.dispatcher.Wait()
}

// Close waits for async operations and releases every binding.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.dispatcher.Wait()

	var errs []error
	for name, b := range e.bindings {
		if err := b.Close(); err != nil {
			e.logger.Warn("closing binding", "binding", name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
