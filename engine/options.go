package engine

import (
	"context"
	"log/slog"

	"github.com/Konsultn-Engineering/sqlrepo/cache"
	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/template"
)

// FailurePolicy decides what a failed transaction hands back to the caller.
type FailurePolicy uint8

const (
	// PartialOnFailure returns the sets of the statements that ran before the
	// failure, flagged Partial, together with the error.
	PartialOnFailure FailurePolicy = iota
	// DiscardOnFailure returns no outcome at all, only the error.
	DiscardOnFailure
)

func (p FailurePolicy) String() string {
	if p == DiscardOnFailure {
		return "discard"
	}
	return "partial"
}

// OpenFunc opens the datasource a binding draws its connection from.
type OpenFunc func(ctx context.Context, cfg connector.Config) (connector.Connection, error)

type Options struct {
	Logger *slog.Logger
	// CacheSize bounds shared statements per binding.
	CacheSize     int
	FailurePolicy FailurePolicy
	// Lookup resolves ${system.<key>} in templates and connection configs.
	Lookup template.Lookup
	// Open defaults to connector.Open.
	Open OpenFunc
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.CacheSize <= 0 {
		o.CacheSize = cache.DefaultSize
	}
	if o.Lookup == nil {
		o.Lookup = template.Environ
	}
	if o.Open == nil {
		o.Open = connector.Open
	}
	return o
}
