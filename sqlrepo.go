// Package sqlrepo runs declaratively described SQL operations: a template
// with named parameters, a statement caching scope, optional async dispatch
// and transactional grouping, against a repository's connection.
package sqlrepo

import (
	"context"
	"fmt"
	"sync"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/descriptor"
	"github.com/Konsultn-Engineering/sqlrepo/engine"
	"github.com/Konsultn-Engineering/sqlrepo/template"

	_ "github.com/Konsultn-Engineering/sqlrepo/providers/duckdb"
	_ "github.com/Konsultn-Engineering/sqlrepo/providers/mysql"
	_ "github.com/Konsultn-Engineering/sqlrepo/providers/postgres"
	_ "github.com/Konsultn-Engineering/sqlrepo/providers/sqlite"
)

type (
	Engine     = engine.Engine
	Options    = engine.Options
	Outcome    = engine.Outcome
	Repository = engine.Repository
	Metadata   = descriptor.Metadata
	Param      = descriptor.Param
	Config     = connector.Config
)

const (
	ScopeNone      = descriptor.ScopeNone
	ScopeSingleton = descriptor.ScopeSingleton
	ScopePrototype = descriptor.ScopePrototype

	SubmitOnly   = descriptor.SubmitOnly
	JoinBlocking = descriptor.JoinBlocking
	JoinFuture   = descriptor.JoinFuture

	PartialOnFailure = engine.PartialOnFailure
	DiscardOnFailure = engine.DiscardOnFailure
)

// New returns an engine with every bundled provider registered.
func New(opts Options) *Engine {
	return engine.New(opts)
}

// Connect opens cfg and checks it is reachable before handing back an engine
// and a repository bound to it. The checked datasource is the one the
// repository's binding uses.
func Connect(ctx context.Context, name, table string, cfg Config, opts Options) (*Engine, *Repository, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = template.Environ
	}
	resolved := cfg.Interpolate(lookup)

	conn, err := connector.Open(ctx, resolved)
	if err != nil {
		return nil, nil, err
	}
	if err := connector.HealthCheck(ctx, resolved, conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("health check %s: %w", resolved.Provider, err)
	}

	next := opts.Open
	if next == nil {
		next = connector.Open
	}
	var mu sync.Mutex
	opts.Open = func(ctx context.Context, c connector.Config) (connector.Connection, error) {
		mu.Lock()
		defer mu.Unlock()
		if conn != nil && c.Key() == resolved.Key() {
			handed := conn
			conn = nil
			return handed, nil
		}
		return next(ctx, c)
	}

	e := engine.New(opts)
	return e, e.Repository(name, table, cfg), nil
}

// Providers lists the registered connection providers.
func Providers() []string {
	return connector.Providers()
}
