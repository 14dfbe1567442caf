package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/descriptor"
	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
)

var ErrUnknownOperation = errors.New("unknown operation")

// Repository groups operations that share a connection and a table. Each
// operation runs under the identity "<repository>.<operation>".
type Repository struct {
	engine *Engine
	name   string
	table  string
	config connector.Config

	mu  sync.RWMutex
	ops map[string]descriptor.Metadata
}

// Repository starts a group of operations on e.
func (e *Engine) Repository(name, table string, cfg connector.Config) *Repository {
	return &Repository{
		engine: e,
		name:   name,
		table:  table,
		config: cfg,
		ops:    make(map[string]descriptor.Metadata),
	}
}

func (r *Repository) Name() string { return r.name }

func (r *Repository) Identity(op string) string {
	return r.name + "." + op
}

// Define registers op. Repository, table and connection are inherited from r
// unless md sets them.
func (r *Repository) Define(op string, md descriptor.Metadata) error {
	if op == "" {
		return errors.New("operation name is required")
	}
	if md.Repository == "" {
		md.Repository = r.name
	}
	if md.Table == "" {
		md.Table = r.table
	}
	if md.Connection.Provider == "" {
		md.Connection = r.config
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[op]; exists {
		return fmt.Errorf("operation %q already defined on %s", op, r.name)
	}
	r.ops[op] = md
	return nil
}

// Operations lists defined operation names in order.
func (r *Repository) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes a defined operation with args in declaration order.
func (r *Repository) Call(ctx context.Context, op string, args ...any) (*Outcome, error) {
	r.mu.RLock()
	md, ok := r.ops[op]
	r.mu.RUnlock()
	if !ok {
		return nil, sqlerr.New(sqlerr.KindConfiguration, r.Identity(op), ErrUnknownOperation)
	}
	return r.engine.Invoke(ctx, r.Identity(op), md, args...)
}
