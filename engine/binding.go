package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Konsultn-Engineering/sqlrepo/cache"
	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/database"
	"github.com/Konsultn-Engineering/sqlrepo/descriptor"
	"github.com/Konsultn-Engineering/sqlrepo/response"
	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
	"github.com/Konsultn-Engineering/sqlrepo/template"
)

// Binding ties a repository to one physical connection and its statement
// cache. The connection is opened on first use and probed before every use;
// an invalid connection is replaced together with its cache.
type Binding struct {
	ID     uuid.UUID
	name   string
	table  string
	config connector.Config
	opts   Options
	logger *slog.Logger
	binds  template.BindStyle

	// txMu keeps single queries out of an open transaction: queries hold the
	// read side, transactions the write side from begin to end.
	txMu sync.RWMutex

	mu     sync.Mutex
	source connector.Connection
	conn   database.Conn
	cache  *cache.QueryCache
}

func newBinding(name, table string, cfg connector.Config, opts Options) *Binding {
	id := uuid.New()
	return &Binding{
		ID:     id,
		name:   name,
		table:  table,
		config: cfg,
		opts:   opts,
		logger: opts.Logger.With("binding", name, "binding_id", id.String()),
		binds:  bindStyle(cfg.Provider),
	}
}

// bindStyle is the marker syntax of the provider's native driver.
func bindStyle(provider string) template.BindStyle {
	if provider == "postgres" {
		return template.DollarBinds
	}
	return template.QuestionBinds
}

func (b *Binding) Name() string { return b.name }

func (b *Binding) Table() string { return b.table }

// ready returns a validated connection and the cache that belongs to it.
func (b *Binding) ready(ctx context.Context) (database.Conn, *cache.QueryCache, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		err := b.probe(ctx)
		if err == nil {
			return b.conn, b.cache, nil
		}
		b.logger.Warn("connection failed validation, reconnecting", "error", err)
		b.dropConn()
	}

	if b.source == nil {
		src, err := b.opts.Open(ctx, b.config)
		if err != nil {
			return nil, nil, sqlerr.New(sqlerr.KindExecution, "", fmt.Errorf("open %s: %w", b.config.Provider, err))
		}
		b.source = src
		b.logger.Info("datasource opened", "provider", b.config.Provider, "pool", src.Stats())
	}

	conn, err := b.source.Conn(ctx)
	if err != nil {
		return nil, nil, sqlerr.New(sqlerr.KindExecution, "", fmt.Errorf("acquire connection: %w", err))
	}
	b.conn = conn
	b.cache = cache.NewQueryCache(conn, b.opts.CacheSize, b.logger)
	return b.conn, b.cache, nil
}

func (b *Binding) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.config.ValidationTimeoutOrDefault())
	defer cancel()
	return b.conn.Ping(ctx)
}

// dropConn runs with mu held.
func (b *Binding) dropConn() {
	if b.cache != nil {
		b.cache.Purge()
		b.cache = nil
	}
	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			b.logger.Debug("closing connection", "error", err)
		}
		b.conn = nil
	}
}

// Close releases the cached statements, the connection and the datasource.
func (b *Binding) Close() error {
	b.txMu.Lock()
	defer b.txMu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropConn()
	if b.source == nil {
		return nil
	}
	err := b.source.Close()
	b.source = nil
	return err
}

func (b *Binding) tableFor(d *descriptor.Descriptor) string {
	if d.Table != "" {
		return d.Table
	}
	return b.table
}

func (b *Binding) render(d *descriptor.Descriptor, tpl string, args []any) (template.Rendered, error) {
	return template.RenderBinds(tpl, b.tableFor(d), d.Params, args, b.opts.Lookup, b.binds)
}

// query runs a single-statement operation.
func (b *Binding) query(ctx context.Context, logger *slog.Logger, d *descriptor.Descriptor, args []any) (*Outcome, error) {
	b.txMu.RLock()
	defer b.txMu.RUnlock()

	_, queries, err := b.ready(ctx)
	if err != nil {
		return nil, err
	}
	r, err := b.render(d, d.Template(), args)
	if err != nil {
		return nil, err
	}

	logger.Debug("executing query", "sql", r.SQL, "scope", d.Scope.String())
	set, err := queries.Get(d.Scope, d.Template()).Run(ctx, nil, r.SQL, r.Args)
	if err != nil {
		return nil, err
	}
	return &Outcome{Sets: []*response.Set{set}}, nil
}

// transaction runs every template of d in order inside one transaction.
func (b *Binding) transaction(ctx context.Context, logger *slog.Logger, d *descriptor.Descriptor, args []any) (*Outcome, error) {
	b.txMu.Lock()
	defer b.txMu.Unlock()

	conn, queries, err := b.ready(ctx)
	if err != nil {
		return nil, err
	}

	t := &transaction{conn: conn, logger: logger}
	defer t.end()

	if err := t.begin(ctx); err != nil {
		return nil, sqlerr.New(sqlerr.KindTransaction, "", fmt.Errorf("begin: %w", err))
	}

	for i, tpl := range d.Templates {
		r, err := b.render(d, tpl, args)
		if err != nil {
			return t.fail(ctx, b.opts.FailurePolicy, "", fmt.Errorf("statement %d: %w", i+1, err))
		}
		logger.Debug("executing statement", "sql", r.SQL, "statement", i+1)
		set, err := queries.Get(d.Scope, tpl).Run(ctx, t.tx, r.SQL, r.Args)
		if err != nil {
			return t.fail(ctx, b.opts.FailurePolicy, r.SQL, fmt.Errorf("statement %d: %w", i+1, err))
		}
		t.sets = append(t.sets, set)
	}

	if err := t.commit(ctx); err != nil {
		return t.fail(ctx, b.opts.FailurePolicy, "", fmt.Errorf("commit: %w", err))
	}
	return &Outcome{Sets: t.sets}, nil
}
