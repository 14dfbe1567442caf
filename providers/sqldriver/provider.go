// Package sqldriver adapts any database/sql driver into a connector.Provider.
package sqldriver

import (
	"context"
	"errors"
	"time"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/database"
	"github.com/jmoiron/sqlx"
)

// DSNFunc renders a driver connection string from a config without a URI.
type DSNFunc func(cfg connector.Config) (string, error)

type Provider struct {
	// Driver is the database/sql driver name.
	Driver string
	DSNFn  DSNFunc
}

func New(driver string, dsn DSNFunc) *Provider {
	return &Provider{Driver: driver, DSNFn: dsn}
}

func (p *Provider) DSN(cfg connector.Config) (string, error) {
	if cfg.URI != "" {
		return cfg.URI, nil
	}
	if p.DSNFn == nil {
		return "", errors.New(p.Driver + ": uri is required")
	}
	return p.DSNFn(cfg)
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	dsn, err := p.DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(p.Driver, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.Pool.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.Pool.MaxOpen)
	}
	if cfg.Pool.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.Pool.MaxIdle)
	}
	if cfg.Pool.MaxLifetime == 0 {
		cfg.Pool.MaxLifetime = time.Hour
	}
	db.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	if cfg.Pool.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Connection{db: db}, nil
}

func (p *Provider) HealthCheck(ctx context.Context, conn connector.Connection) error {
	return connector.Probe(ctx, conn)
}

// Connection is a database/sql pool.
type Connection struct {
	db *sqlx.DB
}

// DB exposes the pool, mostly for schema setup in tests and tools.
func (c *Connection) DB() *sqlx.DB { return c.db }

func (c *Connection) Conn(ctx context.Context) (database.Conn, error) {
	return database.NewSQLConn(ctx, c.db)
}

func (c *Connection) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Connection) Stats() connector.ConnectionStats {
	s := c.db.Stats()
	return connector.ConnectionStats{
		MaxOpen:         s.MaxOpenConnections,
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		WaitDuration:    s.WaitDuration,
	}
}

func (c *Connection) Close() error {
	return c.db.Close()
}
