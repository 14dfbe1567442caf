package connector

import (
	"context"
	"fmt"
)

// Provider opens datasources for one database driver.
type Provider interface {
	Connect(ctx context.Context, config Config) (Connection, error)
	// DSN renders the driver-specific connection string for config.
	DSN(config Config) (string, error)
	// HealthCheck reports whether conn can serve a binding.
	HealthCheck(ctx context.Context, conn Connection) error
}

// Probe pings the pool, then takes one physical connection and pings it.
func Probe(ctx context.Context, conn Connection) error {
	if err := conn.Health(ctx); err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	c, err := conn.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer c.Close()
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("connection: %w", err)
	}
	return nil
}
