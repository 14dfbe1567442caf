package connector

import (
	"context"

	"github.com/Konsultn-Engineering/sqlrepo/database"
)

// Connection is a datasource: a pool that hands out physical connections.
type Connection interface {
	// Conn takes one physical connection out of the pool for exclusive use.
	// Closing it returns it to the pool.
	Conn(ctx context.Context) (database.Conn, error)
	Health(ctx context.Context) error
	Stats() ConnectionStats
	Close() error
}

type Connector interface {
	Connect(ctx context.Context) (Connection, error)
	ConnectWithRetry(ctx context.Context, opts RetryConfig) (Connection, error)
}
