package connector

import (
	"log/slog"
	"time"
)

// ConnectionStats represents database connection pool statistics.
type ConnectionStats struct {
	MaxOpen         int
	OpenConnections int
	InUse           int
	Idle            int
	// WaitCount counts acquisitions that had to wait for a free connection.
	WaitCount    int64
	WaitDuration time.Duration
}

func (s ConnectionStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max_open", s.MaxOpen),
		slog.Int("open", s.OpenConnections),
		slog.Int("in_use", s.InUse),
		slog.Int("idle", s.Idle),
		slog.Int64("waits", s.WaitCount),
		slog.Duration("wait_duration", s.WaitDuration),
	)
}
