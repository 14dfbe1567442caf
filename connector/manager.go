package connector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrProviderNotRegistered = errors.New("provider not registered")

type standardConnector struct {
	provider Provider
	config   Config
}

var globalManager = &Manager{
	providers: make(map[string]Provider),
}

type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[name] = provider
}

// Providers lists registered provider names in order.
func Providers() []string {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()
	names := make([]string, 0, len(globalManager.providers))
	for name := range globalManager.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func New(name string, config Config) (Connector, error) {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[name]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotRegistered, name)
	}
	return &standardConnector{provider: provider, config: config}, nil
}

// Open validates config and connects through its provider, retrying when
// config.Retry is set. ConnectTimeout bounds the whole attempt.
func Open(ctx context.Context, config Config) (Connection, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c, err := New(config.Provider, config)
	if err != nil {
		return nil, err
	}
	if config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}
	if config.Retry != nil {
		conn, err := c.ConnectWithRetry(ctx, *config.Retry)
		if err != nil {
			return nil, fmt.Errorf("failed to connect after %d retries: %w", config.Retry.MaxRetries, err)
		}
		return conn, nil
	}
	return c.Connect(ctx)
}

func (c *standardConnector) Connect(ctx context.Context) (Connection, error) {
	return c.provider.Connect(ctx, c.config)
}

func (c *standardConnector) ConnectWithRetry(ctx context.Context, opts RetryConfig) (Connection, error) {
	return retryConnect(ctx, opts, c.Connect)
}

// HealthCheck runs the health check of config's provider against conn,
// bounded by the validation timeout.
func HealthCheck(ctx context.Context, config Config, conn Connection) error {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[config.Provider]
	globalManager.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotRegistered, config.Provider)
	}
	ctx, cancel := context.WithTimeout(ctx, config.ValidationTimeoutOrDefault())
	defer cancel()
	return provider.HealthCheck(ctx, conn)
}
