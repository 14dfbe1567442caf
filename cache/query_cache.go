package cache

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/sqlrepo/database"
	"github.com/Konsultn-Engineering/sqlrepo/descriptor"
	"github.com/Konsultn-Engineering/sqlrepo/query"
)

// DefaultSize bounds the number of shared statements per binding.
const DefaultSize = 512

// QueryCache maps template text to the shared PreparedQuery of one binding.
// The key is the template, not the rendered SQL: a shared query re-prepares
// itself when its rendered text changes.
type QueryCache struct {
	conn   database.Conn
	logger *slog.Logger
	cache  *lru.Cache[string, *query.PreparedQuery]
	mu     sync.Mutex
}

func NewQueryCache(conn database.Conn, size int, logger *slog.Logger) *QueryCache {
	if size <= 0 {
		size = DefaultSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &QueryCache{conn: conn, logger: logger}
	c.cache, _ = lru.NewWithEvict(size, func(template string, q *query.PreparedQuery) {
		if err := q.Close(); err != nil {
			logger.Warn("closing evicted statement", "template", template, "error", err)
		}
	})
	return c
}

// Get applies the scope policy:
//   - ScopeNone: a fresh query, never cached, closed after one execution
//   - ScopeSingleton: the shared query for template, created on first use
//   - ScopePrototype: a clone of the shared query
func (c *QueryCache) Get(scope descriptor.Scope, template string) *query.PreparedQuery {
	switch scope {
	case descriptor.ScopeSingleton:
		return c.shared(template)
	case descriptor.ScopePrototype:
		return c.shared(template).Clone()
	default:
		return query.New(c.conn, template, c.logger).CloseOnCompletion()
	}
}

func (c *QueryCache) shared(template string) *query.PreparedQuery {
	// Fast path
	if q, ok := c.cache.Get(template); ok {
		return q
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the lock
	if q, ok := c.cache.Get(template); ok {
		return q
	}

	c.logger.Debug("caching statement", "template", template)
	q := query.New(c.conn, template, c.logger)
	c.cache.Add(template, q)
	return q
}

// Contains reports whether template has a shared query.
func (c *QueryCache) Contains(template string) bool {
	return c.cache.Contains(template)
}

func (c *QueryCache) Len() int {
	return c.cache.Len()
}

// Purge closes and drops every shared query.
func (c *QueryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Purge() // This will trigger the evict callback for all items
}
