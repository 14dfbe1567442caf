package connector

import (
	"errors"
	"fmt"
	"time"

	"github.com/Konsultn-Engineering/sqlrepo/template"
)

// DefaultValidationTimeout bounds the probe run before a connection is reused.
const DefaultValidationTimeout = time.Second

// Config represents database connection configuration. Either URI or the
// host/database fields are used; URI wins when both are set.
type Config struct {
	Provider          string            `json:"provider" yaml:"provider"`
	URI               string            `json:"uri,omitempty" yaml:"uri,omitempty"`
	Host              string            `json:"host,omitempty" yaml:"host,omitempty"`
	Port              int               `json:"port,omitempty" yaml:"port,omitempty"`
	Database          string            `json:"database,omitempty" yaml:"database,omitempty"`
	Username          string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password          string            `json:"password,omitempty" yaml:"password,omitempty"`
	SSLMode           string            `json:"ssl_mode,omitempty" yaml:"ssl_mode,omitempty"`
	Params            map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Pool              PoolConfig        `json:"pool" yaml:"pool"`
	ConnectTimeout    time.Duration     `json:"connect_timeout" yaml:"connect_timeout"`
	ValidationTimeout time.Duration     `json:"validation_timeout" yaml:"validation_timeout"`
	Retry             *RetryConfig      `json:"retry,omitempty" yaml:"retry,omitempty"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MaxOpen         int           `json:"max_open" yaml:"max_open"`
	MaxIdle         int           `json:"max_idle" yaml:"max_idle"`
	MaxLifetime     time.Duration `json:"max_lifetime" yaml:"max_lifetime"`
	MaxIdleTime     time.Duration `json:"max_idle_time" yaml:"max_idle_time"`
	HealthCheckFreq time.Duration `json:"health_check_freq" yaml:"health_check_freq"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay"`
	Backoff    float64       `json:"backoff" yaml:"backoff"`
}

// Validate checks the fields every provider needs.
func (c Config) Validate() error {
	if c.Provider == "" {
		return errors.New("provider is required")
	}
	if c.URI == "" && c.Host == "" && c.Database == "" {
		return fmt.Errorf("provider %s: uri, host or database is required", c.Provider)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Retry != nil && c.Retry.MaxRetries < 0 {
		return fmt.Errorf("invalid max retries: %d", c.Retry.MaxRetries)
	}
	return nil
}

// ValidationTimeoutOrDefault returns the probe bound, DefaultValidationTimeout
// when unset.
func (c Config) ValidationTimeoutOrDefault() time.Duration {
	if c.ValidationTimeout > 0 {
		return c.ValidationTimeout
	}
	return DefaultValidationTimeout
}

// Interpolate returns a copy of c with ${system.<key>} placeholders in its
// string fields and params replaced through lookup.
func (c Config) Interpolate(lookup template.Lookup) Config {
	out := c
	out.URI = template.ExpandSystem(c.URI, lookup)
	out.Host = template.ExpandSystem(c.Host, lookup)
	out.Database = template.ExpandSystem(c.Database, lookup)
	out.Username = template.ExpandSystem(c.Username, lookup)
	out.Password = template.ExpandSystem(c.Password, lookup)
	out.SSLMode = template.ExpandSystem(c.SSLMode, lookup)
	if c.Params != nil {
		out.Params = make(map[string]string, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = template.ExpandSystem(v, lookup)
		}
	}
	if c.Retry != nil {
		r := *c.Retry
		out.Retry = &r
	}
	return out
}

// Key identifies the datasource a config describes. Bindings with equal keys
// may share a pool.
func (c Config) Key() string {
	if c.URI != "" {
		return c.Provider + "|" + c.URI
	}
	return fmt.Sprintf("%s|%s@%s:%d/%s", c.Provider, c.Username, c.Host, c.Port, c.Database)
}
