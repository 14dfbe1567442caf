package postgres

import (
	"testing"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	p := &Provider{}

	dsn, err := p.DSN(connector.Config{
		Host:     "db",
		Username: "app",
		Password: "pw",
		Database: "shop",
		SSLMode:  "require",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db:5432/shop?connect_timeout=10&sslmode=require", dsn)

	dsn, err = p.DSN(connector.Config{URI: "postgres://x@y/z"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://x@y/z", dsn)

	_, err = p.DSN(connector.Config{Database: "shop"})
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, connector.Providers(), "postgres")
}
