package mysql

import (
	"testing"
	"time"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn, err := DSN(connector.Config{
		Host:           "db",
		Username:       "app",
		Password:       "pw",
		Database:       "shop",
		ConnectTimeout: 5 * time.Second,
		Params:         map[string]string{"sql_mode": "ANSI_QUOTES"},
	})
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "pw", parsed.Passwd)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "shop", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
	assert.Equal(t, "ANSI_QUOTES", parsed.Params["sql_mode"])

	_, err = DSN(connector.Config{Database: "shop"})
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, connector.Providers(), "mysql")
}
