// Package mysql registers the "mysql" provider backed by go-sql-driver/mysql.
package mysql

import (
	"errors"
	"net"
	"strconv"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/providers/sqldriver"
	"github.com/go-sql-driver/mysql"
)

const defaultPort = 3306

func init() {
	connector.Register("mysql", sqldriver.New("mysql", DSN))
}

// DSN builds a go-sql-driver DSN. Temporal columns are parsed into time.Time.
func DSN(cfg connector.Config) (string, error) {
	if cfg.Host == "" {
		return "", errors.New("mysql: host is required")
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN(), nil
}
