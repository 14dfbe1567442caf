// Package duckdb registers the "duckdb" provider, an embedded analytical
// database. An empty Database or ":memory:" opens an in-memory instance.
package duckdb

import (
	"net/url"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/providers/sqldriver"
	_ "github.com/duckdb/duckdb-go/v2"
)

func init() {
	connector.Register("duckdb", sqldriver.New("duckdb", DSN))
}

func DSN(cfg connector.Config) (string, error) {
	path := cfg.Database
	if path == ":memory:" {
		path = ""
	}
	if len(cfg.Params) == 0 {
		return path, nil
	}
	q := url.Values{}
	for k, v := range cfg.Params {
		q.Set(k, v)
	}
	return path + "?" + q.Encode(), nil
}
