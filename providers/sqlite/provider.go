// Package sqlite registers the "sqlite" provider backed by mattn/go-sqlite3.
package sqlite

import (
	"errors"
	"net/url"
	"sort"
	"strings"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/providers/sqldriver"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	connector.Register("sqlite", sqldriver.New("sqlite3", DSN))
}

// DSN uses Database as the file path, ":memory:" included, and Params as
// driver options such as _foreign_keys or _busy_timeout.
func DSN(cfg connector.Config) (string, error) {
	if cfg.Database == "" {
		return "", errors.New("sqlite: database path is required")
	}
	if len(cfg.Params) == 0 {
		return cfg.Database, nil
	}

	keys := make([]string, 0, len(cfg.Params))
	for k := range cfg.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(cfg.Database)
	for i, k := range keys {
		if i == 0 {
			b.WriteString("?")
		} else {
			b.WriteString("&")
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(cfg.Params[k]))
	}
	return b.String(), nil
}
