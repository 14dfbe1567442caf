package sqlrepo

import (
	"context"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledProvidersAreRegistered(t *testing.T) {
	assert.Subset(t, Providers(), []string{"duckdb", "mysql", "postgres", "sqlite"})
}

func TestConnectRunsOperations(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Provider: "sqlite", Database: path.Join(t.TempDir(), "notes.db")}

	e, repo, err := Connect(ctx, "notes", "notes", cfg, Options{})
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, repo.Define("schema", Metadata{Query: "create table ${table} (body text)"}))
	require.NoError(t, repo.Define("add", Metadata{
		Query:  "insert into ${table} (body) values (${body})",
		Params: []Param{{Name: "body"}},
		Scope:  ScopeSingleton,
	}))
	require.NoError(t, repo.Define("count", Metadata{Query: "select count(*) as n from ${table}"}))

	_, err = repo.Call(ctx, "schema")
	require.NoError(t, err)
	for _, body := range []string{"one", "two"} {
		_, err = repo.Call(ctx, "add", body)
		require.NoError(t, err)
	}

	out, err := repo.Call(ctx, "count")
	require.NoError(t, err)
	row, ok := out.Single().First()
	require.True(t, ok)
	n, err := row.NullableIntByLabel("n")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestConnectFailsFast(t *testing.T) {
	_, _, err := Connect(context.Background(), "x", "", Config{Provider: "nope", Database: "x"}, Options{})
	assert.Error(t, err)
}
