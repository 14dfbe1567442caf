package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Konsultn-Engineering/sqlrepo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const repositoryYAML = `
name: books
table: books
connection:
  provider: sqlite
  database: %s
  validation_timeout: 2s
operations:
  schema:
    query: create table ${table} (id integer primary key, title text, year integer)
  add:
    query: insert into ${table} (title, year) values (${title}, ${year})
    scope: singleton
    params:
      - name: title
      - name: year
  all:
    query: select id, title, year from ${table} order by id
    scope: prototype
  reprint:
    transaction:
      - insert into ${table} (title, year) values (${title}, 2024)
      - insert into ${table} (title, year) values (${title}, 2025)
    params:
      - name: title
`

func writeRepository(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "books.yaml")
	content := fmt.Sprintf(repositoryYAML, filepath.Join(dir, "books.db"))
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRunOperations(t *testing.T) {
	file := writeRepository(t)

	_, err := runCLI(t, "-file", file, "schema")
	require.NoError(t, err)

	out, err := runCLI(t, "-file", file, "add", "title=Dune", "year=1965")
	require.NoError(t, err)
	assert.Contains(t, out, "1 row affected")

	out, err = runCLI(t, "-file", file, "reprint", "title=Dune")
	require.NoError(t, err)
	assert.Contains(t, out, "2 statements")

	out, err = runCLI(t, "-file", file, "all")
	require.NoError(t, err)
	assert.Contains(t, out, "title")
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "1965")
	assert.Contains(t, out, "(3 rows)")
}

func TestListOperations(t *testing.T) {
	out, err := runCLI(t, "-file", writeRepository(t), "-list")

	require.NoError(t, err)
	assert.Equal(t, "add\nall\nreprint\nschema\n", out)
}

func TestRunArgumentErrors(t *testing.T) {
	file := writeRepository(t)

	_, err := runCLI(t, "-file", file)
	assert.EqualError(t, err, "operation is required")

	_, err = runCLI(t, "-file", file, "missing")
	assert.EqualError(t, err, `unknown operation "missing"`)

	_, err = runCLI(t, "-file", file, "add", "title=Dune")
	assert.EqualError(t, err, `missing argument "year"`)

	_, err = runCLI(t, "-file", file, "add", "title=Dune", "year=1965", "isbn=1")
	assert.EqualError(t, err, `unknown argument "isbn"`)

	_, err = runCLI(t, "-file", file, "add", "Dune")
	assert.EqualError(t, err, `argument "Dune" is not name=value`)

	_, err = runCLI(t, "-file", filepath.Join(t.TempDir(), "none.yaml"), "all")
	assert.ErrorContains(t, err, "failed to read repository file")
}

func TestLoadRepositoryDecodesScopes(t *testing.T) {
	def, err := loadRepository(writeRepository(t))

	require.NoError(t, err)
	assert.Equal(t, "books", def.Name)
	assert.Equal(t, "sqlite", def.Connection.Provider)
	assert.Equal(t, "2s", def.Connection.ValidationTimeout.String())
	assert.Equal(t, sqlrepo.ScopeSingleton, def.Operations["add"].Scope)
	assert.Equal(t, sqlrepo.ScopePrototype, def.Operations["all"].Scope)
	assert.Len(t, def.Operations["reprint"].Transaction, 2)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(42), parseValue("42"))
	assert.Equal(t, 1.5, parseValue("1.5"))
	assert.Equal(t, true, parseValue("true"))
	assert.Nil(t, parseValue("null"))
	assert.Equal(t, "Dune", parseValue("Dune"))
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "-version")

	require.NoError(t, err)
	assert.Equal(t, "sqlrepo dev\n", out)
}
