package engine

import (
	"context"
	"path"
	"testing"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/database"
	"github.com/Konsultn-Engineering/sqlrepo/descriptor"
	"github.com/Konsultn-Engineering/sqlrepo/response"
	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/Konsultn-Engineering/sqlrepo/providers/sqlite"
)

type account struct {
	ID      int64
	Owner   string
	Balance int64
}

type accountAdapter struct{}

func (accountAdapter) Convert(row *response.Row) (account, error) {
	var a account
	var err error
	if a.ID, err = row.NullableInt64ByLabel("id"); err != nil {
		return a, err
	}
	if a.Owner, err = row.NullableStringByLabel("owner"); err != nil {
		return a, err
	}
	a.Balance, err = row.NullableInt64ByLabel("balance")
	return a, err
}

func setupAccounts(t *testing.T) (*Engine, *Repository) {
	t.Helper()
	cfg := connector.Config{Provider: "sqlite", Database: path.Join(t.TempDir(), "test.db")}
	e := New(Options{Logger: discardLogger()})
	t.Cleanup(func() { e.Close() })

	repo := e.Repository("accounts", "accounts", cfg)
	require.NoError(t, repo.Define("schema", descriptor.Metadata{
		Query: "create table ${table} (id integer primary key autoincrement, owner text not null, balance integer not null)",
	}))
	require.NoError(t, repo.Define("open", descriptor.Metadata{
		Query:  "insert into ${table} (owner, balance) values (${owner}, ${balance})",
		Params: []descriptor.Param{{Name: "owner"}, {Name: "balance"}},
		Scope:  descriptor.ScopeSingleton,
	}))
	require.NoError(t, repo.Define("all", descriptor.Metadata{
		Query: "select id, owner, balance from ${table} order by id",
		Scope: descriptor.ScopePrototype,
	}))
	require.NoError(t, repo.Define("transfer", descriptor.Metadata{
		Transaction: []string{
			"update ${table} set balance = balance - ? where id = ${from}",
			"update ${table} set balance = balance + ? where id = ${to}",
		},
		Params: []descriptor.Param{descriptor.Positional("amount"), {Name: "from"}, {Name: "to"}},
	}))
	require.NoError(t, repo.Define("openAndCount", descriptor.Metadata{
		Transaction: []string{
			"insert into ${table} (owner, balance) values (?, 0)",
			"select count(*) as n from ${table}",
		},
		Params: []descriptor.Param{descriptor.Positional("owner")},
	}))
	require.NoError(t, repo.Define("brokenTransfer", descriptor.Metadata{
		Transaction: []string{
			"update ${table} set balance = balance - 5 where id = ${from}",
			"update missing set balance = 0",
			"update ${table} set balance = balance + 5 where id = ${from}",
		},
		Params: []descriptor.Param{{Name: "from"}},
	}))

	_, err := repo.Call(context.Background(), "schema")
	require.NoError(t, err)
	return e, repo
}

func TestSQLiteRoundTrip(t *testing.T) {
	_, repo := setupAccounts(t)
	ctx := context.Background()

	out, err := repo.Call(ctx, "open", "alice", 100)
	require.NoError(t, err)
	set := out.Single()
	assert.Equal(t, int64(1), set.AffectedRows())
	key, ok := set.First()
	require.True(t, ok)
	id, err := key.NullableInt64ByLabel(database.GeneratedKeyColumn)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = repo.Call(ctx, "open", "bob's", 50)
	assert.ErrorIs(t, err, sqlerr.ErrExecution, "quotes in literals are not escaped")

	_, err = repo.Call(ctx, "open", "bob", 50)
	require.NoError(t, err)

	out, err = repo.Call(ctx, "all")
	require.NoError(t, err)
	accounts, err := response.ToList[account, accountAdapter](out.Single())
	require.NoError(t, err)
	assert.Equal(t, []account{{1, "alice", 100}, {2, "bob", 50}}, accounts)
}

func TestSQLiteTransactionCommitAndRollback(t *testing.T) {
	_, repo := setupAccounts(t)
	ctx := context.Background()
	for _, owner := range []string{"alice", "bob"} {
		_, err := repo.Call(ctx, "open", owner, 100)
		require.NoError(t, err)
	}

	out, err := repo.Call(ctx, "transfer", 30, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, int64(1), out.Sets[1].AffectedRows())

	out, err = repo.Call(ctx, "brokenTransfer", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlerr.ErrTransaction)
	assert.True(t, out.Partial)
	assert.Equal(t, 1, out.Len())

	out, err = repo.Call(ctx, "all")
	require.NoError(t, err)
	first, ok, err := response.ToFirst[account, accountAdapter](out.Single())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(70), first.Balance, "rolled back update must not persist")
	last, ok, err := response.ToLast[account, accountAdapter](out.Single())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(130), last.Balance)
}

func TestSQLiteMixedStatementTransaction(t *testing.T) {
	_, repo := setupAccounts(t)
	ctx := context.Background()

	out, err := repo.Call(ctx, "openAndCount", "carol")
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.False(t, out.Partial)
	assert.Equal(t, int64(1), out.Sets[0].AffectedRows())
	row, ok := out.Sets[1].First()
	require.True(t, ok)
	n, err := row.NullableInt64ByLabel("n")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
