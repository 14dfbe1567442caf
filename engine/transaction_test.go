package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Konsultn-Engineering/sqlrepo/database"
	"github.com/Konsultn-Engineering/sqlrepo/database/dbtest"
	"github.com/Konsultn-Engineering/sqlrepo/descriptor"
	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txMeta(statements ...string) descriptor.Metadata {
	return descriptor.Metadata{
		Transaction: statements,
		Params:      []descriptor.Param{{Name: "id"}},
		Repository:  "accounts",
		Table:       "accounts",
		Connection:  testConfig,
	}
}

var transferPlan = []string{
	"update ${table} set balance = balance - 10 where id = ${id}",
	"update ${table} set balance = balance + 10 where id = ${id} + 1",
	"insert into audit (account) values (${id})",
}

func TestTransactionCommitsInOrder(t *testing.T) {
	conn := dbtest.New().OnExec("insert into audit (account) values (4)", 1, []any{int64(99)})
	e := newTestEngine(t, Options{}, conn)

	out, err := e.Invoke(context.Background(), "accounts.transfer", txMeta(transferPlan...), 4)

	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	assert.False(t, out.Partial)
	assert.Equal(t, int64(1), out.Sets[2].AffectedRows())
	assert.Equal(t, 1, conn.Commits())
	assert.Equal(t, 0, conn.Rollbacks())

	calls := conn.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "update accounts set balance = balance - 10 where id = 4", calls[0].SQL)
	assert.Equal(t, "update accounts set balance = balance + 10 where id = 4 + 1", calls[1].SQL)
	for _, c := range calls {
		assert.True(t, c.InTx)
	}
}

func TestTransactionAbortReturnsPartialOutcome(t *testing.T) {
	boom := errors.New("constraint violated")
	conn := dbtest.New().Fail("update accounts set balance = balance + 10 where id = 4 + 1", boom)
	e := newTestEngine(t, Options{}, conn)

	out, err := e.Invoke(context.Background(), "accounts.transfer", txMeta(transferPlan...), 4)

	require.Error(t, err)
	require.NotNil(t, out)
	assert.True(t, out.Partial)
	assert.Equal(t, 1, out.Len())
	assert.Equal(t, 1, conn.Rollbacks())
	assert.Equal(t, 0, conn.Commits())
	assert.Len(t, conn.Calls(), 2, "statement 3 must never run")

	assert.ErrorIs(t, err, sqlerr.ErrTransaction)
	assert.ErrorIs(t, err, sqlerr.ErrExecution)
	assert.ErrorIs(t, err, boom)
	kind, ok := sqlerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, sqlerr.KindTransaction, kind)
	var se *sqlerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "accounts.transfer", se.Op)
	assert.Equal(t, "update accounts set balance = balance + 10 where id = 4 + 1", se.SQL)
}

func TestTransactionStatementsBindOnlyTheirArguments(t *testing.T) {
	conn := dbtest.New()
	e := newTestEngine(t, Options{}, conn)
	md := descriptor.Metadata{
		Transaction: []string{
			"insert into ${table} (owner, note) values (${owner}, ${note})",
			"select count(*) from ${table}",
			"update ${table} set note = ${note} where owner = ${owner}",
		},
		Params:     []descriptor.Param{descriptor.Positional("owner"), descriptor.Positional("note")},
		Repository: "accounts",
		Table:      "accounts",
		Connection: testConfig,
	}

	_, err := e.Invoke(context.Background(), "accounts.annotate", md, "ann", "vip")

	require.NoError(t, err)
	calls := conn.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "insert into accounts (owner, note) values (?, ?)", calls[0].SQL)
	assert.Equal(t, []any{"ann", "vip"}, calls[0].Args)
	assert.Empty(t, calls[1].Args)
	assert.Equal(t, "update accounts set note = ? where owner = ?", calls[2].SQL)
	assert.Equal(t, []any{"vip", "ann"}, calls[2].Args)
}

func TestTransactionErrorNamesSQLOnce(t *testing.T) {
	conn := dbtest.New().Fail("insert into audit (account) values (4)", errors.New("no such table: audit"))
	e := newTestEngine(t, Options{}, conn)

	_, err := e.Invoke(context.Background(), "accounts.transfer", txMeta(transferPlan...), 4)

	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "(sql: "), err.Error())
}

func TestTransactionAbortDiscardsOutcome(t *testing.T) {
	conn := dbtest.New().Fail("insert into audit (account) values (4)", errors.New("no such table: audit"))
	e := newTestEngine(t, Options{FailurePolicy: DiscardOnFailure}, conn)

	out, err := e.Invoke(context.Background(), "accounts.transfer", txMeta(transferPlan...), 4)

	assert.Nil(t, out)
	assert.ErrorIs(t, err, sqlerr.ErrTransaction)
	assert.Equal(t, 1, conn.Rollbacks())
	assert.Len(t, conn.Calls(), 3)
}

func TestTransactionBeginFailure(t *testing.T) {
	conn := dbtest.New().FailBegin(errors.New("too many transactions"))
	e := newTestEngine(t, Options{}, conn)

	out, err := e.Invoke(context.Background(), "accounts.transfer", txMeta(transferPlan...), 4)

	assert.Nil(t, out)
	assert.ErrorIs(t, err, sqlerr.ErrTransaction)
	assert.Empty(t, conn.Calls())
	assert.Equal(t, 0, conn.Rollbacks())
}

func TestTransactionRenderFailureRollsBack(t *testing.T) {
	conn := dbtest.New()
	e := newTestEngine(t, Options{}, conn)

	out, err := e.Invoke(context.Background(), "accounts.transfer", txMeta(transferPlan...))

	assert.ErrorIs(t, err, sqlerr.ErrTransaction)
	assert.ErrorIs(t, err, sqlerr.ErrMissingBinding)
	require.NotNil(t, out)
	assert.True(t, out.Partial)
	assert.Equal(t, 0, out.Len())
	assert.Empty(t, conn.Calls())
	assert.Equal(t, 1, conn.Rollbacks())
}

func TestTransactionFieldPathWithoutAccessorsIsRejected(t *testing.T) {
	conn := dbtest.New()
	e := newTestEngine(t, Options{}, conn)
	md := txMeta("delete from ${table} where id = ${id}", "select ${id}.$owner")

	out, err := e.Invoke(context.Background(), "accounts.purge", md, 4)

	assert.ErrorIs(t, err, sqlerr.ErrConfiguration)
	assert.Nil(t, out)
	assert.Empty(t, conn.Calls())
}

func TestQueryWaitsForOpenTransaction(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	conn := dbtest.New()
	conn.Hook = func(c dbtest.Call) {
		if c.InTx && c.SQL == "update accounts set balance = balance - 10 where id = 4" {
			close(started)
			<-release
		}
	}
	e := newTestEngine(t, Options{}, conn)
	ctx := context.Background()

	txDone := make(chan error, 1)
	go func() {
		_, err := e.Invoke(ctx, "accounts.transfer", txMeta(transferPlan...), 4)
		txDone <- err
	}()
	<-started

	queryDone := make(chan error, 1)
	go func() {
		_, err := e.Invoke(ctx, "accounts.count", descriptor.Metadata{
			Query:      "select count(*) from ${table}",
			Repository: "accounts",
			Table:      "accounts",
			Connection: testConfig,
		})
		queryDone <- err
	}()

	select {
	case <-queryDone:
		t.Fatal("query ran inside an open transaction")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-txDone)
	require.NoError(t, <-queryDone)

	calls := conn.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "select count(*) from accounts", calls[3].SQL)
	assert.False(t, calls[3].InTx)
}

func TestTransactionStateMachine(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("commit path", func(t *testing.T) {
		tx := &transaction{conn: dbtest.New(), logger: logger}
		assert.Equal(t, TxIdle, tx.state)

		require.NoError(t, tx.begin(ctx))
		assert.Equal(t, TxActive, tx.state)
		assert.ErrorIs(t, tx.begin(ctx), errTxState)

		require.NoError(t, tx.commit(ctx))
		assert.Equal(t, TxCommitted, tx.state)
		assert.ErrorIs(t, tx.commit(ctx), errTxState)

		tx.end()
		assert.Equal(t, TxIdle, tx.state)
	})

	t.Run("failure path", func(t *testing.T) {
		conn := dbtest.New()
		tx := &transaction{conn: conn, logger: logger}
		require.NoError(t, tx.begin(ctx))

		out, err := tx.fail(ctx, PartialOnFailure, "select 1", errors.New("boom"))

		assert.Equal(t, TxRolledBack, tx.state)
		assert.True(t, out.Partial)
		assert.Equal(t, 0, out.Len())
		assert.ErrorIs(t, err, sqlerr.ErrTransaction)
		assert.Equal(t, 1, conn.Rollbacks())

		tx.end()
		assert.Equal(t, TxIdle, tx.state)
		assert.Equal(t, 1, conn.Rollbacks())
	})

	t.Run("abandoned transaction is rolled back", func(t *testing.T) {
		conn := dbtest.New()
		tx := &transaction{conn: conn, logger: logger}
		require.NoError(t, tx.begin(ctx))

		tx.end()

		assert.Equal(t, TxIdle, tx.state)
		assert.Equal(t, 1, conn.Rollbacks())
	})

	assert.Equal(t, "rolled back", TxRolledBack.String())
}

func TestOutcomeSingle(t *testing.T) {
	var nilOutcome *Outcome
	assert.Nil(t, nilOutcome.Single())
	assert.Equal(t, 0, nilOutcome.Len())
	assert.Nil(t, (&Outcome{}).Single())

	conn := dbtest.New().OnQuery("select 1", database.Labels("x"), []any{1})
	e := newTestEngine(t, Options{}, conn)
	out, err := e.Invoke(context.Background(), "accounts.one", descriptor.Metadata{
		Query:      "select 1",
		Repository: "accounts",
		Connection: testConfig,
	})
	require.NoError(t, err)
	assert.Same(t, out.Sets[0], out.Single())
}
