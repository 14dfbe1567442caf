// Package dbtest provides a scriptable in-memory database.Conn for tests.
package dbtest

import (
	"context"
	"errors"
	"sync"

	"github.com/Konsultn-Engineering/sqlrepo/database"
)

var ErrClosed = errors.New("dbtest: connection closed")

// Call records one statement execution.
type Call struct {
	SQL  string
	Args []any
	InTx bool
	Exec bool
}

type response struct {
	columns  []database.Column
	data     [][]any
	affected int64
	keys     [][]any
	err      error
}

// Conn is a fake connection. Responses are scripted by SQL text; unscripted
// queries return no rows and unscripted writes affect nothing.
type Conn struct {
	mu        sync.Mutex
	responses map[string]response
	prepared  []string
	stmts     []*Stmt
	calls     []Call
	commits   int
	rollbacks int
	closed    bool
	pingErr   error
	prepErr   error
	beginErr  error

	// Hook, when set, runs inside every execution before the response is
	// produced, without holding the connection lock.
	Hook func(Call)
}

var _ database.Conn = (*Conn)(nil)

func New() *Conn {
	return &Conn{responses: map[string]response{}}
}

// OnQuery scripts the rows returned for sql.
func (c *Conn) OnQuery(sql string, columns []database.Column, rows ...[]any) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[sql] = response{columns: columns, data: rows}
	return c
}

// OnExec scripts the affected count and generated keys for sql.
func (c *Conn) OnExec(sql string, affected int64, keys ...[]any) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[sql] = response{affected: affected, keys: keys}
	return c
}

// Fail makes every execution of sql return err.
func (c *Conn) Fail(sql string, err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[sql] = response{err: err}
	return c
}

func (c *Conn) FailPing(err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingErr = err
	return c
}

func (c *Conn) FailPrepare(err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prepErr = err
	return c
}

func (c *Conn) FailBegin(err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beginErr = err
	return c
}

// Prepared lists the SQL of every successful Prepare, in order.
func (c *Conn) Prepared() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prepared...)
}

// Statements lists every statement prepared outside a transaction.
func (c *Conn) Statements() []*Stmt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Stmt(nil), c.stmts...)
}

// Calls lists every execution, in order.
func (c *Conn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

func (c *Conn) Commits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

func (c *Conn) Rollbacks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollbacks
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) Prepare(_ context.Context, query string) (database.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.prepErr != nil {
		return nil, c.prepErr
	}
	c.prepared = append(c.prepared, query)
	stmt := &Stmt{conn: c, query: query}
	c.stmts = append(c.stmts, stmt)
	return stmt, nil
}

func (c *Conn) Begin(context.Context) (database.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	return &Tx{conn: c}, nil
}

func (c *Conn) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.pingErr
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Conn) run(call Call) (response, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return response{}, ErrClosed
	}
	c.calls = append(c.calls, call)
	resp := c.responses[call.SQL]
	hook := c.Hook
	c.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return resp, resp.err
}

// Stmt is a fake prepared statement.
type Stmt struct {
	conn   *Conn
	query  string
	inTx   bool
	closed bool
}

func (s *Stmt) SQL() string { return s.query }

func (s *Stmt) Query(_ context.Context, args ...any) (database.Rows, error) {
	resp, err := s.conn.run(Call{SQL: s.query, Args: args, InTx: s.inTx})
	if err != nil {
		return nil, err
	}
	return database.NewStaticRows(resp.columns, resp.data), nil
}

func (s *Stmt) Exec(_ context.Context, args ...any) (database.Result, error) {
	resp, err := s.conn.run(Call{SQL: s.query, Args: args, InTx: s.inTx, Exec: true})
	if err != nil {
		return nil, err
	}
	var keys database.Rows
	if len(resp.keys) > 0 {
		keys = database.NewStaticRows(database.Labels(database.GeneratedKeyColumn), resp.keys)
	}
	return database.NewResult(resp.affected, keys), nil
}

func (s *Stmt) Close() error {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (s *Stmt) IsClosed() bool {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return s.closed
}

// Tx is a fake transaction.
type Tx struct {
	conn *Conn
	done bool
}

func (t *Tx) Stmt(_ context.Context, s database.Stmt) (database.Stmt, error) {
	return &Stmt{conn: t.conn, query: s.SQL(), inTx: true}, nil
}

func (t *Tx) Commit(context.Context) error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	if t.done {
		return errors.New("dbtest: transaction already finished")
	}
	t.done = true
	t.conn.commits++
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	if t.done {
		return errors.New("dbtest: transaction already finished")
	}
	t.done = true
	t.conn.rollbacks++
	return nil
}
