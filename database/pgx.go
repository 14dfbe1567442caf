package database

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConn implements Conn over one connection acquired from a pgxpool.Pool.
// A pgx connection is not safe for concurrent use, so mu is held from the
// start of a query until its rows are closed.
type PgxConn struct {
	conn *pgxpool.Conn
	mu   sync.Mutex
}

var _ Conn = (*PgxConn)(nil)

// NewPgxConn acquires one connection of pool for exclusive use.
func NewPgxConn(ctx context.Context, pool *pgxpool.Pool) (*PgxConn, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &PgxConn{conn: conn}, nil
}

func (c *PgxConn) Prepare(ctx context.Context, query string) (Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := "sr_" + uuid.NewString()
	if _, err := c.conn.Conn().Prepare(ctx, name, query); err != nil {
		return nil, err
	}
	return &PgxStmt{conn: c, name: name, query: query}, nil
}

func (c *PgxConn) Begin(ctx context.Context) (Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PgxTx{tx: tx}, nil
}

func (c *PgxConn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Ping(ctx)
}

// Close releases the connection back to its pool.
func (c *PgxConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Release()
	return nil
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxStmt is a named prepared statement. When tx is set it runs inside that
// transaction; the binding's transaction lock already excludes other users.
type PgxStmt struct {
	conn  *PgxConn
	tx    pgx.Tx
	name  string
	query string
}

func (s *PgxStmt) SQL() string { return s.query }

func (s *PgxStmt) querier() (pgxQuerier, func()) {
	if s.tx != nil {
		return s.tx, func() {}
	}
	s.conn.mu.Lock()
	return s.conn.conn, s.conn.mu.Unlock
}

func (s *PgxStmt) Query(ctx context.Context, args ...any) (Rows, error) {
	q, release := s.querier()
	rows, err := q.Query(ctx, s.name, args...)
	if err != nil {
		release()
		return nil, err
	}
	return newPgxRows(rows, release), nil
}

// Exec runs the statement as a query so RETURNING clauses surface as
// generated keys; the affected count comes from the command tag.
func (s *PgxStmt) Exec(ctx context.Context, args ...any) (Result, error) {
	q, release := s.querier()
	defer release()

	rows, err := q.Query(ctx, s.name, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := pgxColumns(rows.FieldDescriptions())
	var data [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		data = append(data, vals)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewResult(rows.CommandTag().RowsAffected(), NewStaticRows(cols, data)), nil
}

// Close deallocates the server-side statement.
func (s *PgxStmt) Close() error {
	if s.tx != nil {
		return nil
	}
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return s.conn.conn.Conn().Deallocate(context.Background(), s.name)
}

// PgxTx implements Tx for pgx.Tx.
type PgxTx struct {
	tx pgx.Tx
}

func (t *PgxTx) Stmt(ctx context.Context, s Stmt) (Stmt, error) {
	ps, ok := s.(*PgxStmt)
	if !ok {
		name := "sr_" + uuid.NewString()
		if _, err := t.tx.Prepare(ctx, name, s.SQL()); err != nil {
			return nil, err
		}
		return &PgxStmt{tx: t.tx, name: name, query: s.SQL()}, nil
	}
	return &PgxStmt{conn: ps.conn, tx: t.tx, name: ps.name, query: ps.query}, nil
}

func (t *PgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *PgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// PgxRows implements Rows for pgx.Rows.
type PgxRows struct {
	rows    pgx.Rows
	columns []Column
	release func()
	once    sync.Once
}

func newPgxRows(rows pgx.Rows, release func()) *PgxRows {
	return &PgxRows{rows: rows, columns: pgxColumns(rows.FieldDescriptions()), release: release}
}

func pgxColumns(fds []pgconn.FieldDescription) []Column {
	cols := make([]Column, len(fds))
	for i, fd := range fds {
		cols[i] = Column{Label: fd.Name}
	}
	return cols
}

func (r *PgxRows) Columns() []Column      { return r.columns }
func (r *PgxRows) Next() bool             { return r.rows.Next() }
func (r *PgxRows) Values() ([]any, error) { return r.rows.Values() }
func (r *PgxRows) Err() error             { return r.rows.Err() }

// Close closes the rows and hands the connection back to other callers.
func (r *PgxRows) Close() error {
	r.once.Do(func() {
		r.rows.Close()
		r.release()
	})
	return nil
}
