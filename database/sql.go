package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// SQLConn implements Conn over one connection taken from a database/sql pool.
type SQLConn struct {
	conn *sqlx.Conn
}

var _ Conn = (*SQLConn)(nil)

// NewSQLConn pins one connection of db for exclusive use.
func NewSQLConn(ctx context.Context, db *sqlx.DB) (*SQLConn, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	return &SQLConn{conn: conn}, nil
}

func (c *SQLConn) Prepare(ctx context.Context, query string) (Stmt, error) {
	stmt, err := c.conn.PreparexContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &SQLStmt{stmt: stmt, query: query}, nil
}

func (c *SQLConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &SQLTx{tx: tx}, nil
}

func (c *SQLConn) Ping(ctx context.Context) error { return c.conn.PingContext(ctx) }

// Close returns the connection to its pool.
func (c *SQLConn) Close() error { return c.conn.Close() }

// SQLStmt implements Stmt for *sqlx.Stmt.
type SQLStmt struct {
	stmt  *sqlx.Stmt
	query string
}

func (s *SQLStmt) SQL() string { return s.query }

func (s *SQLStmt) Query(ctx context.Context, args ...any) (Rows, error) {
	rows, err := s.stmt.QueryxContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return newSQLRows(rows)
}

func (s *SQLStmt) Exec(ctx context.Context, args ...any) (Result, error) {
	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return sqlResult(res)
}

func (s *SQLStmt) Close() error { return s.stmt.Close() }

// SQLTx implements Tx for *sqlx.Tx.
type SQLTx struct {
	tx *sqlx.Tx
}

func (t *SQLTx) Stmt(ctx context.Context, s Stmt) (Stmt, error) {
	st, ok := s.(*SQLStmt)
	if !ok {
		stmt, err := t.tx.PreparexContext(ctx, s.SQL())
		if err != nil {
			return nil, err
		}
		return &SQLStmt{stmt: stmt, query: s.SQL()}, nil
	}
	return &SQLStmt{stmt: t.tx.StmtxContext(ctx, st.stmt), query: st.query}, nil
}

func (t *SQLTx) Commit(context.Context) error   { return t.tx.Commit() }
func (t *SQLTx) Rollback(context.Context) error { return t.tx.Rollback() }

// sqlResult maps LastInsertId onto a one-row generated-keys cursor. Drivers
// that do not support it yield an empty cursor.
func sqlResult(res sql.Result) (Result, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	var keys Rows
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		keys = NewStaticRows(Labels(GeneratedKeyColumn), [][]any{{id}})
	}
	return NewResult(affected, keys), nil
}

// SQLRows implements Rows for *sqlx.Rows.
type SQLRows struct {
	rows    *sqlx.Rows
	columns []Column
}

func newSQLRows(rows *sqlx.Rows) (*SQLRows, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, err
	}
	cols := make([]Column, len(types))
	for i, ct := range types {
		nullable, ok := ct.Nullable()
		cols[i] = Column{Label: ct.Name(), Nullable: ok && nullable}
	}
	return &SQLRows{rows: rows, columns: cols}, nil
}

func (r *SQLRows) Columns() []Column      { return r.columns }
func (r *SQLRows) Next() bool             { return r.rows.Next() }
func (r *SQLRows) Values() ([]any, error) { return r.rows.SliceScan() }
func (r *SQLRows) Err() error             { return r.rows.Err() }
func (r *SQLRows) Close() error           { return r.rows.Close() }
