package database

import (
	"context"
)

// Conn is one physical connection. Statements prepared on it stay bound to it.
type Conn interface {
	Prepare(ctx context.Context, query string) (Stmt, error)
	Begin(ctx context.Context) (Tx, error)
	// Ping reports whether the connection is still usable.
	Ping(ctx context.Context) error
	Close() error
}

// Stmt is a prepared statement. Arguments bind positionally; nil binds SQL NULL.
type Stmt interface {
	SQL() string
	Query(ctx context.Context, args ...any) (Rows, error)
	Exec(ctx context.Context, args ...any) (Result, error)
	Close() error
}

// Tx is an open transaction on a Conn.
type Tx interface {
	// Stmt returns s bound to the transaction.
	Stmt(ctx context.Context, s Stmt) (Stmt, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Column describes one result column. Nullable is set only when the driver
// reports the column as nullable; unknown nullability counts as not nullable.
type Column struct {
	Label    string
	Nullable bool
}

// Rows is a forward-only cursor.
type Rows interface {
	Columns() []Column
	Next() bool
	// Values returns the current row, one value per column. A nil value is SQL
	// NULL. The slice is owned by the caller.
	Values() ([]any, error)
	Err() error
	Close() error
}

// Result is the outcome of a write.
type Result interface {
	RowsAffected() int64
	// GeneratedKeys is a cursor over keys produced by the write. It is empty,
	// never nil, when the driver reports none.
	GeneratedKeys() Rows
}

// GeneratedKeyColumn labels the key column when a driver reports a single
// last-insert id rather than returning rows.
const GeneratedKeyColumn = "generated_key"

type result struct {
	affected int64
	keys     Rows
}

// NewResult builds a Result. A nil keys cursor is replaced by an empty one.
func NewResult(affected int64, keys Rows) Result {
	if keys == nil {
		keys = NewStaticRows(nil, nil)
	}
	return &result{affected: affected, keys: keys}
}

func (r *result) RowsAffected() int64  { return r.affected }
func (r *result) GeneratedKeys() Rows { return r.keys }
