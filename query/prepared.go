package query

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/sqlrepo/database"
	"github.com/Konsultn-Engineering/sqlrepo/response"
	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
)

// PreparedQuery owns the native statement for one template on one connection.
// The statement is prepared lazily and re-prepared whenever the rendered SQL
// differs from the text it was prepared with. All use of a PreparedQuery is
// serialized: a caller holds it from prepare until its result is closed.
type PreparedQuery struct {
	mu       sync.Mutex
	conn     database.Conn
	template string
	logger   *slog.Logger

	stmt     database.Stmt
	prepared string
	args     []any

	closeOnCompletion bool
	closed            bool
}

// New returns an unprepared query for template on conn.
func New(conn database.Conn, template string, logger *slog.Logger) *PreparedQuery {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreparedQuery{conn: conn, template: template, logger: logger}
}

// Template returns the template text the query was created for.
func (q *PreparedQuery) Template() string { return q.template }

// Clone returns a new query sharing only the template and connection. The
// clone prepares its own statement and closes it after one execution.
func (q *PreparedQuery) Clone() *PreparedQuery {
	return New(q.conn, q.template, q.logger).CloseOnCompletion()
}

// CloseOnCompletion marks q to release its statement after the next
// execution.
func (q *PreparedQuery) CloseOnCompletion() *PreparedQuery {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closeOnCompletion = true
	return q
}

// Args returns the arguments bound by the last execution.
func (q *PreparedQuery) Args() []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]any(nil), q.args...)
}

// Close releases the native statement. It waits for a running execution to
// finish. A closed query still works; it prepares again on next use and
// releases the statement right after.
func (q *PreparedQuery) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return q.release()
}

func (q *PreparedQuery) release() error {
	if q.stmt == nil {
		return nil
	}
	err := q.stmt.Close()
	q.stmt = nil
	q.prepared = ""
	return err
}

func (q *PreparedQuery) statement(ctx context.Context, sql string) (database.Stmt, error) {
	if q.stmt != nil && q.prepared == sql {
		return q.stmt, nil
	}
	if q.stmt != nil {
		q.logger.Debug("re-preparing statement", "template", q.template, "sql", sql)
		old := q.prepared
		if err := q.release(); err != nil {
			q.logger.Warn("closing replaced statement", "sql", old, "error", err)
		}
	} else {
		q.logger.Debug("preparing statement", "sql", sql)
	}

	stmt, err := q.conn.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	q.stmt = stmt
	q.prepared = sql
	return stmt, nil
}

// Result is a raw execution result. Closing it releases the query for the
// next caller; it must always be closed.
type Result struct {
	AffectedRows int64
	Rows         database.Rows

	once  sync.Once
	done  func()
	close error
}

// Close closes the cursor and releases the query.
func (r *Result) Close() error {
	r.once.Do(func() {
		if r.Rows != nil {
			r.close = r.Rows.Close()
		}
		r.done()
	})
	return r.close
}

// IsRead reports whether sql is classified as a read: its trimmed text starts
// with select or show, in any case.
func IsRead(sql string) bool {
	s := strings.TrimSpace(sql)
	return hasPrefixFold(s, "select") || hasPrefixFold(s, "show")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Execute runs sql through the query's statement, inside tx when it is not
// nil. Reads yield their cursor with AffectedRows 0; writes yield the update
// count and a cursor over generated keys.
func (q *PreparedQuery) Execute(ctx context.Context, tx database.Tx, sql string, args []any) (*Result, error) {
	q.mu.Lock()

	res, err := q.execute(ctx, tx, sql, args)
	if err != nil {
		q.finish()
		q.mu.Unlock()
		return nil, sqlerr.WithSQL(sqlerr.KindExecution, "", sql, err)
	}

	res.done = func() {
		q.finish()
		q.mu.Unlock()
	}
	return res, nil
}

func (q *PreparedQuery) execute(ctx context.Context, tx database.Tx, sql string, args []any) (*Result, error) {
	stmt, err := q.statement(ctx, sql)
	if err != nil {
		return nil, err
	}
	if tx != nil {
		if stmt, err = tx.Stmt(ctx, stmt); err != nil {
			return nil, err
		}
	}
	q.args = args

	if IsRead(sql) {
		rows, err := stmt.Query(ctx, args...)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: rows}, nil
	}

	res, err := stmt.Exec(ctx, args...)
	if err != nil {
		return nil, err
	}
	return &Result{AffectedRows: res.RowsAffected(), Rows: res.GeneratedKeys()}, nil
}

// finish runs with mu held after every execution.
func (q *PreparedQuery) finish() {
	if !q.closeOnCompletion && !q.closed {
		return
	}
	if err := q.release(); err != nil {
		q.logger.Warn("closing statement", "sql", q.template, "error", err)
	}
}

// Run executes sql and materializes the whole result before releasing the
// query.
func (q *PreparedQuery) Run(ctx context.Context, tx database.Tx, sql string, args []any) (*response.Set, error) {
	res, err := q.Execute(ctx, tx, sql, args)
	if err != nil {
		return nil, err
	}
	set, err := response.Materialize(res.AffectedRows, res.Rows)
	closeErr := res.Close()
	if err != nil {
		return nil, sqlerr.WithSQL(sqlerr.KindExecution, "", sql, err)
	}
	if closeErr != nil {
		q.logger.Debug("closing cursor", "sql", sql, "error", closeErr)
	}
	return set, nil
}
