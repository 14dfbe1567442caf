package sqlerr

import (
	"errors"
	"strings"
)

// Kind classifies a failure by the stage of the pipeline that produced it.
type Kind uint8

const (
	KindConfiguration Kind = iota + 1
	KindRender
	KindExecution
	KindTransaction
	KindAsync
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrRender        = errors.New("render error")
	ErrExecution     = errors.New("execution error")
	ErrTransaction   = errors.New("transaction error")
	ErrAsync         = errors.New("async error")

	// ErrMissingBinding is a render failure: a parameter has no binding name,
	// or the argument list does not line up with the declared bindings.
	ErrMissingBinding = errors.New("missing parameter binding")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindRender:
		return ErrRender
	case KindExecution:
		return ErrExecution
	case KindTransaction:
		return ErrTransaction
	case KindAsync:
		return ErrAsync
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown error"
}

// Error carries the failing operation identity and, once rendering has
// happened, the SQL text that was sent to the database.
type Error struct {
	Kind Kind
	Op   string
	SQL  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" [")
		b.WriteString(e.Op)
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.SQL != "" && !carriesSQL(e.Err, e.SQL) {
		b.WriteString(" (sql: ")
		b.WriteString(e.SQL)
		b.WriteString(")")
	}
	return b.String()
}

// carriesSQL reports whether a wrapped *Error already prints sql.
func carriesSQL(err error, sql string) bool {
	var se *Error
	return errors.As(err, &se) && se.SQL == sql
}

// Unwrap exposes both the kind sentinel and the cause, so errors.Is works
// against either.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func WithSQL(kind Kind, op, sql string, err error) *Error {
	return &Error{Kind: kind, Op: op, SQL: sql, Err: err}
}

// Annotate fills in the operation identity on an *Error that was raised below
// the dispatch boundary without one. Other errors are wrapped with the given
// kind.
func Annotate(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		if se.Op == "" {
			se.Op = op
		}
		return se
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}
