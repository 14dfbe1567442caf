package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Konsultn-Engineering/sqlrepo/database"
	"github.com/Konsultn-Engineering/sqlrepo/response"
	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
)

// TxState is the lifecycle position of a transaction.
type TxState uint8

const (
	TxIdle TxState = iota
	TxActive
	TxCommitted
	TxRolledBack
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("txstate(%d)", uint8(s))
	}
}

var errTxState = errors.New("invalid transaction state")

// transaction drives one invocation through
// Idle -> Active -> Committed | RolledBack -> Idle.
type transaction struct {
	conn   database.Conn
	tx     database.Tx
	state  TxState
	sets   []*response.Set
	logger *slog.Logger
}

func (t *transaction) begin(ctx context.Context) error {
	if t.state != TxIdle {
		return fmt.Errorf("%w: begin while %s", errTxState, t.state)
	}
	tx, err := t.conn.Begin(ctx)
	if err != nil {
		return err
	}
	t.tx = tx
	t.state = TxActive
	return nil
}

func (t *transaction) commit(ctx context.Context) error {
	if t.state != TxActive {
		return fmt.Errorf("%w: commit while %s", errTxState, t.state)
	}
	if err := t.tx.Commit(ctx); err != nil {
		// The driver has already ended the transaction.
		t.state = TxRolledBack
		return err
	}
	t.state = TxCommitted
	t.logger.Debug("transaction committed", "statements", len(t.sets))
	return nil
}

func (t *transaction) rollback(ctx context.Context) error {
	if t.state != TxActive {
		return nil
	}
	t.state = TxRolledBack
	return t.tx.Rollback(ctx)
}

// fail rolls back if still active and shapes the result by policy.
func (t *transaction) fail(ctx context.Context, policy FailurePolicy, sql string, cause error) (*Outcome, error) {
	if rbErr := t.rollback(context.WithoutCancel(ctx)); rbErr != nil {
		cause = errors.Join(cause, fmt.Errorf("rollback: %w", rbErr))
	}
	t.logger.Warn("transaction rolled back",
		"executed", len(t.sets),
		"policy", policy.String(),
		"error", cause,
	)

	err := sqlerr.WithSQL(sqlerr.KindTransaction, "", sql, cause)
	if policy == DiscardOnFailure {
		return nil, err
	}
	return &Outcome{Sets: t.sets, Partial: true}, err
}

// end returns the transaction to Idle, rolling back one left active.
func (t *transaction) end() {
	if t.state == TxActive {
		if err := t.rollback(context.Background()); err != nil {
			t.logger.Error("rollback of abandoned transaction failed", "error", err)
		}
	}
	t.state = TxIdle
	t.tx = nil
}
