package dbtx

import (
	"context"
	"errors"
	"runtime/debug"

	"golang.org/x/exp/slices"
)

// Outcome describes the result of executing a batch of commands as a
// single atomic unit: committed with the affected row count of each
// command, or rolled back with the failure that caused it.
type Outcome struct {
	committed bool
	rows      []int64
	cause     error
}

// Committed returns true if the batch committed.
func (o Outcome) Committed() bool { return o.committed }

// RolledBack returns true if the batch did not commit.
func (o Outcome) RolledBack() bool { return !o.committed }

// RowsAffected returns the number of rows affected by each command of a
// committed batch, in execution order.
func (o Outcome) RowsAffected() []int64 { return slices.Clone(o.rows) }

// Cause returns the failure that prevented the batch committing.
func (o Outcome) Cause() error { return o.cause }

// Transact executes the supplied commands, in order, as a single atomic
// unit with a given name.  All of the commands take effect or none do.
//
// Auto-commit is disabled for the duration of the batch and the prior
// mode is restored on every exit path, whatever the outcome.  Commands
// execute synchronously in the caller-supplied order, stopping at the
// first failure; commands after a failed command are never executed.
//
// If every command succeeds the transaction is committed and the outcome
// reports the affected row count of each command.  If any command fails,
// or the commit itself fails, the transaction is rolled back and the
// returned error is a TransactionError identifying the transaction by
// name; if the rollback also fails its error is joined to the original
// failure, which remains the primary cause.
//
// An empty batch is a no-op commit: the outcome is Committed with no row
// counts and no transaction is begun.
//
// If the supplied commands panic the transaction is rolled back and a
// TransactionError wrapping the stack is returned.
//
// The connection is borrowed for the duration of the batch and must not
// be used concurrently by another caller; callers needing concurrent
// transactions must use separate connections.
func (c *connection) Transact(ctx context.Context, name string, cmds ...*Command) (outcome Outcome, err error) {
	prev, err := c.SetAutoCommit(false)
	if err != nil {
		err = TransactionError{name, "set autocommit", err}
		return Outcome{cause: err}, err
	}

	// the prior auto-commit mode is restored on every exit path; by the
	// time this runs any transaction begun by the batch has been committed
	// or rolled back, so restoring does not itself commit anything
	defer func() {
		if _, rerr := c.SetAutoCommit(prev); rerr != nil {
			err = errors.Join(err, TransactionError{name, "restore autocommit", rerr})
		}
		if err != nil {
			outcome = Outcome{cause: err}
			c.logger().Error("transaction failed", "transaction", name, "error", err)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = c.rollbackAfter(name, TransactionError{name, "panic", errors.New(string(debug.Stack()))})
		}
	}()

	rows := make([]int64, 0, len(cmds))
	for _, cmd := range cmds {
		n, execerr := cmd.ExecuteUpdate(ctx)
		if execerr != nil {
			err = c.rollbackAfter(name, TransactionError{txn: name, error: execerr})
			return outcome, err
		}
		rows = append(rows, n)
	}

	// with no commands executed no transaction was begun and there is
	// nothing to commit
	if c.tx != nil {
		if cmterr := c.endTx(true); cmterr != nil {
			err = TransactionError{name, "commit", cmterr}
			return outcome, err
		}
	}

	outcome = Outcome{committed: true, rows: rows}
	c.logger().Debug("transaction committed", "transaction", name, "commands", len(cmds))

	return outcome, nil
}

// rollbackAfter rolls back any in-flight transaction after a failure.  A
// failure of the rollback itself is joined to the original failure as a
// secondary error; the original failure is always the primary cause.
func (c *connection) rollbackAfter(name string, primary error) error {
	if c.tx == nil {
		return primary
	}
	if rberr := c.endTx(false); rberr != nil {
		return errors.Join(primary, TransactionError{name, "rollback", rberr})
	}
	return primary
}
