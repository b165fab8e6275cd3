package dbtx

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"golang.org/x/exp/slices"
)

// Command is a parameterized statement prepared on a connection, with
// values bound to its placeholders by 1-based position.
//
// A command may be executed any number of times; each execution re-sends
// the currently bound values and produces an independent result.
// Re-binding after an execution is permitted and does not affect prior
// results.
type Command struct {
	text string
	stmt *sql.Stmt
	cnc  *connection
	args []any
	set  []bool
}

// Text returns the statement text the command was prepared from.
func (c *Command) Text() string { return c.text }

// Bind sets the value for the placeholder at the given 1-based position.
//
// Returns a BindError if the position is out of range for the statement's
// placeholders.
func (c *Command) Bind(pos int, value any) error {
	if pos < 1 || pos > len(c.args) {
		return BindError{fmt.Errorf("position %d is out of range: statement has %d placeholder(s)", pos, len(c.args))}
	}
	c.args[pos-1] = value
	c.set[pos-1] = true
	return nil
}

// arguments returns a copy of the bound values, or a BindError if any
// placeholder is unbound.  Copying ensures a subsequent re-bind cannot
// affect an execution already in progress.
func (c *Command) arguments() ([]any, error) {
	for i, bound := range c.set {
		if !bound {
			return nil, BindError{fmt.Errorf("placeholder %d of %d is unbound", i+1, len(c.set))}
		}
	}
	return slices.Clone(c.args), nil
}

// ExecuteUpdate executes the command as a mutating statement, returning
// the number of rows affected.
//
// With auto-commit off on the associated connection the statement executes
// in the in-flight transaction, beginning one if required.
func (c *Command) ExecuteUpdate(ctx context.Context) (int64, error) {
	args, err := c.arguments()
	if err != nil {
		return 0, err
	}

	stmt, err := c.cnc.stmtFor(ctx, c.stmt)
	if err != nil {
		return 0, err
	}

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ExecuteQuery executes the command as a query, returning a forward-only
// cursor over the result rows.  The caller must close the cursor.
//
// With auto-commit off on the associated connection the query executes
// in the in-flight transaction, beginning one if required.
func (c *Command) ExecuteQuery(ctx context.Context) (*Cursor, error) {
	args, err := c.arguments()
	if err != nil {
		return nil, err
	}

	stmt, err := c.cnc.stmtFor(ctx, c.stmt)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return newCursor(rows)
}

// Close releases the driver-side prepared statement.
func (c *Command) Close() error {
	return c.stmt.Close()
}

// countPlaceholders counts the bind markers in a statement: '?' markers or
// the highest '$n' ordinal, whichever yields more.  Markers within quoted
// literals are ignored.
func countPlaceholders(text string) int {
	var count, ordinal int
	var quote byte

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == '?':
			count++
		case ch == '$':
			j := i + 1
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}
			if j > i+1 {
				if n, _ := strconv.Atoi(text[i+1 : j]); n > ordinal {
					ordinal = n
				}
				i = j - 1
			}
		}
	}

	if ordinal > count {
		return ordinal
	}
	return count
}
