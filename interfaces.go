package dbtx

import (
	"context"
	"database/sql"
)

type Connector interface {
	ConnectionString() string
	Driver() string
}

// SessionMethods is the transactional surface of a connection: the
// auto-commit switch and explicit transaction boundaries.
//
// SetAutoCommit returns the previous auto-commit mode.  Commit and
// Rollback apply to all statements executed since the last commit or
// rollback on the connection.
type SessionMethods interface {
	SetAutoCommit(bool) (bool, error)
	Commit() error
	Rollback() error
}

type QueryMethods interface {
	Exec(context.Context, string, ...any) (sql.Result, error)
	Prepare(context.Context, string) (*Command, error)
	Query(context.Context, string, ...any) (*sql.Rows, error)
	QueryRow(context.Context, string, ...any) (*sql.Row, error)
}

type Connection interface {
	QueryMethods
	SessionMethods
	Ping(context.Context) error
	Tables(context.Context) ([]string, error)
	Transact(context.Context, string, ...*Command) (Outcome, error)
	Close() error
}
