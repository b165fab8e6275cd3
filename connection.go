package dbtx

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"time"
)

var PingTimeout = 500 * time.Millisecond

// discard is the logger used by connections with no logger configured.
var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type connection struct {
	db          *sql.DB
	tx          *sql.Tx // in-flight transaction when auto-commit is off
	autocommit  bool
	closed      bool
	log         *slog.Logger
	pingTimeout time.Duration
	connectors  []Connector         // configured connectors
	mru         int                 // the index of the most recently used (successfully connected) connector
	configure   func(*sql.DB) error //TODO: support slice of funcs (multiple configuration funcs)
	connect     func(context.Context) error
	open        func(string, string) (*sql.DB, error)
	trymethod
}

// NewConnection initialises a new connection to the database using the
// provided connectors.  The connection is established using the first
// connector that successfully connects.
//
// A new connection is in auto-commit mode: each statement commits
// implicitly.  Use SetAutoCommit or Transact to execute multiple
// statements as a single atomic unit.
//
// If additional configuration of the database is desired a function can be
// supplied which will be called after the connection has been established.
//
// The caller owns the returned connection and must release it by calling
// Close; deferring the call immediately after a successful acquisition
// guarantees release on every exit path.
func NewConnection(ctx context.Context, cfg ...ConfigurationFunc) (Connection, error) {
	c := &connection{
		autocommit: true,
		mru:        -1,
		open:       sql.Open,
	}

	// apply supplied configuration functions
	for _, cfg := range cfg {
		if err := cfg(c); err != nil {
			return nil, ConfigurationError{err}
		}
	}

	// set funcs according to whether we are configured with an injected db
	// or one (1) or more connectors
	switch len(c.connectors) {
	case 0:
		if c.db == nil {
			return nil, ConfigurationError{ErrNoConnectorsConfigured}
		}
		c.connect = c.connectdb
		c.trymethod = &noretry{c}
		return c, nil
	case 1:
		c.connect = c.connectany
		c.trymethod = &noretry{c}
	default:
		c.connect = c.connectany
		c.trymethod = &retry{c}
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// logger returns the configured logger or a discarding default.
func (c *connection) logger() *slog.Logger {
	if c.log == nil {
		return discard
	}
	return c.log
}

// connectany attempts to connect to the database using the configured connectors,
// starting with the connector following the most recently connected connector
// or the first connector if no connection has yet been made.
//
// All connectors will be tried until a connection is established or all
// connectors have been tried.
//
// If a connection is established a nil error is returned.
//
// If no connection can be established then a ConnectionFailedError is returned,
// wrapping the errors from each failed connection attempt.
func (c *connection) connectany(ctx context.Context) error {
	curr := c.mru
	ix := curr

	errs := make([]error, len(c.connectors))
	for i := 0; i < len(c.connectors); i++ {
		ix = (ix + 1) % len(c.connectors)
		cnc := c.connectors[ix]

		db, err := c.open(cnc.Driver(), cnc.ConnectionString())
		if err != nil {
			errs = append(errs, ConnectionError{cnc, "open db", err})
			continue
		}

		if err := db.PingContext(ctx); err != nil {
			errs = append(errs, ConnectionError{cnc, "ping", err})
			continue
		}

		c.db = db
		c.mru = ix
		break
	}

	if c.mru == curr {
		return ConnectionFailedError{errors.Join(errs...)}
	}

	c.logger().Debug("connected", "connector", c.connectors[c.mru].ConnectionString())

	if c.configure != nil {
		if err := c.configure(c.db); err != nil {
			return ConfigurationError{err}
		}
	}

	return nil
}

// connectdb verifies the validity of the current database connection
// by Ping()ing it.
func (c *connection) connectdb(ctx context.Context) error {
	return c.Ping(ctx)
}

// reconnect closes the current connection (ignoring any error)
// and attempts to reconnect
func (c *connection) reconnect(ctx context.Context) error {
	c.close(true)
	return c.connect(ctx)
}

// driver returns the driver name of the most recently connected connector,
// or an empty string when the connection was configured with an injected
// database handle.
func (c *connection) driver() string {
	if c.mru >= 0 && c.mru < len(c.connectors) {
		return c.connectors[c.mru].Driver()
	}
	return ""
}

// begin returns the in-flight transaction, beginning one if required.
//
// Transactions are begun lazily: disabling auto-commit does not itself
// touch the database; the transaction is begun by the first statement
// executed with auto-commit off.
func (c *connection) begin(ctx context.Context) (*sql.Tx, error) {
	if c.tx != nil {
		return c.tx, nil
	}

	// the transaction is started using the 'try' func so that any
	// connection errors are handled by the retry mechanism.
	var tx *sql.Tx
	err := c.try(ctx, func(db *sql.DB) error {
		var err error
		tx, err = db.BeginTx(ctx, nil)
		return err
	})
	if err != nil {
		return nil, TransactionError{op: "begin", error: err}
	}

	c.tx = tx
	return tx, nil
}

// endTx resolves the in-flight transaction, committing or rolling it back.
//
// When a commit fails the transaction is rolled back; an ErrTxDone from
// that rollback is ignored since a failed commit may already have resolved
// the transaction.
//
// Returns ErrNoTransaction if there is no transaction in flight.
func (c *connection) endTx(commit bool) error {
	tx := c.tx
	if tx == nil {
		return ErrNoTransaction
	}
	c.tx = nil

	if !commit {
		return tx.Rollback()
	}

	if err := tx.Commit(); err != nil {
		if rberr := tx.Rollback(); rberr != nil && !errors.Is(rberr, sql.ErrTxDone) {
			return errors.Join(err, rberr)
		}
		return err
	}

	return nil
}

// stmtFor returns the statement to be used for an execution: the prepared
// statement itself when auto-commit is on, or the statement bound to the
// in-flight transaction otherwise, beginning a transaction if required.
func (c *connection) stmtFor(ctx context.Context, stmt *sql.Stmt) (*sql.Stmt, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if c.autocommit {
		return stmt, nil
	}

	tx, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx.StmtContext(ctx, stmt), nil
}

// SetAutoCommit sets the auto-commit mode of the connection, returning the
// previous mode.
//
// With auto-commit on (the initial mode) each statement commits implicitly.
// With auto-commit off, statements execute in a transaction begun by the
// first statement and ended by Commit or Rollback.
//
// Enabling auto-commit while a transaction is in flight commits that
// transaction first.
//
// Returns ErrConnectionClosed if the connection has been closed.
func (c *connection) SetAutoCommit(on bool) (bool, error) {
	if c.closed {
		return false, ErrConnectionClosed
	}

	prev := c.autocommit
	if on && c.tx != nil {
		if err := c.Commit(); err != nil {
			return prev, err
		}
	}
	c.autocommit = on

	return prev, nil
}

// Commit commits all statements executed since the last commit or rollback
// on this connection.
//
// Returns a TransactionError wrapping ErrNoTransaction if no transaction
// is in flight, or wrapping the driver error if the commit fails.
func (c *connection) Commit() error {
	if c.closed {
		return ErrConnectionClosed
	}
	if err := c.endTx(true); err != nil {
		return TransactionError{op: "commit", error: err}
	}
	return nil
}

// Rollback discards all statements executed since the last commit or
// rollback on this connection.
//
// Returns a TransactionError wrapping ErrNoTransaction if no transaction
// is in flight, or wrapping the driver error if the rollback fails.
func (c *connection) Rollback() error {
	if c.closed {
		return ErrConnectionClosed
	}
	if err := c.endTx(false); err != nil {
		return TransactionError{op: "rollback", error: err}
	}
	return nil
}

// close closes the current database connection, if one exists.
//
// Any in-flight transaction is rolled back (ignoring any error) before
// the connection is closed.
//
// If force is true then the function always returns nil, otherwise
// any error returned by the database Close method is returned.
func (c *connection) close(force bool) error {
	if c.tx != nil {
		_ = c.endTx(false)
	}
	if db := c.db; db != nil {
		c.db = nil
		if err := db.Close(); err != nil && !force {
			return err
		}
	}
	return nil
}

// Close releases the connection.  It is safe to call on every exit path;
// closing an already-closed connection is a no-op.
func (c *connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.close(false)
}

// Exec executes a sql command or query returning a result (but no rows)
// and any error.
//
// With auto-commit off the command executes in the in-flight transaction,
// beginning one if required.
//
// If the connection is configured with multiple connectors and the current
// connector returns a driver.ErrBadConn error, the command will be retried on
// all connectors until it succeeds or all connectors have been tried.
//
// If all connectors return driver.ErrbadConn then a ConnectionFailedError
// is returned, wrapping the errors from each failed attempt.
//
// Connector retries are NOT performed for any other error.  All other errors
// (e.g. malformed SQL, database permissions, etc.) are immediately returned.
// Retries are also never performed within a transaction; all statements of
// a transaction must execute on the same connection.
func (c *connection) Exec(ctx context.Context, cmd string, args ...any) (result sql.Result, err error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if !c.autocommit {
		tx, err := c.begin(ctx)
		if err != nil {
			return nil, err
		}
		return tx.ExecContext(ctx, cmd, args...)
	}

	err = c.try(ctx, func(db *sql.DB) error {
		result, err = db.ExecContext(ctx, cmd, args...)
		return err
	})
	return
}

// Ping verifies a connection to the database is still alive, establishing
// a connection if necessary.  The Ping honors any configured PingTimeout
// on the Connection.  If not set on the connection, the PingTimeout
// set at the package level is applied.
//
// If the connection is configured with multiple connectors and Ping
// returns driver.ErrBadConn, the command will be retried on all connectors
// until it succeeds or all connectors have been tried.
func (c *connection) Ping(ctx context.Context) error {
	if c.closed {
		return ErrConnectionClosed
	}
	return c.try(ctx, func(db *sql.DB) error {
		t := c.pingTimeout
		if t == 0 {
			t = PingTimeout
		}

		ctx, cancel := context.WithTimeout(ctx, t)
		defer cancel()

		return db.PingContext(ctx)
	})
}

// Prepare creates and returns a prepared command for later execution.
//
// The command records the number of placeholders in the statement ('?'
// markers or '$n' ordinals); every placeholder must be bound with Bind
// before the command is executed.  The statement is prepared by the
// driver but nothing is executed.
//
// The caller must call the command's Close method when the command is no
// longer needed.
//
// A non-connection error from the driver (typically a rejected statement)
// is returned as a SyntaxError wrapping the driver error.
func (c *connection) Prepare(ctx context.Context, text string) (*Command, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}

	var stmt *sql.Stmt
	err := c.try(ctx, func(db *sql.DB) error {
		var err error
		stmt, err = db.PrepareContext(ctx, text)
		return err
	})
	if err != nil {
		return nil, SyntaxError{text, err}
	}

	n := countPlaceholders(text)
	return &Command{
		text: text,
		stmt: stmt,
		cnc:  c,
		args: make([]any, n),
		set:  make([]bool, n),
	}, nil
}

// Query executes a sql query that returns rows, typically a SELECT.
//
// With auto-commit off the query executes in the in-flight transaction,
// beginning one if required.
//
// If the connection is configured with multiple connectors and Query
// returns driver.ErrBadConn, the query will be retried on all connectors
// until it succeeds or all connectors have been tried.
func (c *connection) Query(ctx context.Context, qry string, args ...any) (rows *sql.Rows, err error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if !c.autocommit {
		tx, err := c.begin(ctx)
		if err != nil {
			return nil, err
		}
		return tx.QueryContext(ctx, qry, args...)
	}

	err = c.try(ctx, func(db *sql.DB) error {
		rows, err = db.QueryContext(ctx, qry, args...)
		return err
	})
	return
}

// QueryRow executes a sql query that is expected to return at most one row.
// QueryRow always returns a non-nil *sql.Row. Errors are deferred until the
// row's Scan() method is called.
//
// With auto-commit off the query executes in the in-flight transaction,
// beginning one if required.
func (c *connection) QueryRow(ctx context.Context, qry string, args ...any) (row *sql.Row, err error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if !c.autocommit {
		tx, err := c.begin(ctx)
		if err != nil {
			return nil, err
		}
		row := tx.QueryRowContext(ctx, qry, args...)
		return row, row.Err()
	}

	err = c.try(ctx, func(db *sql.DB) error {
		row = db.QueryRowContext(ctx, qry, args...)
		return row.Err()
	})
	return
}
