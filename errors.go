package dbtx

import (
	"fmt"
)

type Error string

func (e Error) Error() string { return string(e) }

const ErrWithDbAndWithConnectorsIsInvalid = Error("cannot use WithConnector(s) when using WithDb")
const ErrWithDbAndWithConfigurationIsInvalid = Error("cannot use WithConfiguration when using WithDb")
const ErrNoConnectorsConfigured = Error("no connectors configured or database specified")
const ErrPingTimeoutIsInvalid = Error("ping timeout must be greater than or equal to zero")
const ErrLoggerIsNil = Error("logger must not be nil")
const ErrConnectionClosed = Error("connection is closed")
const ErrNoTransaction = Error("no transaction in progress")
const ErrCursorClosed = Error("cursor is closed")
const ErrNoCurrentRow = Error("no current row")

// ConfigurationError wraps any error returned during configuration of
// a new connection.
type ConfigurationError struct {
	error
}

// Error implements the error interface.
func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.error)
}

// Is returns a boolean indicating whether the target error is a
// ConfigurationError.
func (e ConfigurationError) Is(target error) bool {
	_, ok := target.(ConfigurationError)
	return ok
}

// Unwrap returns the wrapped error.
func (e ConfigurationError) Unwrap() error {
	return e.error
}

// ConnectionFailedError wraps errors that occur when attempting to establish
// a connection and all configured connectors have failed.
type ConnectionFailedError struct {
	error
}

// Error implements the error interface.
func (e ConnectionFailedError) Error() string {
	return fmt.Sprintf("connection failed: %s", e.error)
}

// Is returns a boolean indicating whether the target error is a
// ConnectionFailedError.
func (e ConnectionFailedError) Is(target error) bool {
	_, ok := target.(ConnectionFailedError)
	return ok
}

// Unwrap returns the wrapped error.
func (e ConnectionFailedError) Unwrap() error {
	return e.error
}

// ConnectionError wraps an error from a connection attempt using
// a specific connector, identifying the operation that failed.
type ConnectionError struct {
	Connector
	op string
	error
}

// Error implements the error interface.
func (e ConnectionError) Error() string {
	return fmt.Sprintf("unable to connect: %s: %s: %s", e.Connector, e.op, e.error)
}

// Is returns a boolean indicating whether the target error is a
// ConnectionError.
func (e ConnectionError) Is(target error) bool {
	_, ok := target.(ConnectionError)
	return ok
}

// Unwrap returns the wrapped error.
func (e ConnectionError) Unwrap() error { return e.error }

// SyntaxError wraps an error returned by the driver when preparing a
// statement, identifying the statement that was rejected.
type SyntaxError struct {
	stmt string
	error
}

// Error implements the error interface.
func (e SyntaxError) Error() string {
	return fmt.Sprintf("prepare: %s: %s", e.stmt, e.error)
}

// Is returns a boolean indicating whether the target error is a
// SyntaxError.
func (e SyntaxError) Is(target error) bool {
	_, ok := target.(SyntaxError)
	return ok
}

// Unwrap returns the wrapped error.
func (e SyntaxError) Unwrap() error { return e.error }

// BindError wraps an error describing misuse of a prepared command's
// parameters: a bind position outside the statement's placeholder range
// or execution with one or more placeholders unbound.
//
// A BindError is a usage error; it is detected before any call to the
// database and is never retried.
type BindError struct {
	error
}

// Error implements the error interface.
func (e BindError) Error() string {
	return fmt.Sprintf("bind: %s", e.error)
}

// Is returns a boolean indicating whether the target error is a
// BindError.
func (e BindError) Is(target error) bool {
	_, ok := target.(BindError)
	return ok
}

// Unwrap returns the wrapped error.
func (e BindError) Unwrap() error { return e.error }

// TransactionError wraps an error from a transaction operation, identifying
// the name of the transaction and the operation that failed.
type TransactionError struct {
	txn string
	op  string
	error
}

// Error implements the error interface.
func (e TransactionError) Error() string {
	s := "transaction"
	if e.txn != "" {
		s += ": " + e.txn
	}
	if e.op != "" {
		s += ": " + e.op
	}
	return s + ": " + e.error.Error()
}

// Is returns a boolean indicating whether the target error is a
// TransactionError.
//
// A target TransactionError is considered equal if it has the same
// transaction name and operation name as the receiver.
func (e TransactionError) Is(target error) bool {
	if other, ok := target.(TransactionError); ok {
		return e.txn == other.txn && e.op == other.op
	}
	return false
}

// Unwrap returns the wrapped error.
func (e TransactionError) Unwrap() error { return e.error }

// CursorError wraps an error from misuse of a result cursor, identifying
// the operation that failed.
type CursorError struct {
	op string
	error
}

// Error implements the error interface.
func (e CursorError) Error() string {
	return fmt.Sprintf("cursor: %s: %s", e.op, e.error)
}

// Is returns a boolean indicating whether the target error is a
// CursorError.
func (e CursorError) Is(target error) bool {
	_, ok := target.(CursorError)
	return ok
}

// Unwrap returns the wrapped error.
func (e CursorError) Unwrap() error { return e.error }
