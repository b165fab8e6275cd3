package dbtx

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// arrangeMultipleBadConnections sets up a connection with multiple connectors
// where each connector is a bad connection.  It returns the mock database and
// the connection.
func arrangeMultipleBadConnections() (*sql.DB, *connection) {
	db := MockBadConnection()

	sut := &connection{
		autocommit: true,
		connectors: []Connector{
			MockConnector("a bad connection"),
			MockConnector("another bad connection"),
		},
		open: func(string, string) (*sql.DB, error) { return db, nil },
		db:   db,
		mru:  0,
	}
	sut.connect = sut.connectany
	sut.trymethod = &retry{sut}

	return db, sut
}

// arrangeConnectionTest sets up a connection over a sqlmock database using
// the noretry try method.  Additional mock expectations may be configured
// by passing a setup function which accepts the mock.
//
// This helper is used in the arrange phase of tests for the connection
// handle, prepared commands and the transaction coordinator.
func arrangeConnectionTest(setup func(sqlmock.Sqlmock)) (*connection, *sql.DB, sqlmock.Sqlmock) {
	db, dbmock, _ := sqlmock.New()
	setup(dbmock)

	sut := &connection{
		db:         db,
		autocommit: true,
	}
	sut.trymethod = &noretry{sut}

	return sut, db, dbmock
}

// prepareCommand registers a prepare expectation for the statement and
// prepares a command on the connection, failing the test on any error.
//
// Expectations are ordered, so commands must be prepared before any
// execution expectations are registered.
func prepareCommand(t *testing.T, cnc *connection, mock sqlmock.Sqlmock, text string) *Command {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(text))

	cmd, err := cnc.Prepare(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cmd
}

// mustBind binds a value to a command placeholder, failing the test on
// any error.
func mustBind(t *testing.T, cmd *Command, pos int, value any) {
	t.Helper()

	if err := cmd.Bind(pos, value); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErrorIsNil(t *testing.T, err error) {
	t.Run("returns expected error", func(t *testing.T) {
		wanted := (error)(nil)
		got := err
		if wanted != got {
			t.Errorf("\nwanted %#v\ngot    %#v", wanted, got)
		}
	})
}

func assertExpectedError(t *testing.T, wanted error, got error) {
	t.Run("returns expected error", func(t *testing.T) {
		if !errors.Is(got, wanted) {
			t.Errorf("\nwanted %#v\ngot    %#v", wanted, got)
		}
	})
}

func assertExpectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Run("mock expectations were met", func(t *testing.T) {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}
