package dbtx

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/exp/slices"
)

// arrangeCursorTest initialises a cursor over a result set with the
// employees fixture columns and the supplied rows.
func arrangeCursorTest(t *testing.T, rows *sqlmock.Rows) *Cursor {
	t.Helper()

	sut, db, _ := arrangeConnectionTest(func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT (.+) FROM employees").WillReturnRows(rows)
	})
	t.Cleanup(func() { db.Close() })

	result, err := sut.Query(context.Background(), "SELECT * FROM employees")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cursor, err := newCursor(result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cursor
}

func employeeRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("emp_id").OfType("BIGINT", int64(0)),
		sqlmock.NewColumn("name").OfType("VARCHAR", ""),
		sqlmock.NewColumn("position").OfType("VARCHAR", ""),
		sqlmock.NewColumn("salary").OfType("DOUBLE", float64(0)),
	)
}

func TestCursor_Columns(t *testing.T) {
	// ARRANGE
	sut := arrangeCursorTest(t, employeeRows().AddRow(int64(1), "john", "developer", float64(2000)))
	defer sut.Close()

	// ACT
	result := sut.Columns()

	// ASSERT
	wanted := []Column{
		{Name: "emp_id", Kind: KindInteger},
		{Name: "name", Kind: KindString},
		{Name: "position", Kind: KindString},
		{Name: "salary", Kind: KindFloat},
	}
	got := result
	if !slices.Equal(wanted, got) {
		t.Errorf("\nwanted %#v\ngot    %#v", wanted, got)
	}
}

func TestCursor(t *testing.T) {
	// ARRANGE
	sut := arrangeCursorTest(t, employeeRows().
		AddRow(int64(1), "john", "developer", float64(2000)).
		AddRow(int64(2), "mark", "analyst", float64(2000)))
	defer sut.Close()

	t.Run("before the first row", func(t *testing.T) {
		// ACT
		_, err := sut.Int(1)

		// ASSERT
		assertExpectedError(t, CursorError{}, err)
		assertExpectedError(t, ErrNoCurrentRow, err)
	})

	t.Run("on the first row", func(t *testing.T) {
		// ARRANGE
		if !sut.Next() {
			t.Fatalf("unexpected error: %v", sut.Err())
		}

		t.Run("by position", func(t *testing.T) {
			// ACT
			id, iderr := sut.Int(1)
			name, nameerr := sut.String(2)
			salary, salaryerr := sut.Float(4)

			// ASSERT
			assertErrorIsNil(t, iderr)
			assertErrorIsNil(t, nameerr)
			assertErrorIsNil(t, salaryerr)

			wanted := true
			got := id == 1 && name == "john" && salary == 2000
			if wanted != got {
				t.Errorf("\nwanted %#v\ngot    id=%v name=%v salary=%v", wanted, id, name, salary)
			}
		})

		t.Run("by name", func(t *testing.T) {
			// ACT
			id, iderr := sut.IntByName("emp_id")
			position, positionerr := sut.StringByName("position")
			salary, salaryerr := sut.FloatByName("salary")

			// ASSERT
			assertErrorIsNil(t, iderr)
			assertErrorIsNil(t, positionerr)
			assertErrorIsNil(t, salaryerr)

			wanted := true
			got := id == 1 && position == "developer" && salary == 2000
			if wanted != got {
				t.Errorf("\nwanted %#v\ngot    id=%v position=%v salary=%v", wanted, id, position, salary)
			}
		})

		t.Run("integer as float", func(t *testing.T) {
			// ACT
			id, err := sut.Float(1)

			// ASSERT
			assertErrorIsNil(t, err)

			wanted := float64(1)
			got := id
			if wanted != got {
				t.Errorf("\nwanted %#v\ngot    %#v", wanted, got)
			}
		})

		t.Run("integer as string", func(t *testing.T) {
			// ACT
			id, err := sut.String(1)

			// ASSERT
			assertErrorIsNil(t, err)

			wanted := "1"
			got := id
			if wanted != got {
				t.Errorf("\nwanted %#v\ngot    %#v", wanted, got)
			}
		})

		t.Run("position out of range", func(t *testing.T) {
			// ACT
			_, err := sut.Int(5)

			// ASSERT
			assertExpectedError(t, CursorError{}, err)
		})

		t.Run("unknown column name", func(t *testing.T) {
			// ACT
			_, err := sut.StringByName("department")

			// ASSERT
			assertExpectedError(t, CursorError{}, err)
		})
	})

	t.Run("after the last row", func(t *testing.T) {
		// ARRANGE
		for sut.Next() {
		}
		if err := sut.Err(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// ACT
		_, err := sut.String(2)

		// ASSERT
		assertExpectedError(t, CursorError{}, err)
		assertExpectedError(t, ErrNoCurrentRow, err)
	})

	t.Run("after close", func(t *testing.T) {
		// ARRANGE
		if err := sut.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// ACT
		_, err := sut.Int(1)

		// ASSERT
		assertExpectedError(t, CursorError{}, err)
		assertExpectedError(t, ErrCursorClosed, err)

		t.Run("Next returns false", func(t *testing.T) {
			wanted := false
			got := sut.Next()
			if wanted != got {
				t.Errorf("\nwanted %#v\ngot    %#v", wanted, got)
			}
		})

		t.Run("Close is idempotent", func(t *testing.T) {
			// ACT
			err := sut.Close()

			// ASSERT
			assertErrorIsNil(t, err)
		})
	})
}

func TestCursor_numericText(t *testing.T) {
	// ARRANGE
	// drivers commonly deliver numeric columns as text
	sut := arrangeCursorTest(t, employeeRows().AddRow([]byte("1"), "john", "developer", []byte("2000.5")))
	defer sut.Close()

	if !sut.Next() {
		t.Fatalf("unexpected error: %v", sut.Err())
	}

	// ACT
	id, iderr := sut.Int(1)
	salary, salaryerr := sut.Float(4)

	// ASSERT
	assertErrorIsNil(t, iderr)
	assertErrorIsNil(t, salaryerr)

	t.Run("parses values", func(t *testing.T) {
		wanted := true
		got := id == 1 && salary == 2000.5
		if wanted != got {
			t.Errorf("\nwanted %#v\ngot    id=%v salary=%v", wanted, id, salary)
		}
	})

	t.Run("rejects non-numeric text", func(t *testing.T) {
		// ACT
		_, err := sut.IntByName("name")

		// ASSERT
		assertExpectedError(t, CursorError{}, err)
	})
}

func Test_kindOf_String(t *testing.T) {
	// ARRANGE
	testcases := []struct {
		kind Kind
		s    string
	}{
		{kind: KindString, s: "string"},
		{kind: KindInteger, s: "integer"},
		{kind: KindFloat, s: "float"},
	}
	for _, tc := range testcases {
		t.Run(tc.s, func(t *testing.T) {
			// ACT
			result := tc.kind.String()

			// ASSERT
			wanted := tc.s
			got := result
			if wanted != got {
				t.Errorf("\nwanted %#v\ngot    %#v", wanted, got)
			}
		})
	}
}
