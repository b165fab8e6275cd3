package dbtx

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Kind identifies the declared value kind of a result column.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Column describes a column of a result set.
type Column struct {
	Name string
	Kind Kind
}

// Cursor is a lazy, forward-only iterator over the rows of a query result.
//
// A cursor is not restartable.  Column values of the current row are read
// by name or by 1-based position; reading before the first call to Next,
// after Next has returned false, or after Close returns a CursorError.
type Cursor struct {
	rows    *sql.Rows
	columns []Column
	index   map[string]int
	values  []any
	scanerr error
	onrow   bool
	closed  bool
}

func newCursor(rows *sql.Rows) (*Cursor, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, err
	}

	columns := make([]Column, len(types))
	index := make(map[string]int, len(types))
	for i, ct := range types {
		columns[i] = Column{Name: ct.Name(), Kind: kindOf(ct)}
		index[ct.Name()] = i
	}

	return &Cursor{
		rows:    rows,
		columns: columns,
		index:   index,
	}, nil
}

// kindOf derives the declared kind of a column from whatever type
// information the driver provides, defaulting to string.
func kindOf(ct *sql.ColumnType) Kind {
	switch strings.ToUpper(ct.DatabaseTypeName()) {
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "MEDIUMINT", "TINYINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL":
		return KindInteger
	case "FLOAT", "DOUBLE", "REAL", "DECIMAL", "NUMERIC", "FLOAT4", "FLOAT8":
		return KindFloat
	}

	if st := ct.ScanType(); st != nil {
		switch st.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return KindInteger
		case reflect.Float32, reflect.Float64:
			return KindFloat
		}
	}

	return KindString
}

// Columns returns the name and declared kind of each column in the
// result set.
func (c *Cursor) Columns() []Column {
	return slices.Clone(c.columns)
}

// Next advances the cursor to the next row, returning false when there are
// no more rows or the cursor is closed.  After Next returns false, Err
// reports any error encountered while iterating.
func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}

	c.onrow = false
	c.values = nil

	if !c.rows.Next() {
		return false
	}

	dest := make([]any, len(c.columns))
	for i := range dest {
		dest[i] = new(any)
	}
	if err := c.rows.Scan(dest...); err != nil {
		c.scanerr = err
		return false
	}

	c.values = make([]any, len(dest))
	for i, d := range dest {
		c.values[i] = *(d.(*any))
	}
	c.onrow = true

	return true
}

// Err returns any error encountered while advancing the cursor.
func (c *Cursor) Err() error {
	if c.scanerr != nil {
		return c.scanerr
	}
	return c.rows.Err()
}

// Close releases the underlying rows.  Closing an already-closed cursor
// is a no-op.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.onrow = false
	c.values = nil
	return c.rows.Close()
}

// value returns the raw value of the column at the given 1-based position
// of the current row.
func (c *Cursor) value(pos int) (any, error) {
	if c.closed {
		return nil, CursorError{"column", ErrCursorClosed}
	}
	if !c.onrow {
		return nil, CursorError{"column", ErrNoCurrentRow}
	}
	if pos < 1 || pos > len(c.values) {
		return nil, CursorError{"column", fmt.Errorf("position %d is out of range: row has %d column(s)", pos, len(c.values))}
	}
	return c.values[pos-1], nil
}

// position returns the 1-based position of the named column.
func (c *Cursor) position(name string) (int, error) {
	if i, ok := c.index[name]; ok {
		return i + 1, nil
	}
	return 0, CursorError{"column", fmt.Errorf("no column named %q", name)}
}

// Int returns the value of the column at the given 1-based position of the
// current row as an integer.
func (c *Cursor) Int(pos int) (int64, error) {
	v, err := c.value(pos)
	if err != nil {
		return 0, err
	}

	switch v := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case []byte:
		return parseInt(pos, string(v))
	case string:
		return parseInt(pos, v)
	}
	return 0, CursorError{"int", fmt.Errorf("column %d is not an integer", pos)}
}

// Float returns the value of the column at the given 1-based position of
// the current row as a float.
func (c *Cursor) Float(pos int) (float64, error) {
	v, err := c.value(pos)
	if err != nil {
		return 0, err
	}

	switch v := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case []byte:
		return parseFloat(pos, string(v))
	case string:
		return parseFloat(pos, v)
	}
	return 0, CursorError{"float", fmt.Errorf("column %d is not a float", pos)}
}

// String returns the value of the column at the given 1-based position of
// the current row as a string.
func (c *Cursor) String(pos int) (string, error) {
	v, err := c.value(pos)
	if err != nil {
		return "", err
	}

	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return fmt.Sprintf("%v", v), nil
}

// IntByName returns the value of the named column of the current row as
// an integer.
func (c *Cursor) IntByName(name string) (int64, error) {
	pos, err := c.position(name)
	if err != nil {
		return 0, err
	}
	return c.Int(pos)
}

// FloatByName returns the value of the named column of the current row as
// a float.
func (c *Cursor) FloatByName(name string) (float64, error) {
	pos, err := c.position(name)
	if err != nil {
		return 0, err
	}
	return c.Float(pos)
}

// StringByName returns the value of the named column of the current row as
// a string.
func (c *Cursor) StringByName(name string) (string, error) {
	pos, err := c.position(name)
	if err != nil {
		return "", err
	}
	return c.String(pos)
}

func parseInt(pos int, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, CursorError{"int", fmt.Errorf("column %d is not an integer: %w", pos, err)}
	}
	return n, nil
}

func parseFloat(pos int, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, CursorError{"float", fmt.Errorf("column %d is not a float: %w", pos, err)}
	}
	return f, nil
}
