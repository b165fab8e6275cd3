package dbtx

import (
	"context"
)

// Tables returns the names of the tables visible to the connection, in
// lexical order.
//
// The enumeration query is chosen by the driver of the connector the
// connection was established with; connections configured with an
// injected database handle use the information_schema query.
func (c *connection) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.Query(ctx, tablesQuery(c.driver()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// tablesQuery returns the table enumeration query for a driver.
func tablesQuery(driver string) string {
	switch driver {
	case "sqlite3":
		return "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"
	case "postgres":
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name"
	default:
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = database() ORDER BY table_name"
	}
}
