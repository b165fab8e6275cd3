// Package postgres provides a dbtx.Connector for PostgreSQL databases.
//
// Importing the package registers the lib/pq driver.
package postgres

import (
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

const DriverName = "postgres"

// Connector identifies a PostgreSQL database.  The zero value of Host and
// Port default to localhost:5432; the zero value of SSLMode defaults to
// the driver default.
type Connector struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// Driver implements the dbtx.Connector interface.
func (c Connector) Driver() string { return DriverName }

// ConnectionString implements the dbtx.Connector interface, returning a
// DSN of key=value pairs in the driver's format.
func (c Connector) ConnectionString() string {
	pairs := []string{
		pair("host", c.host()),
		pair("port", fmt.Sprintf("%d", c.port())),
		pair("dbname", c.Database),
		pair("user", c.User),
		pair("password", c.Password),
	}
	if c.SSLMode != "" {
		pairs = append(pairs, pair("sslmode", c.SSLMode))
	}
	return strings.Join(pairs, " ")
}

// String implements the fmt.Stringer interface, identifying the target
// without credentials.
func (c Connector) String() string {
	return fmt.Sprintf("postgres: %s:%d/%s", c.host(), c.port(), c.Database)
}

func (c Connector) host() string {
	if c.Host == "" {
		return "localhost"
	}
	return c.Host
}

func (c Connector) port() int {
	if c.Port == 0 {
		return 5432
	}
	return c.Port
}

// pair formats a key=value connection parameter, quoting values containing
// spaces or quotes as the driver requires.
func pair(key, value string) string {
	if strings.ContainsAny(value, ` '\`) {
		value = strings.ReplaceAll(value, `\`, `\\`)
		value = strings.ReplaceAll(value, `'`, `\'`)
		value = "'" + value + "'"
	}
	if value == "" {
		value = "''"
	}
	return key + "=" + value
}
