// Package mysql provides a dbtx.Connector for MySQL databases.
//
// Importing the package registers the go-sql-driver/mysql driver.
package mysql

import (
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
)

const DriverName = "mysql"

// Connector identifies a MySQL database.  The zero value of Host and Port
// default to localhost:3306.
type Connector struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Params   map[string]string
}

// Driver implements the dbtx.Connector interface.
func (c Connector) Driver() string { return DriverName }

// ConnectionString implements the dbtx.Connector interface, returning a
// DSN in the driver's format.
func (c Connector) ConnectionString() string {
	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = c.addr()
	cfg.DBName = c.Database
	cfg.User = c.User
	cfg.Passwd = c.Password
	if len(c.Params) > 0 {
		cfg.Params = c.Params
	}
	return cfg.FormatDSN()
}

// String implements the fmt.Stringer interface, identifying the target
// without credentials.
func (c Connector) String() string {
	return fmt.Sprintf("mysql: %s/%s", c.addr(), c.Database)
}

func (c Connector) addr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%d", host, port)
}
