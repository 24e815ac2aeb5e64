// Package mysql is the MySQL catalog dialect. MySQL has no schemas inside a
// database, so each database the user can see is reported as a schema.
// Importing it registers the dialect.
package mysql

import (
	"net"
	"strconv"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/errs"
)

const defaultPort = 3306

func init() {
	catalog.Register(Dialect{})
}

// Dialect implements catalog.Dialect for MySQL.
type Dialect struct{}

var _ catalog.Dialect = Dialect{}

func (Dialect) Name() catalog.Driver { return catalog.DriverMySQL }
func (Dialect) DriverName() string   { return "mysql" }

// DSN builds a go-sql-driver DSN. An unset TLS mode resolves to an encrypted
// connection for any non-loopback host.
func (Dialect) DSN(d catalog.Descriptor, cfg catalog.Config) (string, error) {
	port := d.Port
	if port == 0 {
		port = defaultPort
	}

	mc := gomysql.NewConfig()
	mc.User = d.Username
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(port))
	mc.DBName = d.Database
	mc.ParseTime = true
	mc.Timeout = cfg.ConnectTimeout
	mc.TLSConfig = tlsConfig(d.ResolveTLS())
	return mc.FormatDSN(), nil
}

func tlsConfig(tls string) string {
	switch tls {
	case catalog.TLSDisable:
		return "false"
	case catalog.TLSRequire:
		return "skip-verify"
	case catalog.TLSVerifyFull:
		return "true"
	default:
		return "preferred"
	}
}

func (Dialect) VersionQuery() string { return "SELECT VERSION()" }

// ParseVersion extracts "8.0.36" from "8.0.36-0ubuntu0.22.04.1".
func (Dialect) ParseVersion(raw string) string {
	if i := strings.IndexByte(raw, '-'); i > 0 {
		return raw[:i]
	}
	return raw
}

func (Dialect) SchemasQuery() string     { return schemasQuery }
func (Dialect) TablesQuery() string      { return tablesQuery }
func (Dialect) ColumnsQuery() string     { return columnsQuery }
func (Dialect) ForeignKeysQuery() string { return foreignKeysQuery }

func (Dialect) MapError(err error, msg string) *errs.Error {
	return mapError(err, msg)
}
