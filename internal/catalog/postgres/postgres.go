// Package postgres is the PostgreSQL catalog dialect, driven through the
// pgx database/sql driver. Importing it registers the dialect.
package postgres

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/errs"
)

const (
	defaultPort     = 5432
	applicationName = "erdview"
)

func init() {
	catalog.Register(Dialect{})
}

// Dialect implements catalog.Dialect for PostgreSQL.
type Dialect struct{}

var _ catalog.Dialect = Dialect{}

func (Dialect) Name() catalog.Driver { return catalog.DriverPostgres }
func (Dialect) DriverName() string   { return "pgx" }

// DSN builds a postgres:// URL. An unset TLS mode resolves to sslmode=require
// for any non-loopback host.
func (Dialect) DSN(d catalog.Descriptor, cfg catalog.Config) (string, error) {
	port := d.Port
	if port == 0 {
		port = defaultPort
	}

	q := url.Values{}
	q.Set("sslmode", sslMode(d.ResolveTLS()))
	q.Set("application_name", applicationName)
	if cfg.ConnectTimeout > 0 {
		secs := int(cfg.ConnectTimeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(port)),
		Path:     "/" + d.Database,
		RawQuery: q.Encode(),
	}
	if d.Username != "" {
		u.User = url.UserPassword(d.Username, d.Password)
	}
	return u.String(), nil
}

func sslMode(tls string) string {
	switch tls {
	case catalog.TLSDisable:
		return "disable"
	case catalog.TLSRequire:
		return "require"
	case catalog.TLSVerifyFull:
		return "verify-full"
	default:
		return "prefer"
	}
}

func (Dialect) VersionQuery() string { return "SELECT version()" }

// ParseVersion extracts "16.2" from "PostgreSQL 16.2 on x86_64-pc-linux-gnu, ...".
func (Dialect) ParseVersion(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return raw
	}
	return strings.TrimSuffix(fields[1], ",")
}

func (Dialect) SchemasQuery() string     { return schemasQuery }
func (Dialect) TablesQuery() string      { return tablesQuery }
func (Dialect) ColumnsQuery() string     { return columnsQuery }
func (Dialect) ForeignKeysQuery() string { return foreignKeysQuery }

func (Dialect) MapError(err error, msg string) *errs.Error {
	return mapError(err, msg)
}
