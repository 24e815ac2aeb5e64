package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/errs"
)

func TestDialect_Registered(t *testing.T) {
	d, err := catalog.Lookup(catalog.DriverMySQL)
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.DriverName())
}

func TestDialect_DSN(t *testing.T) {
	cfg := catalog.DefaultConfig()
	cfg.ConnectTimeout = 3 * time.Second

	tests := []struct {
		name    string
		desc    catalog.Descriptor
		wantTLS string
	}{
		{"remote host", catalog.Descriptor{Host: "db.example.com", Username: "app", Password: "pw", Database: "shop"}, "skip-verify"},
		{"loopback", catalog.Descriptor{Host: "127.0.0.1", Port: 3307, Username: "app", Database: "shop"}, "preferred"},
		{"disabled", catalog.Descriptor{Host: "db.example.com", Database: "shop", TLSMode: catalog.TLSDisable}, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := Dialect{}.DSN(tt.desc, cfg)
			require.NoError(t, err)

			parsed, err := gomysql.ParseDSN(dsn)
			require.NoError(t, err)

			assert.Equal(t, tt.desc.Username, parsed.User)
			assert.Equal(t, "shop", parsed.DBName)
			assert.Equal(t, "tcp", parsed.Net)
			assert.True(t, parsed.ParseTime)
			assert.Equal(t, 3*time.Second, parsed.Timeout)
			assert.Equal(t, tt.wantTLS, parsed.TLSConfig)
		})
	}

	dsn, err := Dialect{}.DSN(catalog.Descriptor{Host: "db", Database: "shop"}, cfg)
	require.NoError(t, err)
	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:3306", parsed.Addr)
}

func TestDialect_ParseVersion(t *testing.T) {
	assert.Equal(t, "8.0.36", Dialect{}.ParseVersion("8.0.36-0ubuntu0.22.04.1"))
	assert.Equal(t, "8.4.0", Dialect{}.ParseVersion("8.4.0"))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"access denied", &gomysql.MySQLError{Number: 1045, Message: "Access denied"}, errs.ErrKindPermissionDenied},
		{"unknown database", &gomysql.MySQLError{Number: 1049, Message: "Unknown database"}, errs.ErrKindConnectionFailed},
		{"max execution time", &gomysql.MySQLError{Number: 3024}, errs.ErrKindTimeout},
		{"syntax", &gomysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}, errs.ErrKindQueryFailed},
		{"network", errors.New("invalid connection"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapError(tt.err, "op").Kind)
		})
	}
}

func TestMapError_Diagnostics(t *testing.T) {
	err := mapError(&gomysql.MySQLError{
		Number:   1146,
		SQLState: [5]byte{'4', '2', 'S', '0', '2'},
		Message:  "Table 'shop.missing' doesn't exist",
	}, "query failed")

	require.NotNil(t, err.Diag)
	assert.Equal(t, "1146", err.Diag.Code)
	assert.Equal(t, "SQLSTATE 42S02", err.Diag.Detail)
}
