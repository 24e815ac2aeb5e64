package catalog

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/koustreak/erdview/internal/errs"
)

// TLS modes accepted on a Descriptor. Dialects translate them to their own
// driver options.
const (
	TLSDisable    = "disable"
	TLSPrefer     = "prefer"
	TLSRequire    = "require"
	TLSVerifyFull = "verify-full"
)

// descriptorNamespace seeds the name-based UUIDs returned by Descriptor.ID.
var descriptorNamespace = uuid.MustParse("6f1c2b9e-3d4a-5e8f-9a0b-1c2d3e4f5a6b")

// Descriptor identifies a database to connect to. It is treated as an
// immutable value once handed to Client.Connect.
type Descriptor struct {
	Name     string `json:"name,omitempty" koanf:"name"`
	Host     string `json:"host" koanf:"host"`
	Port     int    `json:"port" koanf:"port"`
	Username string `json:"username" koanf:"username"`
	Password string `json:"password,omitempty" koanf:"password"`
	Database string `json:"database" koanf:"database"`
	TLSMode  string `json:"tlsMode,omitempty" koanf:"tls_mode"`
}

// Validate checks the fields every dialect needs.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Host) == "" {
		return errs.New(errs.ErrKindInvalidInput, "host is required")
	}
	if strings.TrimSpace(d.Database) == "" {
		return errs.New(errs.ErrKindInvalidInput, "database is required")
	}
	if d.Port < 0 || d.Port > 65535 {
		return errs.Newf(errs.ErrKindInvalidInput, "port %d out of range", d.Port)
	}
	switch d.TLSMode {
	case "", TLSDisable, TLSPrefer, TLSRequire, TLSVerifyFull:
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown tls mode %q", d.TLSMode)
	}
	return nil
}

// ID returns a stable identifier derived from the descriptor's fields, so the
// same target always maps to the same ID regardless of how it was entered.
func (d Descriptor) ID() string {
	fields := []string{
		"database:" + d.Database,
		"host:" + strings.ToLower(d.Host),
		"name:" + d.Name,
		"password:" + d.Password,
		"port:" + strconv.Itoa(d.Port),
		"username:" + d.Username,
	}
	sort.Strings(fields)
	return uuid.NewSHA1(descriptorNamespace, []byte(strings.Join(fields, "|"))).String()
}

// DisplayName returns Name if set, otherwise a label built from host and database.
func (d Descriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	db := d.Database
	if db != "" {
		db = strings.ToUpper(db[:1]) + db[1:]
	}
	if IsLoopback(d.Host) {
		return "Local " + db
	}
	host := d.Host
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return fmt.Sprintf("%s (%s)", db, host)
}

// Redacted renders the descriptor for logs, without the password.
func (d Descriptor) Redacted() string {
	return fmt.Sprintf("%s@%s/%s", d.Username, net.JoinHostPort(d.Host, strconv.Itoa(d.Port)), d.Database)
}

// ResolveTLS returns the effective TLS mode: the explicit one if set, else
// prefer for loopback hosts and require for everything else.
func (d Descriptor) ResolveTLS() string {
	if d.TLSMode != "" {
		return d.TLSMode
	}
	if IsLoopback(d.Host) {
		return TLSPrefer
	}
	return TLSRequire
}

// IsLoopback reports whether host names the local machine.
func IsLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}
