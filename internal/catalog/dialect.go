package catalog

import (
	"sort"
	"sync"

	"github.com/koustreak/erdview/internal/errs"
)

// Dialect supplies everything engine-specific: how to reach the engine and
// which catalog queries to run. Implementations live in subpackages and
// register themselves on import.
//
// Query contracts (positional arguments and result columns):
//
//	SchemasQuery:     ()              -> name, table_count
//	TablesQuery:      (schema)        -> name, column_count, description
//	ColumnsQuery:     (schema, table) -> name, data_type, is_nullable, default,
//	                                     max_length, description, is_primary_key, is_foreign_key
//	ForeignKeysQuery: (schema, table) -> constraint_name, schema, table, column,
//	                                     foreign_schema, foreign_table, foreign_column
type Dialect interface {
	// Name is the key the dialect is registered under.
	Name() Driver

	// DriverName is the database/sql driver to open.
	DriverName() string

	// DSN builds the data source name for d.
	DSN(d Descriptor, cfg Config) (string, error)

	VersionQuery() string

	// ParseVersion turns the raw version string into the bare server version.
	ParseVersion(raw string) string

	SchemasQuery() string
	TablesQuery() string
	ColumnsQuery() string
	ForeignKeysQuery() string

	// MapError converts a native driver error into a *errs.Error.
	MapError(err error, msg string) *errs.Error
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[Driver]Dialect)
)

// Register makes a dialect available by name. It panics on duplicates,
// like database/sql.Register.
func Register(d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	if _, dup := dialects[d.Name()]; dup {
		panic("catalog: Register called twice for dialect " + string(d.Name()))
	}
	dialects[d.Name()] = d
}

// Lookup returns the dialect registered under name.
func Lookup(name Driver) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown catalog driver %q (registered: %v)", name, registered())
	}
	return d, nil
}

func registered() []string {
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}
