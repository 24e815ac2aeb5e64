package schema

import (
	"context"

	"github.com/koustreak/erdview/internal/catalog"
)

// Catalog is what the assembler needs from the Catalog Client.
type Catalog interface {
	// Connect opens (or replaces) the session for d.
	Connect(ctx context.Context, d catalog.Descriptor) (*catalog.ConnectResult, error)

	// Connected reports whether a session is open.
	Connected() bool

	// ListSchemas returns the user schemas in catalog order.
	ListSchemas(ctx context.Context) ([]catalog.SchemaInfo, error)

	// ListTables returns the base tables of schema.
	ListTables(ctx context.Context, schema string) ([]catalog.TableSummary, error)

	// GetColumns returns the columns of schema.table in ordinal order.
	GetColumns(ctx context.Context, schema, table string) ([]catalog.ColumnRow, error)

	// GetForeignKeys returns one row per referencing column of schema.table.
	GetForeignKeys(ctx context.Context, schema, table string) ([]catalog.ForeignKeyRow, error)
}

var _ Catalog = (*catalog.Client)(nil)
