package schema

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/errs"
)

// fakeCatalog serves canned catalog rows keyed by schema and "schema.table".
type fakeCatalog struct {
	connected  bool
	connectErr error
	schemasErr error

	schemas []catalog.SchemaInfo
	tables  map[string][]catalog.TableSummary
	columns map[string][]catalog.ColumnRow
	fks     map[string][]catalog.ForeignKeyRow

	tablesErr  map[string]error
	columnsErr map[string]error
	fksErr     map[string]error

	delay    func(key string) time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu       sync.Mutex
	connects []catalog.Descriptor
}

func (f *fakeCatalog) Connect(_ context.Context, d catalog.Descriptor) (*catalog.ConnectResult, error) {
	f.mu.Lock()
	f.connects = append(f.connects, d)
	f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	f.connected = true
	return &catalog.ConnectResult{SessionID: "s1"}, nil
}

func (f *fakeCatalog) Connected() bool { return f.connected }

func (f *fakeCatalog) ListSchemas(context.Context) ([]catalog.SchemaInfo, error) {
	if f.schemasErr != nil {
		return nil, f.schemasErr
	}
	return f.schemas, nil
}

func (f *fakeCatalog) ListTables(_ context.Context, schema string) ([]catalog.TableSummary, error) {
	if err := f.tablesErr[schema]; err != nil {
		return nil, err
	}
	return f.tables[schema], nil
}

func (f *fakeCatalog) GetColumns(ctx context.Context, schema, table string) ([]catalog.ColumnRow, error) {
	key := schema + "." + table
	if err := f.wait(ctx, key); err != nil {
		return nil, err
	}
	if err := f.columnsErr[key]; err != nil {
		return nil, err
	}
	return f.columns[key], nil
}

func (f *fakeCatalog) GetForeignKeys(ctx context.Context, schema, table string) ([]catalog.ForeignKeyRow, error) {
	key := schema + "." + table
	if err := f.wait(ctx, key); err != nil {
		return nil, err
	}
	if err := f.fksErr[key]; err != nil {
		return nil, err
	}
	return f.fks[key], nil
}

func (f *fakeCatalog) wait(ctx context.Context, key string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.delay == nil {
		return nil
	}
	select {
	case <-time.After(f.delay(key)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func col(name, typ string, pk, fk bool) catalog.ColumnRow {
	return catalog.ColumnRow{Name: name, DataType: typ, IsPrimaryKey: pk, IsForeignKey: fk}
}

// shopCatalog is the customers/orders fixture.
func shopCatalog() *fakeCatalog {
	return &fakeCatalog{
		connected: true,
		schemas:   []catalog.SchemaInfo{{Name: "public", TableCount: 2}},
		tables: map[string][]catalog.TableSummary{
			"public": {{Name: "customers", ColumnCount: 2}, {Name: "orders", ColumnCount: 2}},
		},
		columns: map[string][]catalog.ColumnRow{
			"public.customers": {col("id", "integer", true, false), col("name", "text", false, false)},
			"public.orders":    {col("id", "integer", true, false), col("customer_id", "integer", false, true)},
		},
		fks: map[string][]catalog.ForeignKeyRow{
			"public.orders": {{
				ConstraintName: "orders_customer_id_fkey",
				Schema:         "public", Table: "orders", Column: "customer_id",
				ForeignSchema: "public", ForeignTable: "customers", ForeignColumn: "id",
			}},
		},
	}
}

func TestAssemble_CustomersOrders(t *testing.T) {
	model, report, err := NewAssembler(2, nil).Assemble(context.Background(), shopCatalog(), nil)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	require.Len(t, model.Tables, 2)
	assert.Equal(t, "public.customers", model.Tables[0].ID())
	assert.Equal(t, "public.orders", model.Tables[1].ID())

	orders, ok := model.Table("public.orders")
	require.True(t, ok)
	require.Len(t, orders.Columns, 2)

	ref := orders.Columns[1].References
	require.NotNil(t, ref)
	assert.Equal(t, Reference{Schema: "public", Table: "customers", Column: "id", Constraint: "orders_customer_id_fkey"}, *ref)
	assert.True(t, orders.Columns[1].IsForeignKey)
	assert.Nil(t, orders.Columns[0].References)
	assert.Equal(t, 1, model.ReferenceCount())
}

func TestAssemble_ConnectsWithDescriptor(t *testing.T) {
	cat := shopCatalog()
	cat.connected = false
	desc := &catalog.Descriptor{Host: "localhost", Database: "shop"}

	_, _, err := NewAssembler(0, nil).Assemble(context.Background(), cat, desc)
	require.NoError(t, err)
	require.Len(t, cat.connects, 1)
	assert.Equal(t, "shop", cat.connects[0].Database)
}

func TestAssemble_FailsPass(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeCatalog)
		desc  *catalog.Descriptor
		check func(error) bool
	}{
		{
			name:  "not connected",
			setup: func(f *fakeCatalog) { f.connected = false },
			check: errs.IsNotConnected,
		},
		{
			name:  "connect failure",
			setup: func(f *fakeCatalog) { f.connectErr = errs.New(errs.ErrKindConnectionFailed, "refused") },
			desc:  &catalog.Descriptor{Host: "db", Database: "shop"},
			check: errs.IsConnectionFailed,
		},
		{
			name:  "list schemas failure",
			setup: func(f *fakeCatalog) { f.schemasErr = errs.New(errs.ErrKindQueryFailed, "permission denied for schema") },
			check: errs.IsQueryFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := shopCatalog()
			tt.setup(cat)

			model, report, err := NewAssembler(0, nil).Assemble(context.Background(), cat, tt.desc)
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Nil(t, model)
			assert.Nil(t, report)
		})
	}
}

func TestAssemble_SkipsFailingSchema(t *testing.T) {
	cat := shopCatalog()
	cat.schemas = []catalog.SchemaInfo{{Name: "public"}, {Name: "reporting"}}
	cat.tablesErr = map[string]error{"reporting": errs.New(errs.ErrKindQueryFailed, "permission denied for schema reporting")}

	model, report, err := NewAssembler(0, nil).Assemble(context.Background(), cat, nil)
	require.NoError(t, err)

	assert.Len(t, model.Tables, 2)
	for _, tbl := range model.Tables {
		assert.Equal(t, "public", tbl.Schema)
	}
	require.Len(t, report.SkippedSchemas, 1)
	assert.Equal(t, "reporting", report.SkippedSchemas[0].Schema)
	assert.Contains(t, report.SkippedSchemas[0].Reason, "permission denied")
	assert.False(t, report.Clean())
}

func TestAssemble_ColumnFailureSkipsTable(t *testing.T) {
	cat := shopCatalog()
	cat.columnsErr = map[string]error{"public.customers": errors.New("relation dropped")}

	model, report, err := NewAssembler(0, nil).Assemble(context.Background(), cat, nil)
	require.NoError(t, err)

	require.Len(t, model.Tables, 1)
	assert.Equal(t, "orders", model.Tables[0].Name)
	require.Len(t, report.SkippedTables, 1)
	assert.Equal(t, Skip{Schema: "public", Table: "customers", Reason: "relation dropped"}, report.SkippedTables[0])
}

func TestAssemble_ForeignKeyFailureDegradesTable(t *testing.T) {
	cat := shopCatalog()
	cat.fksErr = map[string]error{"public.orders": errors.New("timeout")}

	model, report, err := NewAssembler(0, nil).Assemble(context.Background(), cat, nil)
	require.NoError(t, err)

	orders, ok := model.Table("public.orders")
	require.True(t, ok)
	require.Len(t, orders.Columns, 2)
	assert.Nil(t, orders.Columns[1].References)
	assert.Equal(t, 0, model.ReferenceCount())

	require.Len(t, report.DegradedTables, 1)
	assert.Equal(t, "orders", report.DegradedTables[0].Table)
}

func TestAssemble_UnmatchedForeignKeyIsReported(t *testing.T) {
	cat := shopCatalog()
	cat.fks["public.orders"] = append(cat.fks["public.orders"], catalog.ForeignKeyRow{
		ConstraintName: "orders_ghost_fkey",
		Schema:         "public", Table: "orders", Column: "ghost_id",
		ForeignSchema: "public", ForeignTable: "ghosts", ForeignColumn: "id",
	})

	model, report, err := NewAssembler(0, nil).Assemble(context.Background(), cat, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, model.ReferenceCount())
	require.Len(t, report.UnmatchedForeignKeys, 1)
	assert.Equal(t, UnmatchedForeignKey{
		Schema:     "public",
		Table:      "orders",
		Column:     "ghost_id",
		Constraint: "orders_ghost_fkey",
		Target:     "public.ghosts",
	}, report.UnmatchedForeignKeys[0])
}

func TestAssemble_CompositeForeignKey(t *testing.T) {
	cat := &fakeCatalog{
		connected: true,
		schemas:   []catalog.SchemaInfo{{Name: "inv"}},
		tables:    map[string][]catalog.TableSummary{"inv": {{Name: "bins"}, {Name: "stock"}}},
		columns: map[string][]catalog.ColumnRow{
			"inv.bins":  {col("warehouse", "text", true, false), col("bin", "text", true, false)},
			"inv.stock": {col("id", "int", true, false), col("warehouse", "text", false, true), col("bin", "text", false, true)},
		},
		fks: map[string][]catalog.ForeignKeyRow{
			"inv.stock": {
				{ConstraintName: "stock_bin_fkey", Schema: "inv", Table: "stock", Column: "warehouse", ForeignSchema: "inv", ForeignTable: "bins", ForeignColumn: "warehouse"},
				{ConstraintName: "stock_bin_fkey", Schema: "inv", Table: "stock", Column: "bin", ForeignSchema: "inv", ForeignTable: "bins", ForeignColumn: "bin"},
			},
		},
	}

	model, _, err := NewAssembler(0, nil).Assemble(context.Background(), cat, nil)
	require.NoError(t, err)

	stock, ok := model.Table("inv.stock")
	require.True(t, ok)
	assert.Equal(t, "warehouse", stock.Columns[1].References.Column)
	assert.Equal(t, "bin", stock.Columns[2].References.Column)
}

func TestAssemble_PreservesCatalogOrderUnderConcurrency(t *testing.T) {
	const n = 24
	cat := &fakeCatalog{
		connected: true,
		schemas:   []catalog.SchemaInfo{{Name: "a"}, {Name: "b"}},
		tables:    map[string][]catalog.TableSummary{},
		columns:   map[string][]catalog.ColumnRow{},
		// Later tables answer first.
		delay: func(key string) time.Duration {
			var i int
			_, _ = fmt.Sscanf(key[len(key)-2:], "%02d", &i)
			return time.Duration(n-i) * time.Millisecond
		},
	}
	var want []string
	for _, s := range []string{"a", "b"} {
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("t%02d", i)
			cat.tables[s] = append(cat.tables[s], catalog.TableSummary{Name: name})
			cat.columns[s+"."+name] = []catalog.ColumnRow{col("id", "int", true, false)}
			want = append(want, s+"."+name)
		}
	}

	model, report, err := NewAssembler(4, nil).Assemble(context.Background(), cat, nil)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	got := make([]string, len(model.Tables))
	for i, tbl := range model.Tables {
		got[i] = tbl.ID()
	}
	assert.Equal(t, want, got)
	// Four tables at a time, each with its column and foreign-key call in flight.
	assert.LessOrEqual(t, cat.maxSeen.Load(), int32(8))
	assert.Greater(t, cat.maxSeen.Load(), int32(1))
}

func TestAssemble_Cancelled(t *testing.T) {
	cat := shopCatalog()
	cat.delay = func(string) time.Duration { return time.Second }

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	model, _, err := NewAssembler(0, nil).Assemble(ctx, cat, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, model)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAssemble_EmptyDatabase(t *testing.T) {
	cat := &fakeCatalog{connected: true}

	model, report, err := NewAssembler(0, nil).Assemble(context.Background(), cat, nil)
	require.NoError(t, err)
	assert.NotNil(t, model.Tables)
	assert.Empty(t, model.Tables)
	assert.True(t, report.Clean())
}
