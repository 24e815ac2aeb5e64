//go:build integration

package diagram

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/koustreak/erdview/internal/catalog"
	pgdialect "github.com/koustreak/erdview/internal/catalog/postgres"
	"github.com/koustreak/erdview/internal/layout"
	"github.com/koustreak/erdview/internal/schema"
)

const shopSQL = `
CREATE TABLE customers (id serial PRIMARY KEY, name text NOT NULL);
COMMENT ON TABLE customers IS 'people who buy things';
CREATE TABLE orders (
    id serial PRIMARY KEY,
    customer_id integer REFERENCES customers(id),
    placed_at timestamptz DEFAULT now()
);
CREATE SCHEMA reporting;
CREATE TABLE reporting.daily (day date PRIMARY KEY, total numeric(12,2));
CREATE TABLE employees (id serial PRIMARY KEY, manager_id integer REFERENCES employees(id));
CREATE TABLE users (id serial PRIMARY KEY);
CREATE TABLE accounts (id serial PRIMARY KEY);
CREATE TABLE carts (
    id serial PRIMARY KEY,
    user_id integer CONSTRAINT fk_owner REFERENCES users(id),
    account_id integer
);
CREATE TABLE invoices (
    id serial PRIMARY KEY,
    account_id integer CONSTRAINT fk_owner REFERENCES accounts(id)
);
`

func TestVisualize_Postgres(t *testing.T) {
	ctx := context.Background()

	script := filepath.Join(t.TempDir(), "shop.sql")
	require.NoError(t, os.WriteFile(script, []byte(shopSQL), 0o600))

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("shop"),
		postgres.WithUsername("erdview"),
		postgres.WithPassword("erdview"),
		postgres.WithInitScripts(script),
		postgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := catalog.DefaultConfig()
	cfg.HealthCheckInterval = 0
	client, err := catalog.New(cfg, catalog.WithDialect(pgdialect.Dialect{}))
	require.NoError(t, err)
	defer client.Close()

	eng, err := layout.New(layout.DefaultOptions())
	require.NoError(t, err)
	svc := NewService(client, schema.NewAssembler(4, nil), eng, nil)

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	d, err := svc.Visualize(ctx, &catalog.Descriptor{
		Host:     host,
		Port:     port.Int(),
		Username: "erdview",
		Password: "erdview",
		Database: "shop",
		TLSMode:  catalog.TLSDisable,
	})
	require.NoError(t, err)
	assert.True(t, d.Report.Clean())

	ids := map[string]bool{}
	for _, n := range d.Graph.Nodes {
		ids[n.ID] = true
	}
	assert.Equal(t, map[string]bool{
		"public.customers": true,
		"public.orders":    true,
		"public.employees": true,
		"public.users":     true,
		"public.accounts":  true,
		"public.carts":     true,
		"public.invoices":  true,
		"reporting.daily":  true,
	}, ids)

	edges := map[string]bool{}
	for _, e := range d.Graph.Edges {
		edges[e.ID] = true
	}
	assert.Equal(t, map[string]bool{
		"public.orders-customer_id-public.customers":   true,
		"public.employees-manager_id-public.employees": true,
		"public.carts-user_id-public.users":            true,
		"public.invoices-account_id-public.accounts":   true,
	}, edges)

	// fk_owner exists on both carts and invoices; neither may borrow the other's columns.
	carts, _ := d.Graph.Node("public.carts")
	for _, c := range carts.Table.Columns {
		assert.Equal(t, c.Name == "user_id", c.IsForeignKey, c.Name)
	}
	fks, err := client.GetForeignKeys(ctx, "public", "carts")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "users", fks[0].ForeignTable)

	customers, _ := d.Graph.Node("public.customers")
	require.NotNil(t, customers.Table.Description)
	assert.Equal(t, "people who buy things", *customers.Table.Description)

	orders, _ := d.Graph.Node("public.orders")
	assert.Less(t, orders.Position.Y, customers.Position.Y)

	res, err := client.RunQuery(ctx, "SELECT count(*) AS n FROM customers")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount)

	_, err = client.RunQuery(ctx, "SELECT nope FROM customers")
	require.Error(t, err)
}
