package diagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/filestore"
	"github.com/koustreak/erdview/internal/graph"
	"github.com/koustreak/erdview/internal/layout"
	"github.com/koustreak/erdview/internal/schema"
)

// shopCatalog serves a public schema with customers and orders.
type shopCatalog struct {
	connected  bool
	schemasErr error
}

func (c *shopCatalog) Connect(context.Context, catalog.Descriptor) (*catalog.ConnectResult, error) {
	c.connected = true
	return &catalog.ConnectResult{SessionID: "s1"}, nil
}

func (c *shopCatalog) Connected() bool { return c.connected }

func (c *shopCatalog) ListSchemas(context.Context) ([]catalog.SchemaInfo, error) {
	if c.schemasErr != nil {
		return nil, c.schemasErr
	}
	return []catalog.SchemaInfo{{Name: "public", TableCount: 2}}, nil
}

func (c *shopCatalog) ListTables(context.Context, string) ([]catalog.TableSummary, error) {
	return []catalog.TableSummary{{Name: "customers", ColumnCount: 2}, {Name: "orders", ColumnCount: 2}}, nil
}

func (c *shopCatalog) GetColumns(_ context.Context, _, table string) ([]catalog.ColumnRow, error) {
	if table == "customers" {
		return []catalog.ColumnRow{
			{Name: "id", DataType: "integer", IsPrimaryKey: true},
			{Name: "name", DataType: "character varying"},
		}, nil
	}
	return []catalog.ColumnRow{
		{Name: "id", DataType: "integer", IsPrimaryKey: true},
		{Name: "customer_id", DataType: "integer", IsNullable: true, IsForeignKey: true},
	}, nil
}

func (c *shopCatalog) GetForeignKeys(_ context.Context, _, table string) ([]catalog.ForeignKeyRow, error) {
	if table != "orders" {
		return nil, nil
	}
	return []catalog.ForeignKeyRow{{
		ConstraintName: "orders_customer_id_fkey",
		Schema:         "public", Table: "orders", Column: "customer_id",
		ForeignSchema: "public", ForeignTable: "customers", ForeignColumn: "id",
	}}, nil
}

func newService(t *testing.T, cat schema.Catalog) *Service {
	t.Helper()
	eng, err := layout.New(layout.DefaultOptions())
	require.NoError(t, err)
	s := NewService(cat, schema.NewAssembler(2, nil), eng, nil)
	s.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }
	return s
}

func visualize(t *testing.T) *Diagram {
	t.Helper()
	d, err := newService(t, &shopCatalog{}).Visualize(context.Background(), &catalog.Descriptor{Host: "localhost", Database: "shop"})
	require.NoError(t, err)
	return d
}

func TestVisualize_CustomersOrders(t *testing.T) {
	d := visualize(t)

	require.Len(t, d.Graph.Nodes, 2)
	require.Len(t, d.Graph.Edges, 1)
	assert.True(t, d.Report.Clean())
	assert.Equal(t, time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC), d.GeneratedAt)

	orders, _ := d.Graph.Node("public.orders")
	customers, _ := d.Graph.Node("public.customers")
	assert.Less(t, orders.Position.Y, customers.Position.Y)

	e := d.Graph.Edges[0]
	assert.Equal(t, "public.orders-customer_id-public.customers", e.ID)
	assert.Equal(t, "customer_id → id", e.Label)
	assert.Equal(t, graph.SideBottom, e.SourceSide)
	assert.Equal(t, graph.SideTop, e.TargetSide)
}

func TestVisualize_RequiresSession(t *testing.T) {
	s := newService(t, &shopCatalog{})

	_, err := s.Visualize(context.Background(), nil)
	assert.True(t, errs.IsNotConnected(err))

	_, ok := s.Last()
	assert.False(t, ok)
}

func TestVisualize_SchemaListingFailureAborts(t *testing.T) {
	boom := errs.New(errs.ErrKindQueryFailed, "boom")
	s := newService(t, &shopCatalog{connected: true, schemasErr: boom})

	_, err := s.Visualize(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestService_Search(t *testing.T) {
	s := newService(t, &shopCatalog{})

	_, err := s.Search("orders")
	assert.True(t, errs.IsNotFound(err))

	_, err = s.Visualize(context.Background(), &catalog.Descriptor{Host: "localhost"})
	require.NoError(t, err)

	nodes, err := s.Search("ORD")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "public.orders", nodes[0].ID)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "JSON", want: FormatJSON},
		{in: "yml", want: FormatYAML},
		{in: "mermaid", want: FormatMermaid},
		{in: "mmd", want: FormatMermaid},
		{in: "svg", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errs.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, visualize(t), FormatJSON))

	var out struct {
		Graph struct {
			Nodes []struct {
				ID   string `json:"id"`
				Data struct {
					Name string `json:"name"`
				} `json:"data"`
			} `json:"nodes"`
			Edges []struct {
				SourceHandle string `json:"sourceHandle"`
			} `json:"edges"`
		} `json:"graph"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Graph.Nodes, 2)
	assert.Equal(t, "customers", out.Graph.Nodes[0].Data.Name)
	assert.Equal(t, "bottom", out.Graph.Edges[0].SourceHandle)
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, visualize(t), FormatYAML))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	g, ok := out["graph"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, g["nodes"], 2)
	assert.Contains(t, buf.String(), "sourceSide: bottom")
}

func TestEncodeMermaid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, visualize(t), FormatMermaid))

	want := `erDiagram
    public_customers |o--o{ public_orders : "customer_id"

    public_customers {
        int id PK
        varchar name
    }
    public_orders {
        int id PK
        int customer_id FK
    }
`
	assert.Equal(t, want, buf.String())
}

func TestEncodeMermaid_DistinctEntityNames(t *testing.T) {
	g := &graph.Graph{
		Nodes: []graph.Node{
			{ID: "a.b_c", Table: schema.Table{Schema: "a", Name: "b_c"}},
			{ID: "a_b.c", Table: schema.Table{Schema: "a_b", Name: "c"}},
			{ID: "a_b_c_2", Table: schema.Table{Schema: "a_b_c_2"}},
		},
		Edges: []graph.Edge{{ID: "e", Source: "a_b.c", Target: "a.b_c", Column: "ref"}},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeMermaid(&buf, g))

	want := `erDiagram
    a_b_c ||--o{ a_b_c_2 : "ref"

    a_b_c {
    }
    a_b_c_2 {
    }
    a_b_c_2_2 {
    }
`
	assert.Equal(t, want, buf.String())
}

func TestMermaidType(t *testing.T) {
	tests := map[string]string{
		"integer":                     "int",
		"character varying":           "varchar",
		"timestamp without time zone": "timestamp",
		"timestamp with time zone":    "timestamptz",
		"double precision":            "double",
		"numeric(10,2)":               "numeric",
		"USER-DEFINED":                "USER-DEFINED",
		"bit varying":                 "bit_varying",
		"":                            "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, mermaidType(in), in)
	}
}

// memStore records uploads.
type memStore struct {
	puts   map[string][]byte
	types  map[string]string
	putErr error
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

func (m *memStore) Put(_ context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*filestore.ObjectInfo, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if m.puts == nil {
		m.puts, m.types = map[string][]byte{}, map[string]string{}
	}
	m.puts[bucket+"/"+key] = b
	m.types[bucket+"/"+key] = contentType
	return &filestore.ObjectInfo{Bucket: bucket, Key: key, Size: size, ContentType: contentType}, nil
}

func TestExport(t *testing.T) {
	d := visualize(t)
	store := &memStore{}

	info, err := Export(context.Background(), store, "erd", "shop.mmd", d, FormatMermaid)
	require.NoError(t, err)
	assert.Equal(t, "shop.mmd", info.Key)
	assert.Equal(t, int64(len(store.puts["erd/shop.mmd"])), info.Size)
	assert.True(t, strings.HasPrefix(string(store.puts["erd/shop.mmd"]), "erDiagram\n"))
	assert.Equal(t, "text/vnd.mermaid", store.types["erd/shop.mmd"])
}

func TestExport_DefaultKey(t *testing.T) {
	store := &memStore{}

	info, err := Export(context.Background(), store, "erd", "", visualize(t), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "erd-20261017T093000Z.yaml", info.Key)
}

func TestExport_Errors(t *testing.T) {
	_, err := Export(context.Background(), &memStore{}, "erd", "k", nil, FormatJSON)
	assert.True(t, errs.IsInvalidInput(err))

	denied := errs.New(errs.ErrKindPermissionDenied, "access denied")
	_, err = Export(context.Background(), &memStore{putErr: denied}, "erd", "k", visualize(t), FormatJSON)
	assert.True(t, errors.Is(err, denied))
}
