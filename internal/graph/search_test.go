package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearch(t *testing.T) {
	g := Build(shopModel())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty matches all", query: "", want: []string{"public.customers", "public.orders"}},
		{name: "case insensitive", query: "ORD", want: []string{"public.orders"}},
		{name: "matches schema in id", query: "public.", want: []string{"public.customers", "public.orders"}},
		{name: "no match", query: "invoices", want: []string{}},
		{name: "trims whitespace", query: "  cust ", want: []string{"public.customers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, n := range Search(g, tt.query) {
				got = append(got, n.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGraph_Resize(t *testing.T) {
	g := Build(shopModel())

	g.Resize(300, 0)
	for _, n := range g.Nodes {
		assert.Equal(t, 300.0, n.Width)
		assert.Equal(t, float64(DefaultNodeHeight), n.Height)
	}

	g.Resize(0, 120)
	for _, n := range g.Nodes {
		assert.Equal(t, 300.0, n.Width)
		assert.Equal(t, 120.0, n.Height)
	}
}
