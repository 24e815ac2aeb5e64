package graph

import (
	"github.com/koustreak/erdview/internal/schema"
)

// Build converts m into an unpositioned graph. Every table becomes a node at
// the origin with the default size. Every column whose reference resolves to
// a table in m becomes an edge; references to tables outside m are dropped.
// Build is pure: the same model always yields the same graph.
func Build(m *schema.Model) *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, len(m.Tables)),
		Edges: []Edge{},
	}

	ids := make(map[string]bool, len(m.Tables))
	for _, t := range m.Tables {
		ids[t.ID()] = true
		g.Nodes = append(g.Nodes, Node{
			ID:     t.ID(),
			Width:  DefaultNodeWidth,
			Height: DefaultNodeHeight,
			Table:  t,
		})
	}

	seen := make(map[string]bool)
	for _, t := range m.Tables {
		source := t.ID()
		for _, c := range t.Columns {
			ref := c.References
			if ref == nil {
				continue
			}
			refSchema := ref.Schema
			if refSchema == "" {
				refSchema = t.Schema
			}
			target := schema.QualifiedName(refSchema, ref.Table)
			if !ids[target] {
				continue
			}

			id := EdgeID(source, c.Name, target)
			if seen[id] {
				continue
			}
			seen[id] = true

			g.Edges = append(g.Edges, Edge{
				ID:               id,
				Source:           source,
				Target:           target,
				Label:            c.Name + " → " + ref.Column,
				Column:           c.Name,
				ReferencedColumn: ref.Column,
			})
		}
	}
	return g
}

// EdgeID is "<source>-<column>-<target>".
func EdgeID(source, column, target string) string {
	return source + "-" + column + "-" + target
}
