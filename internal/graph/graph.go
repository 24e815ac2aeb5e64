// Package graph turns a schema Model into an ERD graph: one node per table,
// one edge per resolvable foreign-key column.
package graph

import (
	"sort"

	"github.com/koustreak/erdview/internal/schema"
)

// Default node box size, in layout units.
const (
	DefaultNodeWidth  = 250
	DefaultNodeHeight = 200
)

// Side is the face of a node box an edge attaches to.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Point is a position in layout space. Y grows downward.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is one table. Position is the top-left corner of its box.
type Node struct {
	ID       string       `json:"id" yaml:"id"`
	Position Point        `json:"position" yaml:"position"`
	Width    float64      `json:"width" yaml:"width"`
	Height   float64      `json:"height" yaml:"height"`
	Table    schema.Table `json:"data" yaml:"table"`
}

// Center returns the midpoint of the node box.
func (n Node) Center() Point {
	return Point{X: n.Position.X + n.Width/2, Y: n.Position.Y + n.Height/2}
}

// Edge is one foreign-key column pointing from the referencing table (Source)
// to the referenced table (Target).
type Edge struct {
	ID               string  `json:"id" yaml:"id"`
	Source           string  `json:"source" yaml:"source"`
	Target           string  `json:"target" yaml:"target"`
	SourceSide       Side    `json:"sourceHandle,omitempty" yaml:"sourceSide,omitempty"`
	TargetSide       Side    `json:"targetHandle,omitempty" yaml:"targetSide,omitempty"`
	Label            string  `json:"label" yaml:"label"`
	Column           string  `json:"column" yaml:"column"`
	ReferencedColumn string  `json:"referencedColumn" yaml:"referencedColumn"`
	Points           []Point `json:"points,omitempty" yaml:"points,omitempty"`
}

// SelfLoop reports whether the edge starts and ends on the same node.
func (e Edge) SelfLoop() bool {
	return e.Source == e.Target
}

// Graph is the ERD. Width and Height bound the laid-out drawing.
type Graph struct {
	Nodes  []Node  `json:"nodes" yaml:"nodes"`
	Edges  []Edge  `json:"edges" yaml:"edges"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Clone deep-copies the node and edge slices so layout can write positions
// without touching the input.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes:  make([]Node, len(g.Nodes)),
		Edges:  make([]Edge, len(g.Edges)),
		Width:  g.Width,
		Height: g.Height,
	}
	copy(out.Nodes, g.Nodes)
	for i, e := range g.Edges {
		e.Points = append([]Point(nil), e.Points...)
		out.Edges[i] = e
	}
	return out
}

// SortByID orders nodes and edges by ID.
func (g *Graph) SortByID() {
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	sort.Slice(g.Edges, func(i, j int) bool { return g.Edges[i].ID < g.Edges[j].ID })
}

// Resize sets every node to w x h. Non-positive values leave that dimension
// unchanged.
func (g *Graph) Resize(w, h float64) {
	for i := range g.Nodes {
		if w > 0 {
			g.Nodes[i].Width = w
		}
		if h > 0 {
			g.Nodes[i].Height = h
		}
	}
}
