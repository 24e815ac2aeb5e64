// Package layout positions an ERD graph with a layered (Sugiyama-style)
// algorithm:
//
//  1. break cycles by reversing DFS back edges
//  2. assign ranks by longest path, then pull sources down next to their targets
//  3. split edges spanning several ranks with dummy vertices
//  4. reorder each rank by barycenters, keeping the ordering with fewest crossings
//  5. assign coordinates rank by rank, centring each rank
//  6. pick attachment sides from the relative position of the two node centres
//
// Tables with no relationships are packed into extra rows after the layered part.
// The result depends only on node IDs, never on input order.
package layout

import (
	"math"
	"sort"
	"strconv"

	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/graph"
)

// Engine lays out graphs. The zero value is not usable; use New.
type Engine struct {
	opts Options
}

// New returns an engine for opts.
func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts}, nil
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

// vertex is a real node or a dummy in the layered graph. u runs along a
// rank, v across ranks; the direction maps them to x and y at the end.
type vertex struct {
	key   string // sort key; the node ID for real vertices
	node  int    // index into the output nodes, -1 for dummies
	along float64
	thick float64
	rank  int
	pos   int
	u, v  float64 // centre
}

type layered struct {
	verts  []vertex
	down   [][]int // neighbours one rank further
	up     [][]int // neighbours one rank nearer
	layers [][]int
	chains map[[2]int][]int // dag edge -> dummy vertices, from first to second
}

// Layout returns a positioned copy of g. g itself is not modified.
// It fails only on malformed input: duplicate node IDs or edges that name
// unknown nodes.
func (e *Engine) Layout(g *graph.Graph) (*graph.Graph, error) {
	out := g.Clone()
	out.SortByID()

	index := make(map[string]int, len(out.Nodes))
	for i, n := range out.Nodes {
		if _, dup := index[n.ID]; dup {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "duplicate node %q", n.ID)
		}
		index[n.ID] = i
	}
	for _, ed := range out.Edges {
		if _, ok := index[ed.Source]; !ok {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "edge %q: unknown source %q", ed.ID, ed.Source)
		}
		if _, ok := index[ed.Target]; !ok {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "edge %q: unknown target %q", ed.ID, ed.Target)
		}
	}

	for i := range out.Nodes {
		n := &out.Nodes[i]
		if n.Width <= 0 {
			n.Width = e.opts.NodeWidth
		}
		if n.Height <= 0 {
			n.Height = e.opts.NodeHeight
		}
		n.Position = graph.Point{}
	}
	if len(out.Nodes) == 0 {
		out.Width, out.Height = 0, 0
		return out, nil
	}

	succ := adjacency(len(out.Nodes), out.Edges, index)
	dag := breakCycles(succ)
	ranks, isolated := assignRanks(len(out.Nodes), dag)

	lg := e.buildLayers(out.Nodes, dag, ranks, isolated)
	lg.minimizeCrossings(e.opts.Iterations)
	e.assignCoordinates(lg)

	for _, vx := range lg.verts {
		if vx.node < 0 {
			continue
		}
		n := &out.Nodes[vx.node]
		x, y := e.toXY(vx.u, vx.v)
		n.Position = graph.Point{X: x - n.Width/2, Y: y - n.Height/2}
	}
	e.routeEdges(out, lg, index)
	e.bounds(out)
	return out, nil
}

// adjacency returns sorted, de-duplicated successor lists without self-loops.
func adjacency(n int, edges []graph.Edge, index map[string]int) [][]int {
	sets := make([]map[int]bool, n)
	for _, ed := range edges {
		s, t := index[ed.Source], index[ed.Target]
		if s == t {
			continue
		}
		if sets[s] == nil {
			sets[s] = make(map[int]bool)
		}
		sets[s][t] = true
	}
	succ := make([][]int, n)
	for i, set := range sets {
		for t := range set {
			succ[i] = append(succ[i], t)
		}
		sort.Ints(succ[i])
	}
	return succ
}

// buildLayers places real vertices on their ranks, inserts dummies for long
// edges and packs isolated nodes into rows after the last rank.
func (e *Engine) buildLayers(nodes []graph.Node, dag [][2]int, ranks []int, isolated []int) *layered {
	lg := &layered{chains: make(map[[2]int][]int)}

	lone := make(map[int]bool, len(isolated))
	for _, i := range isolated {
		lone[i] = true
	}

	maxRank := -1
	for i, n := range nodes {
		along, thick := e.extent(n)
		lg.verts = append(lg.verts, vertex{key: n.ID, node: i, along: along, thick: thick, rank: ranks[i]})
		if !lone[i] && ranks[i] > maxRank {
			maxRank = ranks[i]
		}
	}

	addEdge := func(a, b int) {
		lg.down[a] = append(lg.down[a], b)
		lg.up[b] = append(lg.up[b], a)
	}
	lg.down = make([][]int, len(lg.verts))
	lg.up = make([][]int, len(lg.verts))

	for _, de := range dag {
		a, b := de[0], de[1]
		span := ranks[b] - ranks[a]
		prev := a
		var chain []int
		for k := 1; k < span; k++ {
			d := len(lg.verts)
			lg.verts = append(lg.verts, vertex{
				key:  nodes[a].ID + "\x00" + nodes[b].ID + "\x00" + strconv.Itoa(k),
				node: -1,
				rank: ranks[a] + k,
			})
			lg.down = append(lg.down, nil)
			lg.up = append(lg.up, nil)
			addEdge(prev, d)
			chain = append(chain, d)
			prev = d
		}
		addEdge(prev, b)
		if len(chain) > 0 {
			lg.chains[de] = chain
		}
	}

	lg.layers = make([][]int, maxRank+1)
	for i, vx := range lg.verts {
		if vx.node >= 0 && lone[vx.node] {
			continue
		}
		lg.layers[vx.rank] = append(lg.layers[vx.rank], i)
	}

	if len(isolated) > 0 {
		perRow := int(math.Ceil(math.Sqrt(float64(len(isolated)))))
		for _, layer := range lg.layers {
			real := 0
			for _, v := range layer {
				if lg.verts[v].node >= 0 {
					real++
				}
			}
			if real > perRow {
				perRow = real
			}
		}
		for start := 0; start < len(isolated); start += perRow {
			end := min(start+perRow, len(isolated))
			r := len(lg.layers)
			row := make([]int, 0, end-start)
			for _, ni := range isolated[start:end] {
				lg.verts[ni].rank = r
				row = append(row, ni)
			}
			lg.layers = append(lg.layers, row)
		}
	}

	for _, layer := range lg.layers {
		sort.Slice(layer, func(i, j int) bool { return lg.verts[layer[i]].key < lg.verts[layer[j]].key })
		for p, v := range layer {
			lg.verts[v].pos = p
		}
	}
	for v := range lg.verts {
		sort.Ints(lg.down[v])
		sort.Ints(lg.up[v])
	}
	return lg
}

// extent returns a node's size along a rank and across it.
func (e *Engine) extent(n graph.Node) (along, thick float64) {
	if e.opts.Direction == LeftRight {
		return n.Height, n.Width
	}
	return n.Width, n.Height
}

func (e *Engine) toXY(u, v float64) (x, y float64) {
	if e.opts.Direction == LeftRight {
		return v, u
	}
	return u, v
}

// assignCoordinates stacks ranks with RankSep between them and lays each
// rank out left to right with NodeSep gaps, centred on the widest rank.
func (e *Engine) assignCoordinates(lg *layered) {
	lengths := make([]float64, len(lg.layers))
	widest := 0.0
	for r, layer := range lg.layers {
		l := 0.0
		for i, v := range layer {
			if i > 0 {
				l += e.opts.NodeSep
			}
			l += lg.verts[v].along
		}
		lengths[r] = l
		widest = math.Max(widest, l)
	}

	offset := e.opts.Margin
	for r, layer := range lg.layers {
		thick := 0.0
		for _, v := range layer {
			thick = math.Max(thick, lg.verts[v].thick)
		}

		cursor := e.opts.Margin + (widest-lengths[r])/2
		for _, v := range layer {
			vx := &lg.verts[v]
			vx.u = cursor + vx.along/2
			vx.v = offset + thick/2
			cursor += vx.along + e.opts.NodeSep
		}
		offset += thick + e.opts.RankSep
	}
}

// routeEdges sets attachment sides and bend points on every edge.
func (e *Engine) routeEdges(g *graph.Graph, lg *layered, index map[string]int) {
	for i := range g.Edges {
		ed := &g.Edges[i]
		ed.Points = nil

		if ed.SelfLoop() {
			ed.SourceSide, ed.TargetSide = graph.SideRight, graph.SideTop
			continue
		}

		s, t := index[ed.Source], index[ed.Target]
		ed.SourceSide, ed.TargetSide = Sides(g.Nodes[s], g.Nodes[t])

		chain, forward := lg.chains[[2]int{s, t}]
		if !forward {
			rev := lg.chains[[2]int{t, s}]
			chain = make([]int, len(rev))
			for k, d := range rev {
				chain[len(rev)-1-k] = d
			}
		}
		for _, d := range chain {
			x, y := e.toXY(lg.verts[d].u, lg.verts[d].v)
			ed.Points = append(ed.Points, graph.Point{X: x, Y: y})
		}
	}
}

// bounds sets the drawing size: the far edge of every node plus the margin.
func (e *Engine) bounds(g *graph.Graph) {
	maxX, maxY := 0.0, 0.0
	for _, n := range g.Nodes {
		maxX = math.Max(maxX, n.Position.X+n.Width)
		maxY = math.Max(maxY, n.Position.Y+n.Height)
	}
	g.Width = maxX + e.opts.Margin
	g.Height = maxY + e.opts.Margin
}

// Sides picks the faces an edge from src to dst attaches to. When the
// vertical distance between centres is at least the horizontal one the edge
// runs top/bottom, with the lower node receiving on its top; otherwise it
// runs left/right.
func Sides(src, dst graph.Node) (source, target graph.Side) {
	sc, dc := src.Center(), dst.Center()
	dx, dy := dc.X-sc.X, dc.Y-sc.Y

	if math.Abs(dy) >= math.Abs(dx) {
		if dy >= 0 {
			return graph.SideBottom, graph.SideTop
		}
		return graph.SideTop, graph.SideBottom
	}
	if dx > 0 {
		return graph.SideRight, graph.SideLeft
	}
	return graph.SideLeft, graph.SideRight
}
