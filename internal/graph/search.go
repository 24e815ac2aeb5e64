package graph

import "strings"

// Search returns the nodes whose table name or ID contains query, ignoring
// case. An empty query matches every node. Results keep graph order.
func Search(g *Graph, query string) []Node {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Node{}
	for _, n := range g.Nodes {
		if q == "" ||
			strings.Contains(strings.ToLower(n.Table.Name), q) ||
			strings.Contains(strings.ToLower(n.ID), q) {
			out = append(out, n)
		}
	}
	return out
}
