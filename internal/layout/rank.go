package layout

import "sort"

// breakCycles returns the edges of succ as an acyclic edge list. The DFS
// starts from nodes nobody points at, then sweeps the rest in index order;
// every back edge it meets is reversed. Duplicates produced by reversal are
// merged, so a<->b becomes a single a->b.
func breakCycles(succ [][]int) [][2]int {
	n := len(succ)
	indeg := make([]int, n)
	for _, ts := range succ {
		for _, t := range ts {
			indeg[t]++
		}
	}

	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, n)
	seen := make(map[[2]int]bool)
	var out [][2]int
	add := func(a, b int) {
		e := [2]int{a, b}
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}

	var visit func(u int)
	visit = func(u int) {
		state[u] = active
		for _, v := range succ[u] {
			switch state[v] {
			case active:
				add(v, u)
			case unvisited:
				add(u, v)
				visit(v)
			default:
				add(u, v)
			}
		}
		state[u] = done
	}

	for u := 0; u < n; u++ {
		if indeg[u] == 0 && state[u] == unvisited {
			visit(u)
		}
	}
	for u := 0; u < n; u++ {
		if state[u] == unvisited {
			visit(u)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// assignRanks gives every node of the acyclic edge list a rank so that each
// edge points to a strictly higher rank. Ranks come from the longest path
// from a source; sources are then moved down to sit one rank above their
// nearest successor. Nodes with no edges at all are returned separately.
func assignRanks(n int, dag [][2]int) (ranks []int, isolated []int) {
	succ := make([][]int, n)
	indeg := make([]int, n)
	degree := make([]int, n)
	for _, e := range dag {
		succ[e[0]] = append(succ[e[0]], e[1])
		indeg[e[1]]++
		degree[e[0]]++
		degree[e[1]]++
	}

	ranks = make([]int, n)
	remaining := append([]int(nil), indeg...)
	queue := make([]int, 0, n)
	for u := 0; u < n; u++ {
		if indeg[u] == 0 {
			queue = append(queue, u)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range succ[u] {
			if ranks[u]+1 > ranks[v] {
				ranks[v] = ranks[u] + 1
			}
			remaining[v]--
			if remaining[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	for u := 0; u < n; u++ {
		if indeg[u] != 0 || len(succ[u]) == 0 {
			continue
		}
		lowest := -1
		for _, v := range succ[u] {
			if lowest < 0 || ranks[v] < lowest {
				lowest = ranks[v]
			}
		}
		ranks[u] = lowest - 1
	}

	floor := -1
	for u := 0; u < n; u++ {
		if degree[u] == 0 {
			isolated = append(isolated, u)
			ranks[u] = 0
			continue
		}
		if floor < 0 || ranks[u] < floor {
			floor = ranks[u]
		}
	}
	if floor > 0 {
		for u := 0; u < n; u++ {
			if degree[u] > 0 {
				ranks[u] -= floor
			}
		}
	}
	return ranks, isolated
}
