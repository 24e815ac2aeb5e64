package layout

import "sort"

// minimizeCrossings runs alternating barycenter sweeps over the ranks and
// keeps the ordering with the fewest crossings seen. It stops early once a
// crossing-free ordering is found.
func (lg *layered) minimizeCrossings(iterations int) {
	best := lg.snapshot()
	fewest := lg.crossings()

	for it := 0; it < iterations && fewest > 0; it++ {
		if it%2 == 0 {
			for r := 1; r < len(lg.layers); r++ {
				lg.reorder(r, lg.up)
			}
		} else {
			for r := len(lg.layers) - 2; r >= 0; r-- {
				lg.reorder(r, lg.down)
			}
		}
		if c := lg.crossings(); c < fewest {
			fewest = c
			best = lg.snapshot()
		}
	}

	lg.layers = best
	for _, layer := range lg.layers {
		for p, v := range layer {
			lg.verts[v].pos = p
		}
	}
}

// reorder sorts rank r by the mean position of each vertex's neighbours in
// the adjacent rank. A vertex without neighbours keeps its current slot as
// its barycenter; ties keep the current order.
func (lg *layered) reorder(r int, neighbours [][]int) {
	layer := lg.layers[r]
	bc := make(map[int]float64, len(layer))
	for _, v := range layer {
		nb := neighbours[v]
		if len(nb) == 0 {
			bc[v] = float64(lg.verts[v].pos)
			continue
		}
		sum := 0
		for _, w := range nb {
			sum += lg.verts[w].pos
		}
		bc[v] = float64(sum) / float64(len(nb))
	}

	sort.SliceStable(layer, func(i, j int) bool { return bc[layer[i]] < bc[layer[j]] })
	for p, v := range layer {
		lg.verts[v].pos = p
	}
}

// crossings counts edge crossings between every pair of adjacent ranks.
func (lg *layered) crossings() int {
	total := 0
	for r := 0; r+1 < len(lg.layers); r++ {
		type pair struct{ a, b int }
		var pairs []pair
		for _, v := range lg.layers[r] {
			for _, w := range lg.down[v] {
				pairs = append(pairs, pair{lg.verts[v].pos, lg.verts[w].pos})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i].a != pairs[j].a {
				return pairs[i].a < pairs[j].a
			}
			return pairs[i].b < pairs[j].b
		})
		for i := range pairs {
			for j := i + 1; j < len(pairs); j++ {
				if pairs[i].b > pairs[j].b {
					total++
				}
			}
		}
	}
	return total
}

func (lg *layered) snapshot() [][]int {
	out := make([][]int, len(lg.layers))
	for r, layer := range lg.layers {
		out[r] = append([]int(nil), layer...)
	}
	return out
}
