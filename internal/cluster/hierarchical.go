package cluster

import (
	"math"
	"slices"

	"github.com/nao1215/doctaxon/internal/embedding"
)

// merge is one step of an agglomerative dendrogram. a and b are the
// representative point indices of the two merged clusters.
type merge struct {
	a, b   int
	height float64
}

// Ward clusters points agglomeratively with ward linkage and cuts the
// dendrogram at k clusters. k is clamped to [1, len(points)].
//
// The dendrogram is built with the nearest-neighbor chain algorithm, which
// is exact for ward linkage and needs O(n^2) time and memory.
func Ward(points [][]float64, k int) []int {
	n := len(points)
	if n == 0 {
		return nil
	}
	k = max(1, min(k, n))

	merges := wardDendrogram(points)
	slices.SortStableFunc(merges, func(x, y merge) int {
		switch {
		case x.height < y.height:
			return -1
		case x.height > y.height:
			return 1
		default:
			return 0
		}
	})

	uf := newUnionFind(n)
	for _, m := range merges[:n-k] {
		uf.union(m.a, m.b)
	}

	labels := make([]int, n)
	ids := make(map[int]int)
	for i := range labels {
		root := uf.find(i)
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		labels[i] = id
	}
	return labels
}

// wardDendrogram returns the n-1 merges of the full ward dendrogram in
// execution order. The merged cluster is stored in the slot of its lower
// index, so each slot index is always a member point of its cluster.
func wardDendrogram(points [][]float64) []merge {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			d := embedding.Distance(points[i], points[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	size := make([]int, n)
	active := make([]bool, n)
	for i := range n {
		size[i] = 1
		active[i] = true
	}

	merges := make([]merge, 0, n-1)
	chain := make([]int, 0, n)
	remaining := n

	for remaining > 1 {
		if len(chain) == 0 {
			for i := range n {
				if active[i] {
					chain = append(chain, i)
					break
				}
			}
		}

		a := chain[len(chain)-1]
		prev := -1
		if len(chain) >= 2 {
			prev = chain[len(chain)-2]
		}

		// Prefer the previous chain element on ties so the chain terminates.
		b := prev
		bestDist := math.Inf(1)
		if prev >= 0 {
			bestDist = dist[a][prev]
		}
		for j := range n {
			if !active[j] || j == a {
				continue
			}
			if dist[a][j] < bestDist {
				bestDist = dist[a][j]
				b = j
			}
		}

		if b != prev {
			chain = append(chain, b)
			continue
		}

		chain = chain[:len(chain)-2]
		lo, hi := min(a, b), max(a, b)
		merges = append(merges, merge{a: lo, b: hi, height: bestDist})

		// Lance-Williams update for ward linkage.
		for c := range n {
			if !active[c] || c == lo || c == hi {
				continue
			}
			nc := float64(size[c])
			nl := float64(size[lo])
			nh := float64(size[hi])
			d := ((nc+nl)*dist[c][lo]*dist[c][lo] +
				(nc+nh)*dist[c][hi]*dist[c][hi] -
				nc*bestDist*bestDist) / (nc + nl + nh)
			d = math.Sqrt(max(d, 0))
			dist[c][lo] = d
			dist[lo][c] = d
		}
		size[lo] += size[hi]
		active[hi] = false
		remaining--
	}

	return merges
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
