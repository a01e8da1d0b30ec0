package graph

import (
	"math"
	"slices"
	"strings"
)

// PageRank parameters.
const (
	DefaultDamping       = 0.85
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-6
)

// PageRank returns the weighted PageRank score of every node with the
// default parameters. Scores sum to 1.
func (g *Graph) PageRank() map[string]float64 {
	return g.PageRankWith(DefaultDamping, DefaultMaxIterations, DefaultTolerance)
}

// PageRankWith computes PageRank by power iteration. Out-edges are
// followed in proportion to their weight. The rank of nodes without
// out-edges is spread uniformly over all nodes. Iteration stops when the
// L1 change drops below n*tol or after maxIter rounds; the last estimate
// is returned either way.
func (g *Graph) PageRankWith(damping float64, maxIter int, tol float64) map[string]float64 {
	n := len(g.order)
	if n == 0 {
		return map[string]float64{}
	}

	outWeight := make([]float64, n)
	for i, id := range g.order {
		for _, e := range g.out[id] {
			outWeight[i] += e.Weight
		}
	}

	uniform := 1.0 / float64(n)
	rank := make([]float64, n)
	for i := range rank {
		rank[i] = uniform
	}

	for range maxIter {
		next := make([]float64, n)
		var dangling float64
		for i, id := range g.order {
			if outWeight[i] <= 0 {
				dangling += rank[i]
				continue
			}
			for _, e := range g.out[id] {
				next[g.index[e.To]] += damping * rank[i] * e.Weight / outWeight[i]
			}
		}

		base := (1-damping)*uniform + damping*dangling*uniform
		var change float64
		for i := range next {
			next[i] += base
			change += math.Abs(next[i] - rank[i])
		}
		rank = next
		if change < float64(n)*tol {
			break
		}
	}

	scores := make(map[string]float64, n)
	for i, id := range g.order {
		scores[id] = rank[i]
	}
	return scores
}

// Ranked is a node with its centrality score.
type Ranked struct {
	Node  Node
	Score float64
}

// Foundational returns the n page nodes with the highest PageRank. Ties
// are ordered by node id.
func (g *Graph) Foundational(n int) []Ranked {
	scores := g.PageRank()
	ranked := make([]Ranked, 0, len(g.order))
	for _, id := range g.order {
		node := g.nodes[id]
		if node.Kind != KindPage {
			continue
		}
		ranked = append(ranked, Ranked{Node: *node, Score: scores[id]})
	}

	slices.SortFunc(ranked, func(a, b Ranked) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.Node.ID, b.Node.ID)
		}
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
