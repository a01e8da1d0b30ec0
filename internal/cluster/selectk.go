package cluster

import (
	"context"
	"fmt"
)

// MaxAutoK caps the number of clusters auto selection will consider.
const MaxAutoK = 20

// Strategy names how SelectK arrived at its answer.
type Strategy string

const (
	// StrategyCombined weighs silhouette and elbow curvature.
	StrategyCombined Strategy = "combined"
	// StrategySilhouette picks the best silhouette when there are too few
	// candidates for a curvature estimate.
	StrategySilhouette Strategy = "silhouette"
	// StrategyFallback uses min(10, n/15) when no candidate exists.
	StrategyFallback Strategy = "fallback"
)

// Weights of the combined score.
const (
	silhouetteWeight = 0.6
	elbowWeight      = 0.4
)

// KSelection reports the outcome of auto cluster-count selection. The
// per-candidate slices are index-aligned with Candidates.
type KSelection struct {
	K           int
	Strategy    Strategy
	Candidates  []int
	Inertias    []float64
	Silhouettes []float64
	// Scores holds the combined score of interior candidates. The first and
	// last entries are always zero because curvature is undefined there.
	Scores []float64
}

// KRange returns the inclusive candidate range for n points. The range is
// empty when lo > hi.
func KRange(n, minSize, maxSize int) (lo, hi int) {
	minSize = max(1, minSize)
	maxSize = max(1, maxSize)
	lo = max(2, n/maxSize)
	hi = min(MaxAutoK, n/minSize)
	// Candidates stay below n/2 so every cluster can hold two points.
	hi = min(hi, n/2-1)
	return lo, hi
}

// FallbackK is the cluster count used when no candidate range exists.
func FallbackK(n int) int {
	return min(10, n/15)
}

// SelectK chooses a cluster count for points with the elbow/silhouette
// heuristic. It never fails on small inputs; when the candidate range is
// empty it returns FallbackK(n), which may be 0 for tiny inputs. The only
// error is a cancelled context.
func SelectK(ctx context.Context, points [][]float64, minSize, maxSize int, cfg KMeansConfig) (KSelection, error) {
	n := len(points)
	lo, hi := KRange(n, minSize, maxSize)

	sel := KSelection{}
	for k := lo; k <= hi; k++ {
		if err := ctx.Err(); err != nil {
			return KSelection{}, fmt.Errorf("failed to select cluster count: %w", err)
		}
		res := KMeans(points, k, cfg)
		sel.Candidates = append(sel.Candidates, k)
		sel.Inertias = append(sel.Inertias, res.Inertia)
		sel.Silhouettes = append(sel.Silhouettes, Silhouette(points, res.Labels))
	}

	switch {
	case len(sel.Candidates) >= 3:
		sel.Strategy = StrategyCombined
		sel.K = sel.combined()
	case len(sel.Candidates) > 0:
		sel.Strategy = StrategySilhouette
		best := 0
		for i, s := range sel.Silhouettes {
			if s > sel.Silhouettes[best] {
				best = i
			}
		}
		sel.K = sel.Candidates[best]
	default:
		sel.Strategy = StrategyFallback
		sel.K = FallbackK(n)
	}
	return sel, nil
}

// combined scores interior candidates and returns the best k.
func (s *KSelection) combined() int {
	m := len(s.Candidates)
	curvature := make([]float64, m)
	maxCurvature := 0.0
	for i := 1; i < m-1; i++ {
		curvature[i] = s.Inertias[i-1] - 2*s.Inertias[i] + s.Inertias[i+1]
		maxCurvature = max(maxCurvature, curvature[i])
	}

	s.Scores = make([]float64, m)
	best := 1
	for i := 1; i < m-1; i++ {
		elbow := 0.0
		if maxCurvature > 0 {
			elbow = curvature[i] / maxCurvature
		}
		s.Scores[i] = silhouetteWeight*s.Silhouettes[i] + elbowWeight*elbow
		if s.Scores[i] > s.Scores[best] {
			best = i
		}
	}
	return s.Candidates[best]
}
