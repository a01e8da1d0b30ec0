package cluster

import (
	"math"
	"math/rand/v2"

	"github.com/nao1215/doctaxon/internal/embedding"
)

// KMeansConfig controls KMeans.
type KMeansConfig struct {
	// Seed makes the run reproducible.
	Seed uint64

	// Restarts is the number of independent k-means++ initializations.
	// The run with the lowest inertia wins.
	Restarts int

	// MaxIterations bounds Lloyd iterations per restart.
	MaxIterations int
}

// DefaultKMeansConfig returns seed 42, 10 restarts and 300 iterations.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		Seed:          42,
		Restarts:      10,
		MaxIterations: 300,
	}
}

// KMeansResult is the outcome of KMeans.
type KMeansResult struct {
	// Labels assigns each point a cluster in [0, K). Labels are numbered in
	// order of first appearance.
	Labels []int

	// Centroids are the final cluster centers, indexed by label.
	Centroids [][]float64

	// Inertia is the sum of squared distances of points to their centroid.
	Inertia float64
}

// KMeans partitions points into k clusters using k-means++ seeding and
// Lloyd iterations. k is clamped to [1, len(points)]. Empty clusters are
// re-seeded with the point farthest from its centroid, so every label in
// [0, k) is used whenever the points are distinct.
func KMeans(points [][]float64, k int, cfg KMeansConfig) KMeansResult {
	n := len(points)
	if n == 0 {
		return KMeansResult{}
	}
	k = max(1, min(k, n))
	if cfg.Restarts < 1 {
		cfg.Restarts = 1
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 300
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // Deterministic seeding is required

	var best KMeansResult
	best.Inertia = math.Inf(1)
	for range cfg.Restarts {
		res := lloyd(points, seedPlusPlus(points, k, rng), cfg.MaxIterations)
		if res.Inertia < best.Inertia {
			best = res
		}
	}

	return relabel(best)
}

// seedPlusPlus picks k initial centroids with the k-means++ rule.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, embedding.Clone(points[rng.IntN(n)]))

	dist := make([]float64, n)
	for i := range points {
		dist[i] = embedding.SquaredDistance(points[i], centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range dist {
			total += d
		}

		next := rng.IntN(n)
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}

		c := embedding.Clone(points[next])
		centroids = append(centroids, c)
		for i := range points {
			if d := embedding.SquaredDistance(points[i], c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

// lloyd runs assignment/update iterations until labels stop changing.
func lloyd(points [][]float64, centroids [][]float64, maxIter int) KMeansResult {
	n := len(points)
	k := len(centroids)
	dim := len(points[0])
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for range maxIter {
		changed := false
		for i, p := range points {
			l := nearest(p, centroids)
			if l != labels[i] {
				labels[i] = l
				changed = true
			}
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			counts[labels[i]]++
			for d := range dim {
				sums[labels[i]][d] += p[d]
			}
		}

		for c := range k {
			if counts[c] > 0 {
				for d := range dim {
					sums[c][d] /= float64(counts[c])
				}
				centroids[c] = sums[c]
				continue
			}
			// Re-seed an empty cluster with the worst-fitting point.
			far := farthestPoint(points, labels, centroids, counts)
			if far < 0 {
				continue
			}
			counts[labels[far]]--
			labels[far] = c
			counts[c] = 1
			centroids[c] = embedding.Clone(points[far])
			changed = true
		}

		if !changed {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += embedding.SquaredDistance(p, centroids[labels[i]])
	}
	return KMeansResult{Labels: labels, Centroids: centroids, Inertia: inertia}
}

// nearest returns the index of the closest centroid, preferring the lower
// index on ties.
func nearest(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := embedding.SquaredDistance(p, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// farthestPoint returns the point farthest from its centroid among
// clusters that can spare a member, or -1 if none can.
func farthestPoint(points [][]float64, labels []int, centroids [][]float64, counts []int) int {
	far := -1
	farDist := -1.0
	for i, p := range points {
		if counts[labels[i]] <= 1 {
			continue
		}
		if d := embedding.SquaredDistance(p, centroids[labels[i]]); d > farDist {
			farDist = d
			far = i
		}
	}
	return far
}

// relabel renumbers labels in order of first appearance and drops unused
// centroids.
func relabel(res KMeansResult) KMeansResult {
	mapping := make(map[int]int)
	labels := make([]int, len(res.Labels))
	centroids := make([][]float64, 0, len(res.Centroids))
	for i, l := range res.Labels {
		nl, ok := mapping[l]
		if !ok {
			nl = len(mapping)
			mapping[l] = nl
			centroids = append(centroids, res.Centroids[l])
		}
		labels[i] = nl
	}
	return KMeansResult{Labels: labels, Centroids: centroids, Inertia: res.Inertia}
}
