package cluster

import "github.com/nao1215/doctaxon/internal/embedding"

// Silhouette returns the mean silhouette coefficient of a labelling using
// Euclidean distance. Noise points are excluded. The score lies in
// [-1, 1]; it is 0 when fewer than two clusters or fewer than three
// labelled points remain, where the coefficient is undefined.
func Silhouette(points [][]float64, labels []int) float64 {
	idx := make([]int, 0, len(points))
	counts := make(map[int]int)
	for i, l := range labels {
		if l == Noise || i >= len(points) {
			continue
		}
		idx = append(idx, i)
		counts[l]++
	}
	if len(counts) < 2 || len(counts) >= len(idx) {
		return 0
	}

	var total float64
	for _, i := range idx {
		own := labels[i]
		if counts[own] == 1 {
			// Singleton clusters score 0.
			continue
		}

		sums := make(map[int]float64, len(counts))
		for _, j := range idx {
			if j == i {
				continue
			}
			sums[labels[j]] += embedding.Distance(points[i], points[j])
		}

		a := sums[own] / float64(counts[own]-1)
		b := -1.0
		for l, s := range sums {
			if l == own {
				continue
			}
			if mean := s / float64(counts[l]); b < 0 || mean < b {
				b = mean
			}
		}

		if m := max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(len(idx))
}

// Inertia returns the sum of squared distances of points to the centroid
// of their cluster. Noise points are excluded.
func Inertia(points [][]float64, labels []int) float64 {
	members := make(map[int][][]float64)
	for i, l := range labels {
		if l == Noise || i >= len(points) {
			continue
		}
		members[l] = append(members[l], points[i])
	}

	var total float64
	for _, vs := range members {
		centroid, _ := embedding.Mean(vs)
		for _, v := range vs {
			total += embedding.SquaredDistance(v, centroid)
		}
	}
	return total
}

// Cohesion returns the mean pairwise cosine similarity of vectors. A
// single vector has cohesion 1 and an empty set has cohesion 0.
func Cohesion(vectors [][]float64) float64 {
	switch len(vectors) {
	case 0:
		return 0
	case 1:
		return 1
	}

	var sum float64
	pairs := 0
	for i := range vectors {
		for j := i + 1; j < len(vectors); j++ {
			sum += embedding.Cosine(vectors[i], vectors[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}
