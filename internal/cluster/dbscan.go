package cluster

import "github.com/nao1215/doctaxon/internal/embedding"

// Noise is the label DBSCAN assigns to points that belong to no cluster.
const Noise = -1

// DBSCAN clusters points by density over cosine distance. A point is a
// core point when at least minSamples points (itself included) lie within
// eps of it. Points reachable from no core point are labelled Noise.
// Cluster labels start at 0 and follow the order clusters are discovered.
func DBSCAN(points [][]float64, eps float64, minSamples int) []int {
	n := len(points)
	if n == 0 {
		return nil
	}
	minSamples = max(1, minSamples)

	neighbors := make([][]int, n)
	for i := range n {
		neighbors[i] = append(neighbors[i], i)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			if embedding.CosineDistance(points[i], points[j]) <= eps {
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
		}
	}

	const unvisited = -2
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	next := 0
	for i := range n {
		if labels[i] != unvisited {
			continue
		}
		if len(neighbors[i]) < minSamples {
			labels[i] = Noise
			continue
		}

		c := next
		next++
		labels[i] = c
		queue := append([]int(nil), neighbors[i]...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if labels[j] == Noise {
				// Border point.
				labels[j] = c
				continue
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = c
			if len(neighbors[j]) >= minSamples {
				queue = append(queue, neighbors[j]...)
			}
		}
	}
	return labels
}
