// Package cluster partitions embedding units into clusters of related
// pages.
//
// Three algorithms are available:
//
//   - k-means: seeded k-means++ initialization with several restarts.
//     Deterministic for a fixed seed.
//   - hierarchical: agglomerative clustering with ward linkage.
//   - dbscan: density-based clustering over cosine distance. Units in
//     sparse regions are labelled as noise and belong to no cluster.
//
// When no cluster count is given, SelectK searches a range derived from
// the minimum and maximum cluster size and scores each candidate by a
// weighted mix of silhouette and elbow curvature. Small inputs never
// fail; they fall back to a fixed default and the run carries a warning.
//
// Design decision: The algorithms are implemented in this package on top
// of plain float64 slices rather than pulled from a numerics library.
// Inputs are a few thousand vectors at most, and owning the code keeps
// seeding, tie-breaking and label numbering deterministic across runs.
package cluster
