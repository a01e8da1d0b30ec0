// Package embedding turns per-page vector signals into clustering units.
//
// A page can carry a full-page vector, several section vectors, or several
// learning-objective vectors. Aggregate picks one of these sources and
// produces a list of units that all share one vector dimension, ready to be
// handed to the cluster package. The package also holds the small vector
// helpers (mean, cosine, Euclidean distance) shared by clustering.
package embedding
