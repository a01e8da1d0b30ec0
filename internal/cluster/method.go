package cluster

import (
	"errors"
	"fmt"
	"strings"
)

// Method is a clustering algorithm.
type Method string

const (
	// MethodKMeans is partition-based clustering. It needs an explicit k
	// and is deterministic for a fixed seed.
	MethodKMeans Method = "kmeans"

	// MethodHierarchical is agglomerative clustering with ward linkage.
	// It needs an explicit k.
	MethodHierarchical Method = "hierarchical"

	// MethodDBSCAN is density-based clustering over cosine distance.
	// It determines the number of clusters itself and labels sparse
	// points as noise.
	MethodDBSCAN Method = "dbscan"
)

// ErrUnknownMethod is returned by ParseMethod for unrecognized names.
var ErrUnknownMethod = errors.New("unknown clustering method")

// ParseMethod resolves a method name. Matching is case-insensitive and
// accepts a few common aliases.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "kmeans", "k-means":
		return MethodKMeans, nil
	case "hierarchical", "ward", "agglomerative":
		return MethodHierarchical, nil
	case "dbscan", "density", "density-based":
		return MethodDBSCAN, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// String returns the method name.
func (m Method) String() string {
	return string(m)
}

// NeedsK reports whether the method requires a cluster count.
func (m Method) NeedsK() bool {
	return m != MethodDBSCAN
}
