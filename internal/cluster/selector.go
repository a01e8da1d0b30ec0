package cluster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/doctaxon/internal/model"
)

// Default selector parameters.
const (
	DefaultMinSize  = 3
	DefaultMaxSize  = 15
	DefaultSeed     = 42
	DefaultRestarts = 10
	DefaultEps      = 0.3
)

// Selector chooses a clustering algorithm and cluster count and turns
// embedding units into clusters.
type Selector struct {
	method     Method
	k          int
	minSize    int
	maxSize    int
	minSamples int
	eps        float64
	kmeans     KMeansConfig
	logger     *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithMethod sets the clustering algorithm. The default is MethodKMeans.
func WithMethod(m Method) Option {
	return func(s *Selector) {
		s.method = m
	}
}

// WithK fixes the cluster count. Zero or a negative value selects the
// count automatically.
func WithK(k int) Option {
	return func(s *Selector) {
		s.k = k
	}
}

// WithSizeBounds sets the minimum and maximum cluster size used to bound
// auto selection.
func WithSizeBounds(minSize, maxSize int) Option {
	return func(s *Selector) {
		s.minSize = minSize
		s.maxSize = maxSize
	}
}

// WithSeed sets the k-means seed.
func WithSeed(seed uint64) Option {
	return func(s *Selector) {
		s.kmeans.Seed = seed
	}
}

// WithRestarts sets the number of k-means++ initializations.
func WithRestarts(n int) Option {
	return func(s *Selector) {
		s.kmeans.Restarts = n
	}
}

// WithEps sets the DBSCAN neighborhood radius in cosine distance.
func WithEps(eps float64) Option {
	return func(s *Selector) {
		s.eps = eps
	}
}

// WithMinSamples sets the DBSCAN core point threshold. It defaults to the
// minimum cluster size.
func WithMinSamples(n int) Option {
	return func(s *Selector) {
		s.minSamples = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		s.logger = logger
	}
}

// NewSelector creates a Selector. Without options it runs seeded k-means
// with an automatically selected cluster count.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		method:  MethodKMeans,
		minSize: DefaultMinSize,
		maxSize: DefaultMaxSize,
		eps:     DefaultEps,
		kmeans: KMeansConfig{
			Seed:          DefaultSeed,
			Restarts:      DefaultRestarts,
			MaxIterations: DefaultKMeansConfig().MaxIterations,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.minSamples <= 0 {
		s.minSamples = s.minSize
	}
	return s
}

// Method returns the configured algorithm.
func (s *Selector) Method() Method {
	return s.method
}

// SizeBounds returns the minimum and maximum cluster size.
func (s *Selector) SizeBounds() (minSize, maxSize int) {
	return s.minSize, s.maxSize
}

// Result is the outcome of one clustering run.
type Result struct {
	// Clusters are sorted by descending size.
	Clusters []*model.Cluster

	// Labels is index-aligned with the input units. Noise is -1.
	Labels []int

	// K is the cluster count the algorithm was run with. For DBSCAN it is
	// the number of clusters found.
	K int

	// Method is the algorithm that produced Labels.
	Method Method

	// Selection is set when K was chosen automatically.
	Selection *KSelection

	// Silhouette is the score of the final labelling.
	Silhouette float64

	// Noise counts units DBSCAN left unassigned.
	Noise int

	// Warnings describe degenerate conditions the run recovered from.
	Warnings []string
}

// Run clusters units. pages resolves member pages for the produced
// clusters. Run does not fail on small or degenerate inputs; those are
// reported in Result.Warnings. An error is returned only when ctx is
// cancelled.
func (s *Selector) Run(ctx context.Context, units []model.Unit, pages []*model.Page) (*Result, error) {
	res := &Result{Method: s.method}
	n := len(units)
	if n == 0 {
		res.Warnings = append(res.Warnings, "no embedding units to cluster")
		return res, nil
	}

	points := make([][]float64, n)
	for i := range units {
		points[i] = units[i].Vector
	}

	switch s.method {
	case MethodDBSCAN:
		s.runDBSCAN(points, res)
	default:
		k, err := s.resolveK(ctx, points, res)
		if err != nil {
			return nil, err
		}
		res.K = k
		if s.method == MethodHierarchical {
			res.Labels = Ward(points, k)
		} else {
			res.Labels = KMeans(points, k, s.kmeans).Labels
		}
	}

	res.Silhouette = Silhouette(points, res.Labels)
	res.Clusters = BuildClusters(units, res.Labels, pages)

	s.logger.Debug("clustering completed",
		"method", res.Method,
		"k", res.K,
		"clusters", len(res.Clusters),
		"silhouette", res.Silhouette,
	)
	for _, w := range res.Warnings {
		s.logger.Warn(w)
	}
	return res, nil
}

// resolveK returns a usable cluster count in [1, n].
func (s *Selector) resolveK(ctx context.Context, points [][]float64, res *Result) (int, error) {
	n := len(points)
	k := s.k
	if k <= 0 {
		sel, err := SelectK(ctx, points, s.minSize, s.maxSize, s.kmeans)
		if err != nil {
			return 0, err
		}
		res.Selection = &sel
		k = sel.K
		if sel.Strategy == StrategyFallback {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("too few points (%d) to select a cluster count; using fallback k=%d", n, k))
		}
		s.logger.Debug("selected cluster count",
			"k", k,
			"strategy", sel.Strategy,
			"candidates", sel.Candidates,
		)
	}

	if k < 1 || k > n {
		adjusted := max(1, min(k, n))
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("cluster count %d adjusted to %d for %d points", k, adjusted, n))
		k = adjusted
	}
	return k, nil
}

func (s *Selector) runDBSCAN(points [][]float64, res *Result) {
	res.Labels = DBSCAN(points, s.eps, s.minSamples)

	found := make(map[int]struct{})
	for _, l := range res.Labels {
		if l == Noise {
			res.Noise++
			continue
		}
		found[l] = struct{}{}
	}
	res.K = len(found)

	switch res.K {
	case 0:
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("density-based clustering labelled all %d points as noise", len(points)))
	case 1:
		res.Warnings = append(res.Warnings, "density-based clustering found a single cluster")
	}
	if res.Noise > 0 {
		s.logger.Debug("density-based clustering left noise points", "noise", res.Noise)
	}
}
