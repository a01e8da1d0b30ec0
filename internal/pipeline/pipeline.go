package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/doctaxon/internal/cluster"
	"github.com/nao1215/doctaxon/internal/embedding"
	"github.com/nao1215/doctaxon/internal/graph"
	"github.com/nao1215/doctaxon/internal/model"
	"github.com/nao1215/doctaxon/internal/order"
	"github.com/nao1215/doctaxon/internal/summarize"
	"github.com/nao1215/doctaxon/internal/taxonomy"
)

// Stage names used in logs and timings.
const (
	StageAggregate = "aggregate"
	StageCluster   = "cluster"
	StageGraph     = "graph"
	StageSummarize = "summarize"
	StageGroup     = "categorize"
	StageAssemble  = "assemble"
)

// Input is one client's build request.
type Input struct {
	Client model.Client
	Pages  []*model.Page
	Source model.EmbeddingSource

	// BuildID is recorded in the taxonomy metadata when set.
	BuildID string

	// GeneratedAt defaults to the current UTC time.
	GeneratedAt time.Time
}

// StageTiming is the wall time spent in one stage.
type StageTiming struct {
	Stage   string
	Elapsed time.Duration
}

// Result holds the taxonomy and every intermediate artifact of a build.
type Result struct {
	Client     model.Client
	Taxonomy   *model.Taxonomy
	Embeddings *embedding.Result
	Clustering *cluster.Result
	Clusters   []*model.Cluster
	Graph      *graph.Graph
	Summaries  map[int]model.ClusterSummary

	// Failures lists clusters whose summary fell back to a synthetic one.
	Failures []summarize.Failure

	// Warnings describe degraded but recovered conditions.
	Warnings []string

	// Timings are in completion order.
	Timings []StageTiming

	mu sync.Mutex
}

// Degenerate reports whether the build produced no usable clusters.
func (r *Result) Degenerate() bool {
	return len(r.Clusters) == 0
}

func (r *Result) addTiming(stage string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Timings = append(r.Timings, StageTiming{Stage: stage, Elapsed: elapsed})
}

// Builder turns a client's pages into a taxonomy.
//
// Design decision: Stages are plain function calls in a fixed order
// rather than pluggable steps. Each stage returns the next stage's input,
// so there is no shared report to mutate, and the two independent stages
// (clustering and graph construction) can run concurrently.
type Builder struct {
	selector    *cluster.Selector
	graphOpts   []graph.Option
	summarizer  summarize.Summarizer
	categorizer summarize.Categorizer
	concurrency int
	logger      *slog.Logger
}

// Option is a function that configures a Builder.
type Option func(*Builder)

// WithLogger sets a custom logger for the builder and its stages.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithSelector sets the cluster selector. The default is
// cluster.NewSelector() with the builder's logger.
func WithSelector(s *cluster.Selector) Option {
	return func(b *Builder) {
		b.selector = s
	}
}

// WithGraphOptions passes options to graph.Build.
func WithGraphOptions(opts ...graph.Option) Option {
	return func(b *Builder) {
		b.graphOpts = append(b.graphOpts, opts...)
	}
}

// WithSummarizer enables the summarize stage.
func WithSummarizer(s summarize.Summarizer) Option {
	return func(b *Builder) {
		b.summarizer = s
	}
}

// WithCategorizer sets the categorizer. Without one every cluster is
// placed under the fallback category.
func WithCategorizer(c summarize.Categorizer) Option {
	return func(b *Builder) {
		b.categorizer = c
	}
}

// WithSummaryConcurrency limits parallel summary requests.
func WithSummaryConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// New creates a Builder with the given options.
func New(opts ...Option) *Builder {
	b := &Builder{
		concurrency: summarize.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.selector == nil {
		b.selector = cluster.NewSelector(cluster.WithLogger(b.logger))
	}
	return b
}

// Build runs every stage for one client.
//
// It fails with ErrNoPages or ErrNoEmbeddings when there is nothing to
// cluster, and with ctx.Err() when cancelled. Every other problem
// degrades the build: small or degenerate inputs produce fewer clusters,
// failed summaries fall back to synthetic ones, and a failed category
// request falls back to the single "Documentation" topic. Each such event
// is recorded in Result.Warnings.
func (b *Builder) Build(ctx context.Context, in Input) (*Result, error) {
	res := &Result{Client: in.Client}
	if len(in.Pages) == 0 {
		return nil, ErrNoPages
	}

	err := b.stage(ctx, res, StageAggregate, func(context.Context) error {
		emb, err := embedding.Aggregate(in.Pages, in.Source, embedding.WithLogger(b.logger))
		if err != nil {
			return fmt.Errorf("failed to aggregate embeddings: %w", err)
		}
		res.Embeddings = emb
		if emb.Dropped > 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("dropped %d vectors with a dimension other than %d", emb.Dropped, emb.Dimension))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := b.clusterAndGraph(ctx, res, in.Pages); err != nil {
		return nil, err
	}

	if b.summarizer != nil {
		err := b.stage(ctx, res, StageSummarize, func(ctx context.Context) error {
			res.Summaries, res.Failures = summarize.SummarizeAll(ctx, b.summarizer, res.Clusters,
				func(c *model.Cluster) []*model.Page { return order.Sort(c.Pages) },
				summarize.WithConcurrency(b.concurrency),
				summarize.WithLogger(b.logger),
			)
			for _, f := range res.Failures {
				res.Warnings = append(res.Warnings, fmt.Sprintf("summary fell back for %v", f))
			}
			return ctx.Err()
		})
		if err != nil {
			return nil, err
		}
	}

	var categories []model.Category
	err = b.stage(ctx, res, StageGroup, func(ctx context.Context) error {
		var err error
		categories, err = summarize.Group(ctx, b.categorizer, res.Clusters, res.Summaries, summarize.WithLogger(b.logger))
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("category grouping fell back: %v", err))
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	err = b.stage(ctx, res, StageAssemble, func(context.Context) error {
		minSize, maxSize := b.selector.SizeBounds()
		res.Taxonomy = taxonomy.Assemble(taxonomy.Input{
			Client:         in.Client,
			Pages:          in.Pages,
			Clusters:       res.Clusters,
			Summaries:      res.Summaries,
			Categories:     categories,
			Source:         res.Embeddings.Source,
			Method:         res.Clustering.Method.String(),
			MinClusterSize: minSize,
			MaxClusterSize: maxSize,
			BuildID:        in.BuildID,
			Warnings:       res.Warnings,
			GeneratedAt:    in.GeneratedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Degenerate() {
		b.logger.Warn("build produced no usable clusters",
			"client_id", in.Client.ID,
			"pages", len(in.Pages),
		)
	}
	return res, nil
}

// clusterAndGraph runs clustering and graph construction concurrently.
// Neither depends on the other; both only read the pages.
func (b *Builder) clusterAndGraph(ctx context.Context, res *Result, pages []*model.Page) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.stage(gctx, res, StageCluster, func(ctx context.Context) error {
			cr, err := b.selector.Run(ctx, res.Embeddings.Units, pages)
			if err != nil {
				return fmt.Errorf("failed to cluster embeddings: %w", err)
			}
			res.Clustering = cr
			res.Clusters = cr.Clusters
			return nil
		})
	})

	g.Go(func() error {
		return b.stage(gctx, res, StageGraph, func(context.Context) error {
			opts := append([]graph.Option{graph.WithLogger(b.logger)}, b.graphOpts...)
			res.Graph = graph.Build(pages, opts...)
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return err
	}
	// Result.Warnings is only written outside the goroutines.
	res.Warnings = append(res.Warnings, res.Clustering.Warnings...)
	if res.Graph.HasCycle() {
		res.Warnings = append(res.Warnings, "prerequisite graph still contains cycles")
	}
	return nil
}

// stage runs fn with consistent logging and timing.
// It checks for cancellation before starting, like the steps of a
// sequential pipeline.
func (b *Builder) stage(ctx context.Context, res *Result, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		b.logger.Warn("build cancelled",
			"stage", name,
			"client_id", res.Client.ID,
			"reason", err,
		)
		return err
	}

	b.logger.Info("executing stage",
		"stage", name,
		"client_id", res.Client.ID,
	)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	res.addTiming(name, elapsed)

	if err != nil {
		b.logger.Error("stage failed",
			"stage", name,
			"client_id", res.Client.ID,
			"error", err,
		)
		return err
	}
	b.logger.Debug("stage completed",
		"stage", name,
		"client_id", res.Client.ID,
		"elapsed", elapsed,
	)
	return nil
}
