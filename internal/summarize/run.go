package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/doctaxon/internal/model"
)

// DefaultConcurrency is the number of summaries requested in parallel.
const DefaultConcurrency = 4

// Failure records a cluster whose summary fell back to a synthetic one.
type Failure struct {
	ClusterID int
	Err       error
}

// Error implements error.
func (f Failure) Error() string {
	return fmt.Sprintf("cluster %d: %v", f.ClusterID, f.Err)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error {
	return f.Err
}

// RunOption configures SummarizeAll and Group.
type RunOption func(*runner)

// WithConcurrency limits parallel summary requests.
func WithConcurrency(n int) RunOption {
	return func(r *runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunOption {
	return func(r *runner) {
		r.logger = logger
	}
}

type runner struct {
	concurrency int
	logger      *slog.Logger
}

func newRunner(opts []RunOption) *runner {
	r := &runner{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// SummarizeAll summarizes every cluster with s. A failed or timed-out
// summary never aborts the others: the cluster receives
// model.FallbackSummary and a Failure is recorded. Failures are returned
// in cluster order.
//
// pagesOf returns the member pages to describe for a cluster, which lets
// the caller pass pages in reading order.
//
// Design decision: Goroutines never return an error to the errgroup, and
// the group is not bound to a derived context, so one failure cannot
// cancel sibling requests. Cancelling ctx still stops pending requests.
func SummarizeAll(
	ctx context.Context,
	s Summarizer,
	clusters []*model.Cluster,
	pagesOf func(*model.Cluster) []*model.Page,
	opts ...RunOption,
) (map[int]model.ClusterSummary, []Failure) {
	r := newRunner(opts)
	if pagesOf == nil {
		pagesOf = func(c *model.Cluster) []*model.Page { return c.Pages }
	}

	summaries := make(map[int]model.ClusterSummary, len(clusters))
	failed := make([]*Failure, len(clusters))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, c := range clusters {
		g.Go(func() error {
			var (
				summary model.ClusterSummary
				err     error
			)
			if err = ctx.Err(); err == nil {
				summary, err = s.Summarize(ctx, ClusterRequest{Cluster: c, Pages: pagesOf(c)})
			}
			if err != nil {
				r.logger.Warn("cluster summary failed, using fallback",
					"cluster_id", c.ID,
					"error", err,
				)
				summary = model.FallbackSummary(c, err)
			} else {
				r.logger.Debug("cluster summarized",
					"cluster_id", c.ID,
					"name", summary.Name,
					"size", c.Size,
				)
			}

			mu.Lock()
			summaries[c.ID] = summary
			if err != nil {
				failed[i] = &Failure{ClusterID: c.ID, Err: err}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Goroutines never return errors

	var failures []Failure
	for _, f := range failed {
		if f != nil {
			failures = append(failures, *f)
		}
	}
	return summaries, failures
}

// Group asks c for parent categories and resolves them to clusters. With
// a nil categorizer, a failed request, or no resolvable category, it
// returns the single fallback category holding every cluster. The error
// is non-nil only when c failed; the categories are usable either way.
func Group(
	ctx context.Context,
	c Categorizer,
	clusters []*model.Cluster,
	summaries map[int]model.ClusterSummary,
	opts ...RunOption,
) ([]model.Category, error) {
	r := newRunner(opts)

	ids := make([]int, 0, len(clusters))
	for _, cl := range clusters {
		ids = append(ids, cl.ID)
	}
	fallback := []model.Category{model.FallbackCategory(ids)}

	if c == nil || len(clusters) == 0 {
		return fallback, nil
	}

	refs := ModuleRefs(clusters, summaries)
	categories, err := c.Categorize(ctx, refs)
	if err != nil {
		r.logger.Warn("category grouping failed, using fallback", "error", err)
		return fallback, fmt.Errorf("failed to group modules: %w", err)
	}

	resolved := ResolveCategories(categories, refs)
	if len(resolved) == 0 {
		r.logger.Warn("no category matched a module, using fallback", "categories", len(categories))
		return fallback, nil
	}

	r.logger.Debug("grouped modules into categories", "categories", len(resolved))
	return resolved, nil
}
