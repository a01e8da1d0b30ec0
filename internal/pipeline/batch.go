package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/doctaxon/internal/model"
)

// DefaultBatchConcurrency is the number of clients built in parallel.
const DefaultBatchConcurrency = 2

// BatchResult is the outcome of one client's build.
type BatchResult struct {
	Client model.Client
	Result *Result
	Err    error
}

// BatchBuilder builds taxonomies for several clients concurrently.
// Builds for different clients share nothing.
//
// Design decision: BatchBuilder is separate from Builder so that each
// client gets its own Builder from the factory. Per-client configuration
// (cluster sizes, method, summarizer) lives in that Builder.
type BatchBuilder struct {
	// builderFactory creates the Builder for one client.
	builderFactory func(client model.Client) *Builder

	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchBuilder.
type BatchOption func(*BatchBuilder)

// WithBatchLogger sets a custom logger for batch-level logging.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(bb *BatchBuilder) {
		bb.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent builds.
func WithConcurrency(n int) BatchOption {
	return func(bb *BatchBuilder) {
		if n > 0 {
			bb.concurrency = n
		}
	}
}

// NewBatchBuilder creates a BatchBuilder. builderFactory is called once
// per input.
func NewBatchBuilder(builderFactory func(client model.Client) *Builder, opts ...BatchOption) *BatchBuilder {
	bb := &BatchBuilder{
		builderFactory: builderFactory,
		concurrency:    DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(bb)
	}
	if bb.logger == nil {
		bb.logger = slog.Default()
	}
	return bb
}

// BuildAll builds every input and returns one result per input, in input
// order. A failed build is recorded in its BatchResult and does not stop
// the others. The error is non-nil only when ctx was cancelled.
func (bb *BatchBuilder) BuildAll(ctx context.Context, inputs []Input) ([]BatchResult, error) {
	bb.logger.Info("starting batch build",
		"clients", len(inputs),
		"concurrency", bb.concurrency,
	)
	startTime := time.Now()

	results := make([]BatchResult, len(inputs))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(bb.concurrency)

	for i, in := range inputs {
		g.Go(func() error {
			br := BatchResult{Client: in.Client}
			if err := ctx.Err(); err != nil {
				br.Err = err
			} else {
				br.Result, br.Err = bb.builderFactory(in.Client).Build(ctx, in)
			}

			if br.Err != nil {
				bb.logger.Warn("build failed",
					"client_id", in.Client.ID,
					"error", br.Err,
				)
			} else {
				bb.logger.Info("build completed",
					"client_id", in.Client.ID,
					"index", i+1,
					"total", len(inputs),
				)
			}

			mu.Lock()
			results[i] = br
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Goroutines never return errors

	bb.logger.Info("batch build complete",
		"clients", len(inputs),
		"elapsed", time.Since(startTime),
	)
	return results, ctx.Err()
}
