package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/doctaxon/internal/cluster"
	"github.com/nao1215/doctaxon/internal/model"
	"github.com/nao1215/doctaxon/internal/summarize"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixturePages returns 20 pages in four well separated groups of five.
// The first page of each group introduces the group concept and the
// others require it.
func fixturePages() []*model.Page {
	pages := make([]*model.Page, 0, 20)
	for g := range 4 {
		concept := fmt.Sprintf("Group %d basics", g)
		for j := range 5 {
			vec := make([]float64, 4)
			vec[g] = 10
			vec[(g+1)%4] = 0.1 * float64(j)

			p := &model.Page{
				ID:            int64(g*5 + j + 1),
				ClientID:      1,
				URL:           fmt.Sprintf("https://docs.example.com/%d/%d", g, j),
				Title:         fmt.Sprintf("Page %d-%d", g, j),
				DocType:       "guide",
				AudienceLevel: "beginner",
				PageEmbedding: vec,
			}
			if j == 0 {
				p.KeyConcepts = []model.KeyConcept{{Term: concept, IsNew: true}}
			} else {
				p.PrerequisiteChain = []model.Prerequisite{{Concept: concept, Importance: "essential"}}
			}
			pages = append(pages, p)
		}
	}
	return pages
}

func fixtureInput() Input {
	return Input{
		Client: model.Client{ID: 1, Name: "Acme", Slug: "acme"},
		Pages:  fixturePages(),
		Source: model.SourcePage,
	}
}

type failingSummarizer struct {
	calls atomic.Int32
}

func (f *failingSummarizer) Summarize(context.Context, summarize.ClusterRequest) (model.ClusterSummary, error) {
	f.calls.Add(1)
	return model.ClusterSummary{}, errors.New("service unavailable")
}

type failingCategorizer struct{}

func (failingCategorizer) Categorize(context.Context, []summarize.ModuleRef) ([]model.Category, error) {
	return nil, errors.New("service unavailable")
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	b := New(
		WithLogger(discard()),
		WithSelector(cluster.NewSelector(cluster.WithSizeBounds(3, 8), cluster.WithLogger(discard()))),
		WithSummarizer(summarize.Stub{}),
		WithCategorizer(summarize.Stub{}),
	)
	res, err := b.Build(context.Background(), fixtureInput())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if n := len(res.Clusters); n < 3 || n > 6 {
		t.Errorf("len(Clusters) = %d, want 3..6", n)
	}
	if res.Degenerate() {
		t.Error("Degenerate() = true")
	}

	seen := make(map[int64]bool)
	for _, c := range res.Clusters {
		for _, id := range c.PageIDs {
			if seen[id] {
				t.Errorf("page %d in more than one cluster", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 20 {
		t.Errorf("clustered pages = %d, want 20", len(seen))
	}

	tax := res.Taxonomy
	if tax.Statistics.TotalPages != 20 {
		t.Errorf("TotalPages = %d, want 20", tax.Statistics.TotalPages)
	}
	if got := len(tax.AllModules()); got != len(res.Clusters) {
		t.Errorf("modules = %d, want %d", got, len(res.Clusters))
	}
	if tax.Metadata.ClusteringMethod != "kmeans" || tax.Metadata.MinClusterSize != 3 || tax.Metadata.MaxClusterSize != 8 {
		t.Errorf("metadata = %+v", tax.Metadata)
	}
	if tax.Statistics.EmbeddingField != "page_embedding" {
		t.Errorf("EmbeddingField = %q", tax.Statistics.EmbeddingField)
	}

	if res.Graph == nil || res.Graph.Stats().ConceptNodes != 4 {
		t.Errorf("graph = %+v", res.Graph)
	}
	if len(res.Summaries) != len(res.Clusters) || len(res.Failures) != 0 {
		t.Errorf("summaries = %d, failures = %d", len(res.Summaries), len(res.Failures))
	}

	var stages []string
	for _, st := range res.Timings {
		stages = append(stages, st.Stage)
	}
	for _, want := range []string{StageAggregate, StageCluster, StageGraph, StageSummarize, StageGroup, StageAssemble} {
		if !slices.Contains(stages, want) {
			t.Errorf("missing timing for stage %q in %v", want, stages)
		}
	}
}

func TestBuilder_Build_Errors(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	noVectors := fixtureInput()
	for _, p := range noVectors.Pages {
		p.PageEmbedding = nil
	}

	tests := []struct {
		name    string
		ctx     context.Context
		input   Input
		wantErr error
	}{
		{name: "no pages", ctx: context.Background(), input: Input{Source: model.SourcePage}, wantErr: ErrNoPages},
		{name: "no embeddings", ctx: context.Background(), input: noVectors, wantErr: ErrNoEmbeddings},
		{name: "cancelled", ctx: cancelled, input: fixtureInput(), wantErr: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(WithLogger(discard())).Build(tt.ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilder_Build_Degenerate(t *testing.T) {
	t.Parallel()

	sel := cluster.NewSelector(
		cluster.WithMethod(cluster.MethodDBSCAN),
		cluster.WithMinSamples(6),
		cluster.WithLogger(discard()),
	)
	res, err := New(WithLogger(discard()), WithSelector(sel)).Build(context.Background(), fixtureInput())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !res.Degenerate() {
		t.Fatalf("Degenerate() = false, clusters = %d", len(res.Clusters))
	}
	if res.Taxonomy == nil || res.Taxonomy.Statistics.TotalTopics != 0 {
		t.Errorf("taxonomy = %+v", res.Taxonomy)
	}
	if len(res.Taxonomy.Metadata.Warnings) == 0 {
		t.Error("expected warnings in metadata")
	}
}

func TestBuilder_Build_SummaryFallback(t *testing.T) {
	t.Parallel()

	s := &failingSummarizer{}
	res, err := New(
		WithLogger(discard()),
		WithSummarizer(s),
		WithCategorizer(failingCategorizer{}),
		WithSummaryConcurrency(2),
	).Build(context.Background(), fixtureInput())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if int(s.calls.Load()) != len(res.Clusters) {
		t.Errorf("summarizer calls = %d, want %d", s.calls.Load(), len(res.Clusters))
	}
	if len(res.Failures) != len(res.Clusters) {
		t.Errorf("failures = %d, want %d", len(res.Failures), len(res.Clusters))
	}
	for _, m := range res.Taxonomy.AllModules() {
		if !strings.HasPrefix(m.Name, "Cluster ") {
			t.Errorf("module name = %q, want fallback name", m.Name)
		}
	}

	topics := res.Taxonomy.Taxonomy.RootTopics
	if len(topics) != 1 || topics[0].Name != model.FallbackCategoryName {
		t.Errorf("topics = %+v", topics)
	}
	if !slices.ContainsFunc(res.Warnings, func(w string) bool { return strings.Contains(w, "category grouping") }) {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestBuilder_Build_WithoutSummarizer(t *testing.T) {
	t.Parallel()

	res, err := New(WithLogger(discard())).Build(context.Background(), fixtureInput())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(res.Summaries) != 0 {
		t.Errorf("summaries = %d, want 0", len(res.Summaries))
	}
	for _, m := range res.Taxonomy.AllModules() {
		if !strings.HasPrefix(m.Name, "Module ") {
			t.Errorf("module name = %q", m.Name)
		}
	}
}
