package summarize

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/doctaxon/internal/model"
)

var (
	// ErrMissingAPIKey is returned by NewOpenAI without an API key.
	ErrMissingAPIKey = errors.New("missing OpenAI API key")

	// ErrEmptyResponse is returned when the service answered without content.
	ErrEmptyResponse = errors.New("empty response from summarization service")

	// ErrMalformedResponse is returned when the answer is not the expected JSON.
	ErrMalformedResponse = errors.New("malformed response from summarization service")
)

// Summarizer describes clusters in human terms.
//
// Design decision: Summarizer and Categorizer are separate one-method
// interfaces so a build can use a remote summarizer with no categorizer,
// and tests can fake either side alone.
type Summarizer interface {
	Summarize(ctx context.Context, req ClusterRequest) (model.ClusterSummary, error)
}

// Categorizer groups modules into parent categories.
type Categorizer interface {
	Categorize(ctx context.Context, modules []ModuleRef) ([]model.Category, error)
}

// ClusterRequest is the input of one summary.
type ClusterRequest struct {
	Cluster *model.Cluster

	// Pages are the member pages in the order they should be shown.
	Pages []*model.Page
}

// ModuleRef identifies a module for grouping.
type ModuleRef struct {
	ClusterID    int
	Name         string
	PrimaryTopic string

	// TopicCategory is the most common topic category among member pages.
	TopicCategory string
}

// ModuleName returns the summary name of a cluster, or "Module {id}" when
// the cluster has no summary.
func ModuleName(c *model.Cluster, summaries map[int]model.ClusterSummary) string {
	if s, ok := summaries[c.ID]; ok && s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Module %d", c.ID)
}

// ModuleRefs describes clusters for a Categorizer.
func ModuleRefs(clusters []*model.Cluster, summaries map[int]model.ClusterSummary) []ModuleRef {
	refs := make([]ModuleRef, 0, len(clusters))
	for _, c := range clusters {
		refs = append(refs, ModuleRef{
			ClusterID:     c.ID,
			Name:          ModuleName(c, summaries),
			PrimaryTopic:  c.PrimaryTopic,
			TopicCategory: topicCategory(c),
		})
	}
	return refs
}

// topicCategory returns the most frequent non-empty topic category of c.
// Ties go to the category seen first.
func topicCategory(c *model.Cluster) string {
	counts := make(map[string]int)
	best := ""
	for _, t := range c.Topics {
		if t.Category == "" {
			continue
		}
		counts[t.Category]++
		if best == "" || counts[t.Category] > counts[best] {
			best = t.Category
		}
	}
	return best
}
