package model

import "fmt"

// Default cluster characteristics used when member metadata is missing.
const (
	DefaultPrimaryTopic    = "Unknown"
	DefaultPrimaryDocType  = "unknown"
	DefaultPrimaryAudience = "intermediate"
)

// Cluster is a group of semantically related pages produced by one
// clustering run. Cluster ids are only stable within that run.
//
// A cluster is immutable after creation. Human summaries are attached
// separately through ClusterSummary keyed by ID.
type Cluster struct {
	// ID is the clustering label.
	ID int `json:"cluster_id"`

	// Size is the number of distinct member pages.
	Size int `json:"size"`

	// UnitCount is the number of embedding units labelled with ID.
	// It exceeds Size when several sections of one page fall in the cluster.
	UnitCount int `json:"unit_count"`

	// PageIDs lists member pages in first-seen order, without duplicates.
	PageIDs []int64 `json:"page_ids"`

	// Pages holds the member pages in the same order as PageIDs.
	Pages []*Page `json:"-"`

	PrimaryTopic    string `json:"primary_topic"`
	PrimaryDocType  string `json:"primary_doc_type"`
	PrimaryAudience string `json:"primary_audience"`

	// LearningObjectives aggregates objective texts of member units.
	LearningObjectives []string `json:"learning_objectives,omitempty"`

	// Topics aggregates topic tags of member units.
	Topics []Topic `json:"topics,omitempty"`

	// Cohesion is the mean pairwise cosine similarity of member vectors.
	// It is 1.0 for a cluster with a single unit.
	Cohesion float64 `json:"cohesion"`
}

// ClusterSummary is the human-facing description of a cluster.
type ClusterSummary struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	LearningOutcomes []string `json:"learning_outcomes,omitempty"`
	Prerequisites    []string `json:"prerequisites,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`

	// EstimatedHours is nil when the summarizer gave no estimate.
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`

	// SuggestedOrder optionally lists page titles in a preferred order.
	SuggestedOrder []string `json:"suggested_order,omitempty"`

	// Error records why the summary is a fallback. Empty on success.
	Error string `json:"error,omitempty"`
}

// FallbackSummary returns the summary used when no summarizer result is
// available for a cluster.
func FallbackSummary(c *Cluster, cause error) ClusterSummary {
	s := ClusterSummary{
		Name:        fmt.Sprintf("Cluster %d", c.ID),
		Description: fmt.Sprintf("Group of %d related pages", c.Size),
	}
	if cause != nil {
		s.Error = cause.Error()
	}
	return s
}

// Category is a parent grouping of modules.
type Category struct {
	Name             string   `json:"name"`
	Overview         string   `json:"overview"`
	TargetAudience   string   `json:"target_audience"`
	KeyTechnologies  []string `json:"key_technologies"`
	Prerequisites    []string `json:"prerequisites"`
	LearningOutcomes []string `json:"learning_outcomes"`

	// ModuleNames are the module names assigned to this category.
	ModuleNames []string `json:"module_names,omitempty"`

	// ClusterIDs are the clusters resolved from ModuleNames.
	ClusterIDs []int `json:"cluster_ids,omitempty"`
}

// FallbackCategoryName is the name of the single category used when no
// category grouping is available.
const FallbackCategoryName = "Documentation"

// FallbackCategory returns the synthetic category holding the given clusters.
func FallbackCategory(clusterIDs []int) Category {
	return Category{
		Name:             FallbackCategoryName,
		Overview:         "All documentation modules",
		KeyTechnologies:  []string{},
		Prerequisites:    []string{},
		LearningOutcomes: []string{},
		ClusterIDs:       clusterIDs,
	}
}

// Client is the owner of a documentation site.
type Client struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DisplayName returns the client name, or "Client {id}" when unset.
func (c *Client) DisplayName() string {
	if c == nil {
		return "Client"
	}
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("Client %d", c.ID)
}

// FileSlug returns the slug used in exported file names, or
// "client_{id}" when unset.
func (c *Client) FileSlug() string {
	if c == nil {
		return "client"
	}
	if c.Slug != "" {
		return c.Slug
	}
	return fmt.Sprintf("client_%d", c.ID)
}
