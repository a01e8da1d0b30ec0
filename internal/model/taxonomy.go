package model

import "time"

// Taxonomy is the root output of a build.
// It is created once per build, exported, and then discarded.
type Taxonomy struct {
	ClientID    int64              `json:"client_id"`
	ClientName  string             `json:"client_name"`
	GeneratedAt time.Time          `json:"generated_at"`
	Statistics  TaxonomyStatistics `json:"statistics"`
	Taxonomy    TaxonomyTree       `json:"taxonomy"`
	Metadata    TaxonomyMetadata   `json:"metadata"`
}

// TaxonomyStatistics summarizes the whole build.
type TaxonomyStatistics struct {
	TotalPages     int     `json:"total_pages"`
	TotalClusters  int     `json:"total_clusters"`
	TotalTopics    int     `json:"total_topics"`
	AvgClusterSize float64 `json:"avg_cluster_size"`
	AvgCohesion    float64 `json:"avg_cohesion"`
	EmbeddingField string  `json:"embedding_field"`
}

// TaxonomyTree holds the root topics.
type TaxonomyTree struct {
	RootTopics []RootTopic `json:"root_topics"`
}

// TaxonomyMetadata records the parameters the build actually used.
type TaxonomyMetadata struct {
	ClusteringMethod string   `json:"clustering_method"`
	MinClusterSize   int      `json:"min_cluster_size"`
	MaxClusterSize   int      `json:"max_cluster_size"`
	NClusters        int      `json:"n_clusters"`
	BuildID          string   `json:"build_id,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
}

// RootTopic is a parent category with its modules.
type RootTopic struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Overview         string          `json:"overview"`
	TargetAudience   string          `json:"target_audience"`
	KeyTechnologies  []string        `json:"key_technologies"`
	Prerequisites    []string        `json:"prerequisites"`
	LearningOutcomes []string        `json:"learning_outcomes"`
	Clusters         []Module        `json:"clusters"`
	Statistics       TopicStatistics `json:"statistics"`
}

// TopicStatistics aggregates the modules of one root topic.
type TopicStatistics struct {
	TotalPages          int            `json:"total_pages"`
	TotalModules        int            `json:"total_modules"`
	DifficultyBreakdown map[string]int `json:"difficulty_breakdown"`
	PrimaryDifficulty   string         `json:"primary_difficulty"`

	// ContentTypes holds up to three most common page document types.
	ContentTypes map[string]int `json:"content_types"`

	EstimatedHours float64 `json:"estimated_hours"`
	AvgCohesion    float64 `json:"avg_cohesion"`
}

// Module is one cluster placed under a root topic.
type Module struct {
	ID               string       `json:"id"`
	ClusterID        int          `json:"cluster_id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Difficulty       string       `json:"difficulty"`
	EstimatedHours   float64      `json:"estimated_hours"`
	Prerequisites    []string     `json:"prerequisites"`
	LearningOutcomes []string     `json:"learning_outcomes"`
	PrimaryTopic     string       `json:"primary_topic"`
	Cohesion         float64      `json:"cohesion"`
	Pages            []ModulePage `json:"pages"`
}

// ModulePage is a page as listed inside a module, in learning order.
type ModulePage struct {
	PageID             int64               `json:"page_id"`
	Title              string              `json:"title"`
	URL                string              `json:"url"`
	DocType            string              `json:"doc_type"`
	AIDocType          string              `json:"ai_doc_type"`
	AudienceLevel      string              `json:"audience_level"`
	Summary            string              `json:"summary"`
	LearningObjectives []LearningObjective `json:"learning_objectives"`
	Prerequisites      []Prerequisite      `json:"prerequisites"`
	KeyConcepts        []KeyConcept        `json:"key_concepts"`
	Topics             []Topic             `json:"topics"`
}

// NewModulePage projects a page into its module listing form.
// Nil slices are replaced by empty ones so that JSON output always
// contains arrays.
func NewModulePage(p *Page) ModulePage {
	mp := ModulePage{
		PageID:             p.ID,
		Title:              p.Title,
		URL:                p.URL,
		DocType:            p.DocType,
		AIDocType:          p.EffectiveDocType(),
		AudienceLevel:      p.AudienceLevel,
		Summary:            p.Summary,
		LearningObjectives: p.LearningObjectives,
		Prerequisites:      p.PrerequisiteChain,
		KeyConcepts:        p.KeyConcepts,
		Topics:             p.Topics,
	}
	if mp.LearningObjectives == nil {
		mp.LearningObjectives = []LearningObjective{}
	}
	if mp.Prerequisites == nil {
		mp.Prerequisites = []Prerequisite{}
	}
	if mp.KeyConcepts == nil {
		mp.KeyConcepts = []KeyConcept{}
	}
	if mp.Topics == nil {
		mp.Topics = []Topic{}
	}
	return mp
}

// AllModules returns every module across root topics in order.
func (t *Taxonomy) AllModules() []Module {
	var modules []Module
	for _, rt := range t.Taxonomy.RootTopics {
		modules = append(modules, rt.Clusters...)
	}
	return modules
}
