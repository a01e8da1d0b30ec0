package model

import (
	"encoding/json"
	"strings"
)

// Page represents one analyzed documentation page.
// Pages are produced by the crawler and the AI content analyzer; the
// taxonomy builder only reads them.
//
// Design decision: JSON field names follow the analyzer's export format
// (ai_topics, ai_prerequisite_chain, ...) so that exported page dumps and
// database rows can be decoded without a translation layer.
type Page struct {
	// ID is the page identifier assigned by the crawler.
	ID int64 `json:"id"`

	// ClientID identifies the client whose documentation this page belongs to.
	ClientID int64 `json:"client_id"`

	// URL is the canonical page URL.
	URL string `json:"url"`

	// Title is the page title.
	Title string `json:"title"`

	// DocType is the heuristic document type assigned by the crawler.
	DocType string `json:"doc_type,omitempty"`

	// AIDocType is the document type assigned by the AI analyzer.
	// It takes precedence over DocType when set.
	AIDocType string `json:"ai_doc_type,omitempty"`

	// AudienceLevel is the AI-classified audience level
	// (beginner, intermediate, advanced). Empty when unknown.
	AudienceLevel string `json:"ai_audience_level,omitempty"`

	// Summary is a one or two sentence AI summary of the page.
	Summary string `json:"ai_summary,omitempty"`

	// PageEmbedding is the full-page vector. Empty when not computed.
	PageEmbedding []float64 `json:"page_embedding,omitempty"`

	// SectionEmbeddings holds one vector per semantic section.
	SectionEmbeddings []SectionEmbedding `json:"section_embeddings,omitempty"`

	// ObjectiveEmbeddings holds one vector per learning objective.
	ObjectiveEmbeddings []ObjectiveEmbedding `json:"learning_objective_embeddings,omitempty"`

	// LearningObjectives are the structured learning objectives of the page.
	LearningObjectives []LearningObjective `json:"ai_learning_objectives,omitempty"`

	// PrerequisiteChain lists the concepts a reader must know beforehand.
	PrerequisiteChain []Prerequisite `json:"ai_prerequisite_chain,omitempty"`

	// KeyConcepts lists concepts introduced or used by the page.
	KeyConcepts []KeyConcept `json:"ai_key_concepts,omitempty"`

	// Topics are hierarchical topic tags.
	Topics []Topic `json:"ai_topics,omitempty"`

	// Quality holds the analyzer's content quality assessment.
	Quality *QualityIndicators `json:"ai_quality_indicators,omitempty"`

	// EEAT holds authorship and trust signals.
	EEAT *EEATSignals `json:"eeat,omitempty"`

	// RAG holds navigation and retrieval context.
	RAG *RAGContext `json:"rag,omitempty"`

	// Extra keeps source-supplied values that have no typed home.
	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// SectionEmbedding is the vector of one semantic section of a page.
type SectionEmbedding struct {
	Index     int       `json:"index"`
	Heading   string    `json:"heading,omitempty"`
	Level     int       `json:"level,omitempty"`
	Content   string    `json:"content,omitempty"`
	Embedding []float64 `json:"embedding,omitempty"`
}

// ObjectiveEmbedding is the vector of one learning objective.
type ObjectiveEmbedding struct {
	Objective            string    `json:"objective"`
	BloomLevel           string    `json:"bloom_level,omitempty"`
	BloomVerb            string    `json:"bloom_verb,omitempty"`
	Difficulty           string    `json:"difficulty,omitempty"`
	EstimatedTimeMinutes *int      `json:"estimated_time_minutes,omitempty"`
	Embedding            []float64 `json:"embedding,omitempty"`
}

// LearningObjective is a structured learning objective.
type LearningObjective struct {
	Objective            string `json:"objective"`
	BloomLevel           string `json:"bloom_level,omitempty"`
	BloomVerb            string `json:"bloom_verb,omitempty"`
	Difficulty           string `json:"difficulty,omitempty"`
	EstimatedTimeMinutes *int   `json:"estimated_time_minutes,omitempty"`
	Measurable           bool   `json:"measurable,omitempty"`
}

// Prerequisite is one entry of a page's prerequisite chain.
type Prerequisite struct {
	// Concept is the name of the required concept.
	Concept string `json:"concept"`

	// Type is the requirement type (knowledge, skill, tool, ...).
	Type string `json:"type,omitempty"`

	// Importance is essential, recommended or optional.
	Importance string `json:"importance,omitempty"`

	Description string `json:"description,omitempty"`
}

// KeyConcept is a concept that a page either introduces or assumes.
type KeyConcept struct {
	Term       string `json:"term"`
	Definition string `json:"definition,omitempty"`

	// IsNew reports whether the page introduces the concept.
	// When false the page assumes the reader already knows it.
	IsNew bool `json:"is_new"`
}

// Topic is a hierarchical topic tag.
type Topic struct {
	Name          string   `json:"name"`
	Relevance     float64  `json:"relevance,omitempty"`
	Category      string   `json:"category,omitempty"`
	ParentTopic   string   `json:"parent_topic,omitempty"`
	ChildTopics   []string `json:"child_topics,omitempty"`
	RelatedTopics []string `json:"related_topics,omitempty"`
}

// QualityIndicators is the analyzer's content quality assessment.
type QualityIndicators struct {
	CompletenessScore     float64  `json:"completeness_score,omitempty"`
	NeedsCodeExamples     bool     `json:"needs_code_examples,omitempty"`
	NeedsVisuals          bool     `json:"needs_visuals,omitempty"`
	SuggestedImprovements []string `json:"suggested_improvements,omitempty"`
}

// EEATSignals groups experience, expertise, authority and trust signals.
type EEATSignals struct {
	Author         string `json:"author,omitempty"`
	AuthorBio      string `json:"author_bio,omitempty"`
	PublishedDate  string `json:"published_date,omitempty"`
	ReviewedBy     string `json:"reviewed_by,omitempty"`
	ReferenceCount int    `json:"reference_count,omitempty"`
}

// RAGContext groups navigation signals useful for retrieval.
type RAGContext struct {
	Breadcrumb           []string `json:"breadcrumb,omitempty"`
	NavigationTitle      string   `json:"navigation_title,omitempty"`
	WordCount            int      `json:"word_count,omitempty"`
	EstimatedReadingTime int      `json:"estimated_reading_time,omitempty"`
	HasTLDR              bool     `json:"has_tldr,omitempty"`
}

// EffectiveDocType returns the AI document type when present, then the
// crawler document type, and finally "unknown".
func (p *Page) EffectiveDocType() string {
	if t := strings.TrimSpace(p.AIDocType); t != "" {
		return t
	}
	if t := strings.TrimSpace(p.DocType); t != "" {
		return t
	}
	return string(DocTypeUnknown)
}

// Difficulty returns the page's audience level as a Difficulty.
// Unknown or empty levels map to DifficultyIntermediate.
func (p *Page) Difficulty() Difficulty {
	return ParseDifficulty(p.AudienceLevel)
}

// PrerequisiteCount returns the number of prerequisite entries that
// name a concept.
func (p *Page) PrerequisiteCount() int {
	n := 0
	for _, pr := range p.PrerequisiteChain {
		if strings.TrimSpace(pr.Concept) != "" {
			n++
		}
	}
	return n
}

// ObjectiveTexts returns the text of every learning objective.
// Objectives attached to embeddings are preferred because they are the
// ones that contributed vectors.
func (p *Page) ObjectiveTexts() []string {
	texts := make([]string, 0, len(p.ObjectiveEmbeddings)+len(p.LearningObjectives))
	if len(p.ObjectiveEmbeddings) > 0 {
		for _, o := range p.ObjectiveEmbeddings {
			texts = append(texts, o.Objective)
		}
		return texts
	}
	for _, o := range p.LearningObjectives {
		texts = append(texts, o.Objective)
	}
	return texts
}
