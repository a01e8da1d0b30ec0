package model

import (
	"errors"
	"fmt"
	"strings"
)

// EmbeddingSource selects which page vectors become clustering units.
type EmbeddingSource string

const (
	// SourceLearningObjective averages each page's learning-objective
	// vectors into one vector per page.
	SourceLearningObjective EmbeddingSource = "learning_objective"

	// SourcePage uses the full-page vector, one unit per page.
	SourcePage EmbeddingSource = "page"

	// SourceSection uses one unit per section vector; a page may own
	// several units.
	SourceSection EmbeddingSource = "section"
)

// ErrUnknownEmbeddingSource is returned by ParseEmbeddingSource for
// unrecognized names.
var ErrUnknownEmbeddingSource = errors.New("unknown embedding source")

// ParseEmbeddingSource resolves a source name. Besides the canonical
// names it accepts the short CLI forms (lo, page, section, hybrid) and the
// page field names (learning_objective_embeddings, page_embedding,
// section_embeddings). "hybrid" maps to learning objectives.
func ParseEmbeddingSource(s string) (EmbeddingSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lo", "hybrid", "learning_objective", "learning-objective", "learning_objective_embeddings":
		return SourceLearningObjective, nil
	case "page", "page_embedding":
		return SourcePage, nil
	case "section", "section_embeddings":
		return SourceSection, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEmbeddingSource, s)
	}
}

// FieldName returns the page field the source reads from. This is the
// value reported as embedding_field in the taxonomy statistics.
func (s EmbeddingSource) FieldName() string {
	switch s {
	case SourcePage:
		return "page_embedding"
	case SourceSection:
		return "section_embeddings"
	default:
		return "learning_objective_embeddings"
	}
}

// String returns the canonical source name.
func (s EmbeddingSource) String() string {
	return string(s)
}

// UnitKind describes how a unit vector was derived.
type UnitKind string

const (
	UnitKindPage       UnitKind = "page"
	UnitKindPageFromLO UnitKind = "page_from_lo"
	UnitKindSection    UnitKind = "section"
)

// Unit is the atomic item that gets clustered.
// Every unit belongs to exactly one page; section units allow several
// units per page.
type Unit struct {
	// PageID is the owning page.
	PageID int64

	// Vector is the embedding. All units of one run share its length.
	Vector []float64

	// Meta is the denormalized metadata used to characterize clusters.
	Meta UnitMeta
}

// UnitMeta is the metadata carried with each unit.
type UnitMeta struct {
	Kind               UnitKind
	PageTitle          string
	PageURL            string
	DocType            string
	AIDocType          string
	AudienceLevel      string
	Topics             []Topic
	LearningObjectives []string

	// SectionHeading and SectionIndex are set for section units only.
	SectionHeading string
	SectionIndex   int

	// ObjectiveCount is the number of vectors averaged for
	// learning-objective units.
	ObjectiveCount int
}
