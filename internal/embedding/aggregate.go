package embedding

import (
	"errors"
	"log/slog"

	"github.com/nao1215/doctaxon/internal/model"
)

// ErrNoEmbeddings is returned when no page contributes a clustering unit
// for the selected source. It indicates missing upstream data, not a
// failure of the aggregator.
var ErrNoEmbeddings = errors.New("no embeddings available")

// Result is the output of Aggregate. Units are index-aligned with the
// rows returned by Matrix.
type Result struct {
	// Source is the embedding source that produced the units.
	Source model.EmbeddingSource

	// Units are the clustering units in page order.
	Units []model.Unit

	// Dimension is the vector length shared by every unit.
	Dimension int

	// Dropped counts candidate vectors skipped because their dimension did
	// not match Dimension.
	Dropped int
}

// Matrix returns the unit vectors as rows. The rows alias the unit
// vectors and must not be modified.
func (r *Result) Matrix() [][]float64 {
	m := make([][]float64, len(r.Units))
	for i := range r.Units {
		m[i] = r.Units[i].Vector
	}
	return m
}

// PageCount returns the number of distinct pages owning at least one unit.
func (r *Result) PageCount() int {
	seen := make(map[int64]struct{}, len(r.Units))
	for _, u := range r.Units {
		seen[u.PageID] = struct{}{}
	}
	return len(seen)
}

// Option configures Aggregate.
type Option func(*aggregator)

// WithLogger sets the logger used for dropped-vector diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *aggregator) {
		a.logger = logger
	}
}

type aggregator struct {
	logger *slog.Logger
	result *Result
}

// Aggregate converts per-page signals into one fixed-length vector per
// clustering unit.
//
//   - SourcePage: one unit per page with a non-empty page vector.
//   - SourceLearningObjective: one unit per page with at least one
//     objective vector; the unit vector is the element-wise mean of the
//     page's objective vectors.
//   - SourceSection: one unit per section with a vector, so a page may own
//     several units.
//
// Pages without embeddable content contribute nothing; no zero vectors are
// ever produced. ErrNoEmbeddings is returned when the result is empty.
func Aggregate(pages []*model.Page, source model.EmbeddingSource, opts ...Option) (*Result, error) {
	a := &aggregator{
		result: &Result{Source: source},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	for _, p := range pages {
		if p == nil {
			continue
		}
		switch source {
		case model.SourcePage:
			a.addPage(p)
		case model.SourceSection:
			a.addSections(p)
		default:
			a.addObjectives(p)
		}
	}

	if len(a.result.Units) == 0 {
		return nil, ErrNoEmbeddings
	}

	if a.result.Dropped > 0 {
		a.logger.Warn("dropped vectors with mismatched dimension",
			"dropped", a.result.Dropped,
			"dimension", a.result.Dimension,
			"source", source,
		)
	}
	a.logger.Debug("prepared embeddings",
		"units", len(a.result.Units),
		"pages", a.result.PageCount(),
		"source", source,
	)

	return a.result, nil
}

// accept reports whether v fits the run's dimension, fixing the
// dimension on the first vector.
func (a *aggregator) accept(v []float64) bool {
	if len(v) == 0 {
		return false
	}
	if a.result.Dimension == 0 {
		a.result.Dimension = len(v)
		return true
	}
	if len(v) != a.result.Dimension {
		a.result.Dropped++
		return false
	}
	return true
}

func (a *aggregator) addPage(p *model.Page) {
	if !a.accept(p.PageEmbedding) {
		return
	}
	meta := pageMeta(p, model.UnitKindPage)
	meta.LearningObjectives = p.ObjectiveTexts()
	a.result.Units = append(a.result.Units, model.Unit{
		PageID: p.ID,
		Vector: Clone(p.PageEmbedding),
		Meta:   meta,
	})
}

func (a *aggregator) addObjectives(p *model.Page) {
	vectors := make([][]float64, 0, len(p.ObjectiveEmbeddings))
	for _, o := range p.ObjectiveEmbeddings {
		if len(o.Embedding) > 0 {
			vectors = append(vectors, o.Embedding)
		}
	}
	mean, n := Mean(vectors)
	if n == 0 {
		return
	}
	a.result.Dropped += len(vectors) - n
	if !a.accept(mean) {
		return
	}

	meta := pageMeta(p, model.UnitKindPageFromLO)
	meta.ObjectiveCount = n
	meta.LearningObjectives = make([]string, 0, len(p.ObjectiveEmbeddings))
	for _, o := range p.ObjectiveEmbeddings {
		meta.LearningObjectives = append(meta.LearningObjectives, o.Objective)
	}
	a.result.Units = append(a.result.Units, model.Unit{
		PageID: p.ID,
		Vector: mean,
		Meta:   meta,
	})
}

func (a *aggregator) addSections(p *model.Page) {
	for _, s := range p.SectionEmbeddings {
		if !a.accept(s.Embedding) {
			continue
		}
		meta := pageMeta(p, model.UnitKindSection)
		meta.SectionHeading = s.Heading
		meta.SectionIndex = s.Index
		a.result.Units = append(a.result.Units, model.Unit{
			PageID: p.ID,
			Vector: Clone(s.Embedding),
			Meta:   meta,
		})
	}
}

func pageMeta(p *model.Page, kind model.UnitKind) model.UnitMeta {
	return model.UnitMeta{
		Kind:          kind,
		PageTitle:     p.Title,
		PageURL:       p.URL,
		DocType:       p.DocType,
		AIDocType:     p.AIDocType,
		AudienceLevel: p.AudienceLevel,
		Topics:        p.Topics,
	}
}
