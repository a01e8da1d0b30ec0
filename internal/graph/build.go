package graph

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/doctaxon/internal/model"
)

// conceptIDLength bounds the normalized part of a concept node id.
const conceptIDLength = 50

// introducesWeight is the weight of page-to-page edges.
const introducesWeight = 2

// ImportanceWeight maps a prerequisite importance tier to an edge weight.
// Unknown tiers weigh like recommended ones.
func ImportanceWeight(importance string) float64 {
	switch importance {
	case ImportanceEssential:
		return 3
	case ImportanceOptional:
		return 1
	default:
		return 2
	}
}

// Option configures Build.
type Option func(*builder)

// WithLogger sets the logger used for cycle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

// WithCycleLimit sets how many cycles one repair pass handles.
func WithCycleLimit(n int) Option {
	return func(b *builder) {
		b.cycleLimit = n
	}
}

// WithRepairPasses sets how many times cycle detection and repair run.
// The default of one pass handles at most the cycle limit and leaves any
// further cycles in place.
func WithRepairPasses(n int) Option {
	return func(b *builder) {
		b.passes = n
	}
}

type builder struct {
	logger     *slog.Logger
	cycleLimit int
	passes     int
	fold       cases.Caser
	graph      *Graph
}

// Build constructs the prerequisite graph of pages.
//
//  1. Every page becomes a page node.
//  2. Every named prerequisite becomes a concept node with an edge to the
//     page that requires it, weighted by importance.
//  3. A page that uses a key concept (is_new=false) gets an edge from the
//     first page that introduces that concept (is_new=true).
//  4. Cycles are repaired with BreakCycles.
//
// The returned graph may still contain cycles when the repair budget is
// exhausted; check HasCycle.
func Build(pages []*model.Page, opts ...Option) *Graph {
	b := &builder{
		cycleLimit: DefaultCycleLimit,
		passes:     1,
		fold:       cases.Fold(),
		graph:      New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	for _, p := range pages {
		if p != nil {
			b.addPage(p)
		}
	}
	for _, p := range pages {
		if p != nil {
			b.addPrerequisites(p)
		}
	}
	b.addIntroductions(pages)

	if b.graph.HasCycle() {
		removed := b.graph.BreakCycles(b.cycleLimit, b.passes)
		for _, e := range removed {
			b.logger.Debug("removed edge to break cycle", "from", e.From, "to", e.To, "weight", e.Weight)
		}
		if b.graph.HasCycle() {
			b.logger.Warn("prerequisite graph still has cycles after repair",
				"removed", len(removed),
				"passes", b.passes,
			)
		}
	}

	b.logger.Debug("prerequisite graph built",
		"nodes", b.graph.NumNodes(),
		"edges", b.graph.NumEdges(),
	)
	return b.graph
}

func (b *builder) addPage(p *model.Page) {
	b.graph.AddNode(Node{
		ID:            PageNodeID(p.ID),
		Kind:          KindPage,
		Label:         p.Title,
		PageID:        p.ID,
		URL:           p.URL,
		DocType:       p.EffectiveDocType(),
		AudienceLevel: p.AudienceLevel,
	})
}

func (b *builder) addPrerequisites(p *model.Page) {
	for _, pr := range p.PrerequisiteChain {
		key := b.normalize(pr.Concept)
		if key == "" {
			continue
		}
		importance := strings.ToLower(strings.TrimSpace(pr.Importance))
		if importance == "" {
			importance = ImportanceRecommended
		}

		id := ConceptNodeID(key)
		b.graph.AddNode(Node{
			ID:         id,
			Kind:       KindConcept,
			Label:      strings.TrimSpace(pr.Concept),
			PrereqType: pr.Type,
		})
		b.graph.AddEdge(Edge{
			From:       id,
			To:         PageNodeID(p.ID),
			Relation:   RelationRequires,
			Importance: importance,
			PrereqType: pr.Type,
			Weight:     ImportanceWeight(importance),
		})
	}
}

func (b *builder) addIntroductions(pages []*model.Page) {
	introducer := make(map[string]int64)
	for _, p := range pages {
		if p == nil {
			continue
		}
		for _, kc := range p.KeyConcepts {
			if !kc.IsNew {
				continue
			}
			term := b.normalize(kc.Term)
			if term == "" {
				continue
			}
			if _, ok := introducer[term]; !ok {
				introducer[term] = p.ID
			}
		}
	}

	for _, p := range pages {
		if p == nil {
			continue
		}
		for _, kc := range p.KeyConcepts {
			if kc.IsNew {
				continue
			}
			term := b.normalize(kc.Term)
			src, ok := introducer[term]
			if !ok || src == p.ID {
				continue
			}
			b.graph.AddEdge(Edge{
				From:     PageNodeID(src),
				To:       PageNodeID(p.ID),
				Relation: RelationIntroduces,
				Concept:  term,
				Weight:   introducesWeight,
			})
		}
	}
}

// normalize folds case and trims a concept name.
func (b *builder) normalize(s string) string {
	return strings.TrimSpace(b.fold.String(norm.NFC.String(s)))
}

// ConceptNodeID returns the node id for a normalized concept name. Spaces
// become underscores and the name is cut to 50 runes.
func ConceptNodeID(normalized string) string {
	key := strings.ReplaceAll(normalized, " ", "_")
	if r := []rune(key); len(r) > conceptIDLength {
		key = string(r[:conceptIDLength])
	}
	return "concept_" + key
}
