package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown/mermaid/flowchart"

	"github.com/nao1215/doctaxon/internal/graph"
)

// Node label limits shared by the diagram exporters.
const (
	pageLabelLimit    = 40
	conceptLabelLimit = 30
)

// MermaidExporter writes the prerequisite graph as a top-down mermaid
// flowchart. Pages are boxes and concepts are rhombi. Essential
// prerequisites are thick links, recommended ones plain arrows, and
// everything else dotted.
type MermaidExporter struct{}

// NewMermaidExporter creates a MermaidExporter.
func NewMermaidExporter() *MermaidExporter {
	return &MermaidExporter{}
}

// Format implements Exporter.
func (e *MermaidExporter) Format() Format {
	return FormatMermaid
}

// Export implements Exporter.
func (e *MermaidExporter) Export(_ context.Context, w io.Writer, a *Artifacts) error {
	fc := flowchart.NewFlowchart(io.Discard, flowchart.WithOrientalTopToBottom())
	if a.Graph == nil {
		_, err := io.WriteString(w, fc.String())
		return err
	}

	ids := newMermaidIDs()
	for _, n := range a.Graph.Nodes() {
		id := ids.get(n.ID)
		switch n.Kind {
		case graph.KindConcept:
			fc.RhombusNode(id, mermaidText(truncate(n.Label, conceptLabelLimit)))
		default:
			fc.NodeWithText(id, mermaidText(truncate(n.Label, pageLabelLimit)))
		}
	}

	for _, e := range a.Graph.Edges() {
		from, to := ids.get(e.From), ids.get(e.To)
		switch e.Importance {
		case graph.ImportanceEssential:
			fc.ThickLink(from, to)
		case graph.ImportanceRecommended:
			fc.LinkWithArrowHead(from, to)
		default:
			fc.DottedLink(from, to)
		}
	}

	_, err := io.WriteString(w, fc.String())
	return err
}

// mermaidIDs maps graph node ids to identifiers mermaid accepts.
// Concept ids are derived from free text and may contain punctuation.
type mermaidIDs struct {
	byNode map[string]string
	taken  map[string]bool
}

func newMermaidIDs() *mermaidIDs {
	return &mermaidIDs{
		byNode: make(map[string]string),
		taken:  make(map[string]bool),
	}
}

func (m *mermaidIDs) get(nodeID string) string {
	if id, ok := m.byNode[nodeID]; ok {
		return id
	}

	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, nodeID)

	id := base
	for i := 2; m.taken[id]; i++ {
		id = fmt.Sprintf("%s_%d", base, i)
	}
	m.taken[id] = true
	m.byNode[nodeID] = id
	return id
}

// mermaidText escapes characters that end a quoted mermaid label.
func mermaidText(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
