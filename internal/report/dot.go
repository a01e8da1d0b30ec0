package report

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-graphviz"

	"github.com/nao1215/doctaxon/internal/graph"
)

// formatCanon is the graphviz renderer that prints the input graph in
// DOT syntax without layout attributes.
const formatCanon graphviz.Format = "canon"

// DOTExporter writes the prerequisite graph in DOT. Nodes carry only a
// label attribute and edges are unlabeled, so the file can be laid out by
// any graphviz tool.
type DOTExporter struct{}

// NewDOTExporter creates a DOTExporter.
func NewDOTExporter() *DOTExporter {
	return &DOTExporter{}
}

// Format implements Exporter.
func (e *DOTExporter) Format() Format {
	return FormatDOT
}

// Export implements Exporter.
func (e *DOTExporter) Export(ctx context.Context, w io.Writer, a *Artifacts) error {
	return renderGraph(ctx, a.Graph, formatCanon, w)
}

// ImageExporter lays out the prerequisite graph with dot and renders it
// as PNG or SVG.
type ImageExporter struct {
	format Format
}

// NewImageExporter creates an ImageExporter for FormatPNG or FormatSVG.
func NewImageExporter(format Format) (*ImageExporter, error) {
	if _, err := ParseImageFormat(string(format)); err != nil {
		return nil, err
	}
	return &ImageExporter{format: format}, nil
}

// Format implements Exporter.
func (e *ImageExporter) Format() Format {
	return e.format
}

// Export implements Exporter.
func (e *ImageExporter) Export(ctx context.Context, w io.Writer, a *Artifacts) error {
	format := graphviz.PNG
	if e.format == FormatSVG {
		format = graphviz.SVG
	}
	return renderGraph(ctx, a.Graph, format, w)
}

// renderGraph converts g to a graphviz graph and renders it.
func renderGraph(ctx context.Context, g *graph.Graph, format graphviz.Format, w io.Writer) (err error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize graphviz: %w", err)
	}
	defer func() {
		if cerr := gv.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	out, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if g != nil {
		nodes := make(map[string]*graphviz.Node, g.NumNodes())
		for _, n := range g.Nodes() {
			gn, err := out.CreateNodeByName(n.ID)
			if err != nil {
				return fmt.Errorf("failed to create node %s: %w", n.ID, err)
			}
			limit := pageLabelLimit
			if n.Kind == graph.KindConcept {
				limit = conceptLabelLimit
			}
			gn.SetLabel(truncate(n.Label, limit))
			nodes[n.ID] = gn
		}

		for _, e := range g.Edges() {
			if _, err := out.CreateEdgeByName("", nodes[e.From], nodes[e.To]); err != nil {
				return fmt.Errorf("failed to create edge %s -> %s: %w", e.From, e.To, err)
			}
		}
	}

	if err := gv.Render(ctx, out, format, w); err != nil {
		return fmt.Errorf("failed to render %s: %w", format, err)
	}
	return nil
}
