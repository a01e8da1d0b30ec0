package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/doctaxon/internal/graph"
	"github.com/nao1215/doctaxon/internal/model"
)

// Format identifies an export format.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatMermaid  Format = "mermaid"
	FormatDOT      Format = "dot"
	FormatStats    Format = "stats"
	FormatPNG      Format = "png"
	FormatSVG      Format = "svg"
)

// ErrUnknownFormat is returned by ParseImageFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseImageFormat resolves a visualization format name (png or svg).
func ParseImageFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Artifacts are the build outputs exporters render.
type Artifacts struct {
	Taxonomy *model.Taxonomy

	// Graph may be nil; graph exporters then render an empty graph.
	Graph *graph.Graph

	// Clusters and Summaries feed the per-cluster section of the
	// statistics report.
	Clusters  []*model.Cluster
	Summaries map[int]model.ClusterSummary
}

// Exporter renders artifacts in one format.
//
// Design decision: Exporters write to an io.Writer supplied per call
// instead of holding a destination. ExportAll renders each format into
// memory first and only then touches the file system.
type Exporter interface {
	Format() Format
	Export(ctx context.Context, w io.Writer, a *Artifacts) error
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
