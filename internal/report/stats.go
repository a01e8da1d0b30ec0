package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// foundationalPages is the number of pages listed by PageRank.
const foundationalPages = 5

// StatsExporter writes a plain-text build report: overall statistics,
// prerequisite graph size, the most foundational pages and one entry per
// cluster.
type StatsExporter struct{}

// NewStatsExporter creates a StatsExporter.
func NewStatsExporter() *StatsExporter {
	return &StatsExporter{}
}

// Format implements Exporter.
func (e *StatsExporter) Format() Format {
	return FormatStats
}

// Export implements Exporter.
func (e *StatsExporter) Export(_ context.Context, w io.Writer, a *Artifacts) error {
	var sb strings.Builder
	t := a.Taxonomy
	rule := strings.Repeat("=", 60)

	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "TAXONOMY BUILDER REPORT - %s\n", t.ClientName)
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "\nGenerated: %s\n", t.GeneratedAt.Format(time.RFC3339))

	stats := t.Statistics
	sb.WriteString("\n## Overall Statistics\n\n")
	fmt.Fprintf(&sb, "Total Pages Analyzed: %d\n", stats.TotalPages)
	fmt.Fprintf(&sb, "Total Topics: %d\n", stats.TotalTopics)
	fmt.Fprintf(&sb, "Total Clusters: %d\n", stats.TotalClusters)
	fmt.Fprintf(&sb, "Avg Cluster Size: %.1f pages\n", stats.AvgClusterSize)
	fmt.Fprintf(&sb, "Avg Cohesion: %.2f (0-1 scale)\n", stats.AvgCohesion)

	if a.Graph != nil {
		gs := a.Graph.Stats()
		sb.WriteString("\n## Prerequisite Graph\n\n")
		fmt.Fprintf(&sb, "Total Nodes: %d\n", gs.Nodes)
		fmt.Fprintf(&sb, "Total Edges: %d\n", gs.Edges)
		fmt.Fprintf(&sb, "Page Nodes: %d\n", gs.PageNodes)
		fmt.Fprintf(&sb, "Concept Nodes: %d\n", gs.ConceptNodes)

		sb.WriteString("\n## Foundational Pages (by PageRank)\n\n")
		for _, r := range a.Graph.Foundational(foundationalPages) {
			fmt.Fprintf(&sb, "- %s (score: %.3f)\n", r.Node.Label, r.Score)
		}
	}

	if len(t.Metadata.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, warning := range t.Metadata.Warnings {
			fmt.Fprintf(&sb, "- %s\n", warning)
		}
	}

	sb.WriteString("\n## Clusters\n")
	for _, c := range a.Clusters {
		summary := a.Summaries[c.ID]
		name := summary.Name
		if name == "" {
			name = "Unnamed"
		}
		difficulty := summary.Difficulty
		if difficulty == "" {
			difficulty = c.PrimaryAudience
		}

		fmt.Fprintf(&sb, "\n### Cluster %d: %s\n", c.ID, name)
		fmt.Fprintf(&sb, "- Size: %d pages\n", c.Size)
		fmt.Fprintf(&sb, "- Cohesion: %.2f\n", c.Cohesion)
		fmt.Fprintf(&sb, "- Primary Topic: %s\n", c.PrimaryTopic)
		fmt.Fprintf(&sb, "- Difficulty: %s\n", difficulty)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
