package report

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/doctaxon/internal/model"
)

// MarkdownExporter writes the taxonomy as a readable Markdown document:
// statistics, then one section per root topic and one subsection per
// module with its pages in learning order.
type MarkdownExporter struct {
	// chart enables the difficulty pie chart.
	chart bool
}

// MarkdownExporterOption configures a MarkdownExporter.
type MarkdownExporterOption func(*MarkdownExporter)

// WithDifficultyChart toggles the mermaid pie chart of module difficulty.
// It is enabled by default.
func WithDifficultyChart(enabled bool) MarkdownExporterOption {
	return func(e *MarkdownExporter) {
		e.chart = enabled
	}
}

// NewMarkdownExporter creates a MarkdownExporter.
func NewMarkdownExporter(opts ...MarkdownExporterOption) *MarkdownExporter {
	e := &MarkdownExporter{chart: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Format implements Exporter.
func (e *MarkdownExporter) Format() Format {
	return FormatMarkdown
}

// Export implements Exporter.
func (e *MarkdownExporter) Export(_ context.Context, w io.Writer, a *Artifacts) error {
	t := a.Taxonomy
	md := markdown.NewMarkdown(w)

	e.writeHeader(md, t)
	for _, topic := range t.Taxonomy.RootTopics {
		e.writeTopic(md, topic)
	}
	return md.Build()
}

func (e *MarkdownExporter) writeHeader(md *markdown.Markdown, t *model.Taxonomy) {
	md.H1(t.ClientName + " - Documentation Taxonomy")
	md.PlainText("")
	md.PlainTextf("Generated: %s", t.GeneratedAt.Format(time.RFC3339))
	md.PlainText("")

	stats := t.Statistics
	md.H2("Statistics")
	md.PlainText("")
	md.BulletList(
		fmt.Sprintf("%s: %d", markdown.Bold("Total Pages"), stats.TotalPages),
		fmt.Sprintf("%s: %d", markdown.Bold("Topics"), stats.TotalTopics),
		fmt.Sprintf("%s: %d", markdown.Bold("Clusters/Modules"), stats.TotalClusters),
		fmt.Sprintf("%s: %.1f", markdown.Bold("Avg Cluster Size"), stats.AvgClusterSize),
		fmt.Sprintf("%s: %.2f", markdown.Bold("Avg Cohesion"), stats.AvgCohesion),
	)
	md.PlainText("")

	if e.chart {
		writeDifficultyChart(md, t)
	}
	if len(t.Metadata.Warnings) > 0 {
		md.Warningf("This build degraded: %d warning(s) were recorded.", len(t.Metadata.Warnings))
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("")
}

// writeDifficultyChart writes a mermaid pie chart of module difficulty.
func writeDifficultyChart(md *markdown.Markdown, t *model.Taxonomy) {
	counts := make(map[string]uint64)
	var labels []string
	for _, m := range t.AllModules() {
		if _, ok := counts[m.Difficulty]; !ok {
			labels = append(labels, m.Difficulty)
		}
		counts[m.Difficulty]++
	}
	if len(labels) == 0 {
		return
	}

	rank := func(label string) int {
		for _, d := range model.Difficulties() {
			if d.String() == label {
				return d.Stage()
			}
		}
		return len(model.Difficulties()) + 1
	}
	slices.SortStableFunc(labels, func(a, b string) int {
		return rank(a) - rank(b)
	})

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Module Difficulty"),
		piechart.WithShowData(true),
	)
	for _, label := range labels {
		chart.LabelAndIntValue(label, counts[label])
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (e *MarkdownExporter) writeTopic(md *markdown.Markdown, topic model.RootTopic) {
	md.H2(topic.Name)
	md.PlainText("")
	if topic.Overview != "" {
		md.PlainText(topic.Overview)
		md.PlainText("")
	}

	stats := topic.Statistics
	md.PlainTextf("%s: %d modules • %d pages • %g hours • %s",
		markdown.Bold("Stats"),
		stats.TotalModules,
		stats.TotalPages,
		stats.EstimatedHours,
		stats.PrimaryDifficulty,
	)
	md.PlainText("")

	for _, m := range topic.Clusters {
		e.writeModule(md, m)
	}
}

func (e *MarkdownExporter) writeModule(md *markdown.Markdown, m model.Module) {
	md.H3(m.Name)
	md.PlainText("")
	if m.Description != "" {
		md.PlainText(m.Description)
		md.PlainText("")
	}

	md.PlainText(markdown.Bold("Metadata:"))
	md.BulletList(
		"Difficulty: "+m.Difficulty,
		fmt.Sprintf("Estimated Time: %.1f hours", m.EstimatedHours),
		fmt.Sprintf("Cohesion: %.2f", m.Cohesion),
		fmt.Sprintf("Pages: %d", len(m.Pages)),
	)
	md.PlainText("")

	if len(m.Prerequisites) > 0 {
		md.PlainText(markdown.Bold("Prerequisites:"))
		md.BulletList(m.Prerequisites...)
		md.PlainText("")
	}
	if len(m.LearningOutcomes) > 0 {
		md.PlainText(markdown.Bold("Learning Outcomes:"))
		md.BulletList(m.LearningOutcomes...)
		md.PlainText("")
	}

	if len(m.Pages) > 0 {
		items := make([]string, 0, len(m.Pages))
		for _, p := range m.Pages {
			items = append(items, fmt.Sprintf("%s (%s)", markdown.Link(p.Title, p.URL), p.AIDocType))
		}
		md.PlainText(markdown.Bold("Pages:"))
		md.BulletList(items...)
		md.PlainText("")
	}
}
