// Package report exports a built taxonomy and its prerequisite graph.
//
// This package contains exporters for different output formats:
//   - JSONExporter: the taxonomy tree for tool integration
//   - MarkdownExporter: a readable document with topics and modules
//   - MermaidExporter: the prerequisite graph as a mermaid flowchart
//   - DOTExporter: the prerequisite graph in DOT for graphviz tools
//   - StatsExporter: a plain-text build report
//   - ImageExporter: a PNG or SVG rendering of the prerequisite graph
//
// ExportAll writes a standard set of files for one client and reports the
// outcome of every file separately.
package report
