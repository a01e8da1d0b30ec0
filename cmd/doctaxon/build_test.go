package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/doctaxon/internal/config"
	"github.com/nao1215/doctaxon/internal/model"
	"github.com/nao1215/doctaxon/internal/pipeline"
)

// testPages is a page export for client 42 with two well separated
// groups of page vectors.
const testPages = `{
  "client": {"id": 42, "name": "Acme Docs", "slug": "acme"},
  "pages": [
    {"id": 1, "url": "https://acme.test/start", "title": "Getting started", "doc_type": "tutorial", "ai_audience_level": "beginner", "page_embedding": [1, 0, 0]},
    {"id": 2, "url": "https://acme.test/install", "title": "Install", "doc_type": "tutorial", "ai_audience_level": "beginner", "page_embedding": [0.9, 0.1, 0]},
    {"id": 3, "url": "https://acme.test/first", "title": "First project", "doc_type": "tutorial", "ai_audience_level": "beginner", "page_embedding": [1, 0.1, 0]},
    {"id": 4, "url": "https://acme.test/api", "title": "API", "ai_doc_type": "reference", "ai_audience_level": "advanced", "page_embedding": [0, 0, 1]},
    {"id": 5, "url": "https://acme.test/cli", "title": "CLI", "ai_doc_type": "reference", "ai_audience_level": "advanced", "page_embedding": [0, 0.1, 0.9]},
    {"id": 6, "url": "https://acme.test/tuning", "title": "Tuning", "doc_type": "tutorial", "ai_audience_level": "advanced", "page_embedding": [0.1, 0, 1]}
  ]
}`

// writeTestFiles writes the page export and an empty configuration file
// and returns their paths.
func writeTestFiles(t *testing.T) (pagesPath, configPath string) {
	t.Helper()

	dir := t.TempDir()
	pagesPath = filepath.Join(dir, "pages.json")
	if err := os.WriteFile(pagesPath, []byte(testPages), 0600); err != nil {
		t.Fatalf("failed to write pages: %v", err)
	}
	configPath = writeConfig(t, "defaults: {}\n")
	return pagesPath, configPath
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".doctaxon")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// executeRoot runs the root command with args and returns its output.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// TestNewBuildCmd tests the build command creation.
func TestNewBuildCmd(t *testing.T) {
	t.Parallel()

	cmd := NewBuildCmd()

	if cmd.Use != "build" {
		t.Errorf("expected use 'build', got %q", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("expected non-empty descriptions")
	}

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "client-id", shorthand: "i", defValue: "[]"},
		{name: "input", defValue: "[]"},
		{name: "dsn", defValue: ""},
		{name: config.FlagOutputDir, shorthand: "o", defValue: config.DefaultOutputDir},
		{name: config.FlagEmbeddingType, defValue: "lo"},
		{name: config.FlagClusteringMethod, defValue: "kmeans"},
		{name: config.FlagNClusters, defValue: "auto"},
		{name: config.FlagMinClusterSize, defValue: "3"},
		{name: config.FlagMaxClusterSize, defValue: "15"},
		{name: config.FlagSkipSummaries, defValue: "false"},
		{name: config.FlagVisualize, defValue: ""},
		{name: config.FlagModel, defValue: config.DefaultModel},
		{name: "dry-run", defValue: "false"},
		{name: "no-save", defValue: "false"},
		{name: "batch", shorthand: "b", defValue: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}

	t.Run("db-dir is hidden", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db-dir")
		if flag == nil || !flag.Hidden {
			t.Error("expected hidden db-dir flag")
		}
	})
}

func TestParseNClusters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "auto", want: 0},
		{in: "AUTO", want: 0},
		{in: "", want: 0},
		{in: "8", want: 8},
		{in: " 3 ", want: 3},
		{in: "0", wantErr: true},
		{in: "-2", wantErr: true},
		{in: "many", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := parseNClusters(tt.in)
			if tt.wantErr {
				if !errors.Is(err, config.ErrInvalidNClusters) {
					t.Errorf("expected ErrInvalidNClusters, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseNClusters(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

// TestBuildConfig tests that flags, the configuration file and their
// precedence end up in the Config.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfig(t, `
defaults:
  clusteringMethod: hierarchical
  minClusterSize: 4
clients:
  42:
    nClusters: 5
    filterDocTypes: [tutorial]
openai:
  model: gpt-4.1-mini
  timeout: 30s
  concurrency: 2
`)

	root := NewRootCmd()
	build, _, err := root.Find([]string{"build"})
	if err != nil {
		t.Fatalf("failed to find build command: %v", err)
	}
	err = build.ParseFlags([]string{
		"-i", "42", "-i", "57",
		"--clustering-method", "dbscan",
		"--n-clusters", "auto",
		"--db-dir", "/tmp/doctaxon-test",
		"-c", cfgPath,
	})
	if err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := buildConfig(build)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.ClientIDs) != 2 || cfg.ClientIDs[0] != 42 || cfg.ClientIDs[1] != 57 {
		t.Errorf("ClientIDs = %v, want [42 57]", cfg.ClientIDs)
	}
	if cfg.DBDir != "/tmp/doctaxon-test" {
		t.Errorf("DBDir = %q", cfg.DBDir)
	}
	if !cfg.Explicit[config.FlagClusteringMethod] || !cfg.Explicit[config.FlagNClusters] {
		t.Errorf("Explicit = %v, want clustering-method and n-clusters", cfg.Explicit)
	}
	if cfg.Explicit[config.FlagModel] {
		t.Error("model was not set on the command line")
	}
	if cfg.Model != "gpt-4.1-mini" {
		t.Errorf("Model = %q, want value from file", cfg.Model)
	}
	if cfg.SummaryConcurrency != 2 {
		t.Errorf("SummaryConcurrency = %d, want 2", cfg.SummaryConcurrency)
	}

	c42 := cfg.ForClient(42)
	if c42.ClusteringMethod != "dbscan" {
		t.Errorf("flag should win: ClusteringMethod = %q", c42.ClusteringMethod)
	}
	if c42.NClusters != 0 {
		t.Errorf("flag should win: NClusters = %d, want 0 (auto)", c42.NClusters)
	}
	if c42.MinClusterSize != 4 {
		t.Errorf("MinClusterSize = %d, want 4 from defaults", c42.MinClusterSize)
	}
	if len(c42.FilterDocTypes) != 1 || c42.FilterDocTypes[0] != "tutorial" {
		t.Errorf("FilterDocTypes = %v, want [tutorial]", c42.FilterDocTypes)
	}

	c57 := cfg.ForClient(57)
	if len(c57.FilterDocTypes) != 0 {
		t.Errorf("client 57 has no filter, got %v", c57.FilterDocTypes)
	}
}

func TestBuildConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	build, _, err := root.Find([]string{"build"})
	if err != nil {
		t.Fatalf("failed to find build command: %v", err)
	}
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if err := build.ParseFlags([]string{"-i", "1", "-c", missing}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	_, err = buildConfig(build)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRunBuildCmd_Validation(t *testing.T) {
	t.Parallel()

	_, cfgPath := writeTestFiles(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "no client", args: []string{"build", "-c", cfgPath}, wantErr: config.ErrNoClient},
		{name: "invalid sizes", args: []string{"build", "-i", "1", "--min-cluster-size", "9", "--max-cluster-size", "2", "-c", cfgPath}, wantErr: config.ErrInvalidClusterSize},
		{name: "both sources", args: []string{"build", "-i", "1", "--input", "a.json", "--dsn", "postgres://x", "-c", cfgPath}, wantErr: config.ErrConflictingSources},
		{name: "bad n-clusters", args: []string{"build", "-i", "1", "--n-clusters", "x", "-c", cfgPath}, wantErr: config.ErrInvalidNClusters},
		{name: "bad visualize", args: []string{"build", "-i", "1", "--visualize", "gif", "-c", cfgPath}, wantErr: config.ErrInvalidVisualize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := executeRoot(t, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunBuildCmd_DryRun(t *testing.T) {
	t.Parallel()

	pagesPath, cfgPath := writeTestFiles(t)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := executeRoot(t, "build", "-i", "42", "--input", pagesPath,
		"--dry-run", "-o", outDir, "-c", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Acme Docs (client 42): 6 pages",
		"Document types:",
		"tutorial",
		"4 (66.7%)",
		"reference",
		"Audience levels:",
		"beginner",
		"3 (50.0%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("dry run must not write output files")
	}
}

func TestRunBuildCmd_ExportsFiles(t *testing.T) {
	t.Parallel()

	pagesPath, cfgPath := writeTestFiles(t)
	outDir := filepath.Join(t.TempDir(), "taxonomies")

	out, err := executeRoot(t, "build", "-i", "42", "--input", pagesPath,
		"--embedding-type", "page", "--n-clusters", "2", "--skip-summaries",
		"--no-save", "-o", outDir, "-c", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}

	for _, want := range []string{"Acme Docs (client 42)", "Modules:   2", "✓"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	for _, name := range []string{
		"acme_prerequisite_graph.mmd",
		"acme_prerequisite_graph.dot",
		"acme_taxonomy_report.txt",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if md, _ := filepath.Glob(filepath.Join(outDir, "acme_taxonomy_*.md")); len(md) != 1 {
		t.Errorf("expected one markdown taxonomy, got %v", md)
	}

	docs, _ := filepath.Glob(filepath.Join(outDir, "acme_taxonomy_*.json"))
	if len(docs) != 1 {
		t.Fatalf("expected one JSON taxonomy, got %v", docs)
	}
	data, err := os.ReadFile(docs[0])
	if err != nil {
		t.Fatalf("failed to read taxonomy: %v", err)
	}
	var tax model.Taxonomy
	if err := json.Unmarshal(data, &tax); err != nil {
		t.Fatalf("invalid taxonomy JSON: %v", err)
	}
	if tax.ClientID != 42 || tax.ClientName != "Acme Docs" {
		t.Errorf("client = %d %q", tax.ClientID, tax.ClientName)
	}
	if tax.Statistics.TotalPages != 6 || tax.Statistics.TotalClusters != 2 {
		t.Errorf("statistics = %+v, want 6 pages in 2 clusters", tax.Statistics)
	}
	if tax.Statistics.EmbeddingField != "page_embedding" {
		t.Errorf("embedding_field = %q", tax.Statistics.EmbeddingField)
	}
	if tax.Metadata.BuildID == "" {
		t.Error("expected a build id in the metadata")
	}
	// Without a categorizer every module lands in the fallback topic.
	if len(tax.Taxonomy.RootTopics) != 1 || tax.Taxonomy.RootTopics[0].Name != model.FallbackCategoryName {
		t.Errorf("root topics = %+v", tax.Taxonomy.RootTopics)
	}
}

func TestRunBuildCmd_NoPages(t *testing.T) {
	t.Parallel()

	pagesPath, cfgPath := writeTestFiles(t)

	out, err := executeRoot(t, "build", "-i", "42", "--input", pagesPath,
		"--filter-doc-type", "glossary", "--no-save", "-o", t.TempDir(), "-c", cfgPath)
	if !errors.Is(err, pipeline.ErrNoPages) {
		t.Errorf("expected ErrNoPages, got %v", err)
	}
	if !strings.Contains(out, "no pages matched") {
		t.Errorf("expected a no pages message, got:\n%s", out)
	}
}

func TestRunBuildCmd_NoEmbeddings(t *testing.T) {
	t.Parallel()

	pagesPath, cfgPath := writeTestFiles(t)

	// The test pages only carry page vectors.
	out, err := executeRoot(t, "build", "-i", "42", "--input", pagesPath,
		"--embedding-type", "section", "--skip-summaries", "--no-save",
		"-o", t.TempDir(), "-c", cfgPath)
	if !errors.Is(err, pipeline.ErrNoEmbeddings) {
		t.Errorf("expected ErrNoEmbeddings, got %v", err)
	}
	if !strings.Contains(out, "✗") {
		t.Errorf("expected a failure line, got:\n%s", out)
	}
}

func TestRunBuildCmd_MissingStore(t *testing.T) {
	t.Parallel()

	_, cfgPath := writeTestFiles(t)

	_, err := executeRoot(t, "build", "-i", "42", "--db-dir", filepath.Join(t.TempDir(), "empty"),
		"--no-save", "-c", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "doctaxon import") {
		t.Errorf("expected a hint to import pages, got %v", err)
	}
}

func TestPrintDistribution(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printDistribution(&buf, "Types", map[string]int{"b": 2, "a": 2, "c": 5}, 9)

	out := buf.String()
	c := strings.Index(out, "c ")
	a := strings.Index(out, "a ")
	b := strings.Index(out, "b ")
	if c < 0 || a < 0 || b < 0 || c > a || a > b {
		t.Errorf("expected order c, a, b; got:\n%s", out)
	}

	buf.Reset()
	printDistribution(&buf, "Types", map[string]int{}, 0)
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("expected (none), got %q", buf.String())
	}
}
