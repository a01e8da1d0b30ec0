package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrExportPartial is wrapped by *ExportError when at least one output
// file could not be written.
var ErrExportPartial = errors.New("export partially failed")

// FileResult is the outcome of writing one output file.
type FileResult struct {
	Format Format
	Path   string
	Err    error
}

// ExportError lists every output file of an export, failed or not.
type ExportError struct {
	Results []FileResult
}

// Error implements error.
func (e *ExportError) Error() string {
	var failed []string
	for _, r := range e.Results {
		if r.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", filepath.Base(r.Path), r.Err))
		}
	}
	return fmt.Sprintf("%s: %s", ErrExportPartial, strings.Join(failed, "; "))
}

// Unwrap returns ErrExportPartial and the cause of each failed file.
func (e *ExportError) Unwrap() []error {
	errs := []error{ErrExportPartial}
	for _, r := range e.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Failed returns the results that have an error.
func (e *ExportError) Failed() []FileResult {
	var failed []FileResult
	for _, r := range e.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// FileName returns the output file name of format for a client slug.
// Taxonomy documents carry the build date; graph and report files do not.
func FileName(format Format, slug string, date time.Time) string {
	stamp := date.Format("20060102")
	switch format {
	case FormatJSON:
		return fmt.Sprintf("%s_taxonomy_%s.json", slug, stamp)
	case FormatMarkdown:
		return fmt.Sprintf("%s_taxonomy_%s.md", slug, stamp)
	case FormatMermaid:
		return slug + "_prerequisite_graph.mmd"
	case FormatDOT:
		return slug + "_prerequisite_graph.dot"
	case FormatStats:
		return slug + "_taxonomy_report.txt"
	default:
		return fmt.Sprintf("%s_prerequisite_graph.%s", slug, format)
	}
}

// ExportOption configures ExportAll.
type ExportOption func(*exportConfig)

type exportConfig struct {
	exporters []Exporter
	logger    *slog.Logger
}

// WithExporters replaces the default exporter set.
func WithExporters(exporters ...Exporter) ExportOption {
	return func(c *exportConfig) {
		c.exporters = exporters
	}
}

// WithVisualize adds an image of the prerequisite graph. format must be
// FormatPNG or FormatSVG; other values are ignored.
func WithVisualize(format Format) ExportOption {
	return func(c *exportConfig) {
		if img, err := NewImageExporter(format); err == nil {
			c.exporters = append(c.exporters, img)
		}
	}
}

// WithExportLogger sets the logger.
func WithExportLogger(logger *slog.Logger) ExportOption {
	return func(c *exportConfig) {
		c.logger = logger
	}
}

// DefaultExporters returns the exporters ExportAll uses by default.
func DefaultExporters() []Exporter {
	return []Exporter{
		NewJSONExporter(),
		NewMarkdownExporter(),
		NewMermaidExporter(),
		NewDOTExporter(),
		NewStatsExporter(),
	}
}

// ExportAll writes every format to dir and returns one FileResult per
// exporter in order.
//
// Each file is rendered to memory, written to a temporary file in dir and
// renamed into place, so an existing file is either replaced completely
// or left untouched. A failing format does not stop the others. When any
// file fails the error is an *ExportError wrapping ErrExportPartial.
func ExportAll(ctx context.Context, dir, slug string, date time.Time, a *Artifacts, opts ...ExportOption) ([]FileResult, error) {
	cfg := &exportConfig{exporters: DefaultExporters()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]FileResult, 0, len(cfg.exporters))
	failed := false
	for _, e := range cfg.exporters {
		path := filepath.Join(dir, FileName(e.Format(), slug, date))
		res := FileResult{Format: e.Format(), Path: path}

		if err := ctx.Err(); err != nil {
			res.Err = err
		} else {
			res.Err = exportFile(ctx, e, path, a)
		}

		if res.Err != nil {
			failed = true
			cfg.logger.Error("export failed", "format", res.Format, "path", path, "error", res.Err)
		} else {
			cfg.logger.Info("exported", "format", res.Format, "path", path)
		}
		results = append(results, res)
	}

	if failed {
		return results, &ExportError{Results: results}
	}
	return results, nil
}

func exportFile(ctx context.Context, e Exporter, path string, a *Artifacts) error {
	var buf bytes.Buffer
	if err := e.Export(ctx, &buf, a); err != nil {
		return fmt.Errorf("failed to render %s: %w", e.Format(), err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// writeFileAtomic writes data to a temporary file next to path and
// renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name()) //nolint:errcheck // best effort cleanup
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // exported documents are meant to be shared
		return fmt.Errorf("failed to set permissions on %s: %w", filepath.Base(path), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
