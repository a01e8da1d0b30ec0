package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/doctaxon/internal/config"
	"github.com/nao1215/doctaxon/internal/database"
	"github.com/nao1215/doctaxon/internal/model"
)

// TestNewImportCmd tests the import command creation.
func TestNewImportCmd(t *testing.T) {
	t.Parallel()

	cmd := NewImportCmd()

	if !strings.HasPrefix(cmd.Use, "import") {
		t.Errorf("expected use to start with 'import', got %q", cmd.Use)
	}
	for _, name := range []string{"client-id", "client-name", "client-slug", "list", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

func TestImportClient(t *testing.T) {
	t.Parallel()

	fromFile := &database.PageFile{Client: &model.Client{ID: 42, Name: "Acme Docs", Slug: "acme"}}
	bare := &database.PageFile{}

	tests := []struct {
		name    string
		args    []string
		files   []*database.PageFile
		want    model.Client
		wantErr error
	}{
		{
			name:  "client from file",
			files: []*database.PageFile{bare, fromFile},
			want:  model.Client{ID: 42, Name: "Acme Docs", Slug: "acme"},
		},
		{
			name:  "flags override name and slug",
			args:  []string{"-i", "42", "-n", "Acme", "-s", "acme-docs"},
			files: []*database.PageFile{fromFile},
			want:  model.Client{ID: 42, Name: "Acme", Slug: "acme-docs"},
		},
		{
			name:  "other id ignores file client",
			args:  []string{"-i", "7", "-n", "Big Co"},
			files: []*database.PageFile{fromFile},
			want:  model.Client{ID: 7, Name: "Big Co", Slug: "big_co"},
		},
		{
			name:  "id without name",
			args:  []string{"-i", "7"},
			files: []*database.PageFile{bare},
			want:  model.Client{ID: 7},
		},
		{
			name:    "no id anywhere",
			files:   []*database.PageFile{bare},
			wantErr: config.ErrInvalidClientID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewImportCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}

			got, err := importClient(cmd, tt.files)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("importClient() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRunImportCmd(t *testing.T) {
	t.Parallel()

	pagesPath, _ := writeTestFiles(t)
	dbDir := t.TempDir()

	t.Run("requires files", func(t *testing.T) {
		t.Parallel()

		emptyDir := filepath.Join(t.TempDir(), "db")
		_, err := executeRoot(t, "import", "-i", "42", "--db-dir", emptyDir)
		if err == nil {
			t.Fatal("expected error without files")
		}
		if _, err := os.Stat(emptyDir); !os.IsNotExist(err) {
			t.Error("a usage error must not create the page store")
		}
	})

	t.Run("imports and lists", func(t *testing.T) {
		t.Parallel()

		out, err := executeRoot(t, "import", "--db-dir", dbDir, pagesPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Imported 6 pages for Acme Docs (client 42)") {
			t.Errorf("unexpected output:\n%s", out)
		}

		// Importing again replaces pages instead of duplicating them.
		if _, err := executeRoot(t, "import", "--db-dir", dbDir, pagesPath); err != nil {
			t.Fatalf("unexpected error on reimport: %v", err)
		}

		out, err = executeRoot(t, "import", "--list", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Clients (1)") || !strings.Contains(out, "acme") {
			t.Errorf("unexpected list output:\n%s", out)
		}
		if !strings.Contains(out, "  6\n") {
			t.Errorf("expected 6 pages in list output:\n%s", out)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()

		bad := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(bad, []byte("{"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := executeRoot(t, "import", "-i", "1", "--db-dir", t.TempDir(), bad); err == nil {
			t.Error("expected error for malformed file")
		}
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("Documentation", 5); got != "Docu…" {
		t.Errorf("truncate() = %q, want Docu…", got)
	}
}
