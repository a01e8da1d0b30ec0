package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/doctaxon/internal/database"
	"github.com/nao1215/doctaxon/internal/model"
	"github.com/nao1215/doctaxon/internal/report"
)

// NewHistoryCmd creates the history command.
// This command lists taxonomy builds stored in the local database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous taxonomy builds",
		Long: `History lists the taxonomy builds recorded by 'doctaxon build'.

Every build that was not run with --no-save is stored together with its
full taxonomy, so earlier results can be inspected after the output
files were replaced.

Examples:
  # List all builds
  doctaxon history

  # List builds of one client
  doctaxon history --client-id 42

  # Show one build
  doctaxon history --show 7d6f0e52-3c1a-4b8e-9a57-2f0c1d9e4b11

  # Show one build as JSON or Markdown
  doctaxon history --show 7d6f0e52-3c1a-4b8e-9a57-2f0c1d9e4b11 --json
  doctaxon history --show 7d6f0e52-3c1a-4b8e-9a57-2f0c1d9e4b11 --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("client-id", "i", 0,
		"List builds of this client only")
	cmd.Flags().StringP("show", "s", "",
		"Show the taxonomy of a build by ID (use the list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the shown taxonomy in Markdown format")

	cmd.Flags().String("db-dir", "", "Directory of the local page store")
	_ = cmd.Flags().MarkHidden("db-dir") //nolint:errcheck // Flag is defined above

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	clientID, err := cmd.Flags().GetInt64("client-id")
	if err != nil {
		return err
	}
	buildID, err := cmd.Flags().GetString("show")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown are mutually exclusive")
	}
	if markdownOutput && buildID == "" {
		return errors.New("--markdown requires --show")
	}

	dbDir, err := getDBDir(cmd)
	if err != nil {
		return err
	}
	store, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if buildID != "" {
		return showBuild(ctx, out, store, buildID, jsonOutput, markdownOutput)
	}
	return listBuilds(ctx, out, store, clientID, jsonOutput)
}

// buildListEntry is the JSON form of one listed build.
type buildListEntry struct {
	ID             string `json:"id"`
	ClientID       int64  `json:"client_id"`
	CreatedAt      string `json:"created_at"`
	Method         string `json:"method"`
	NClusters      int    `json:"n_clusters"`
	TotalPages     int    `json:"total_pages"`
	EmbeddingField string `json:"embedding_field"`
}

// listBuilds prints the build history, newest first.
func listBuilds(ctx context.Context, out io.Writer, store *database.PageStore, clientID int64, jsonOutput bool) error {
	builds, err := store.ListBuilds(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to get build history: %w", err)
	}

	if jsonOutput {
		entries := make([]buildListEntry, 0, len(builds))
		for _, b := range builds {
			entries = append(entries, buildListEntry{
				ID:             b.ID,
				ClientID:       b.ClientID,
				CreatedAt:      b.CreatedAt.Format(time.RFC3339),
				Method:         b.Method,
				NClusters:      b.NClusters,
				TotalPages:     b.TotalPages,
				EmbeddingField: b.EmbeddingField,
			})
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	if len(builds) == 0 {
		if clientID != 0 {
			fmt.Fprintf(out, "No builds found for client %d\n", clientID)
		} else {
			fmt.Fprintln(out, "No builds found in the database.")
		}
		fmt.Fprintln(out, "\nUse 'doctaxon build --client-id N' to build a taxonomy.")
		return nil
	}

	fmt.Fprintf(out, "Build history (%d builds):\n\n", len(builds))
	fmt.Fprintf(out, "  %-36s  %-8s  %-16s  %-12s  %8s  %6s\n",
		"ID", "Client", "Date", "Method", "Clusters", "Pages")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 96))
	for _, b := range builds {
		fmt.Fprintf(out, "  %-36s  %-8d  %-16s  %-12s  %8d  %6d\n",
			b.ID, b.ClientID, b.CreatedAt.Local().Format("2006-01-02 15:04"),
			b.Method, b.NClusters, b.TotalPages)
	}
	fmt.Fprintln(out, "\nUse 'doctaxon history --show <ID>' to see a build's taxonomy.")
	return nil
}

// showBuild prints one stored taxonomy.
func showBuild(ctx context.Context, out io.Writer, store *database.PageStore, id string, jsonOutput, markdownOutput bool) error {
	rec, err := store.GetBuild(ctx, id)
	if err != nil {
		return err
	}

	a := &report.Artifacts{Taxonomy: rec.Taxonomy}
	switch {
	case jsonOutput:
		return report.NewJSONExporter().Export(ctx, out, a)
	case markdownOutput:
		return report.NewMarkdownExporter().Export(ctx, out, a)
	}

	writeTaxonomyTree(out, rec)
	return nil
}

// writeTaxonomyTree prints topics and modules as an indented outline.
func writeTaxonomyTree(out io.Writer, rec *database.BuildRecord) {
	t := rec.Taxonomy
	fmt.Fprintf(out, "Build %s\n", rec.ID)
	fmt.Fprintf(out, "  Client:   %s (%d)\n", t.ClientName, t.ClientID)
	fmt.Fprintf(out, "  Date:     %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Method:   %s, embeddings: %s\n", rec.Method, rec.EmbeddingField)
	fmt.Fprintf(out, "  Pages:    %d in %d modules, %d topics\n\n",
		t.Statistics.TotalPages, t.Statistics.TotalClusters, t.Statistics.TotalTopics)

	for _, topic := range t.Taxonomy.RootTopics {
		fmt.Fprintf(out, "• %s (%d modules, %d pages)\n",
			topic.Name, topic.Statistics.TotalModules, topic.Statistics.TotalPages)
		for _, m := range topic.Clusters {
			writeModuleLine(out, m)
		}
	}

	if len(t.Metadata.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range t.Metadata.Warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
}

func writeModuleLine(out io.Writer, m model.Module) {
	fmt.Fprintf(out, "    - %s [%s, %.1fh, %d pages]\n",
		m.Name, m.Difficulty, m.EstimatedHours, len(m.Pages))
}
