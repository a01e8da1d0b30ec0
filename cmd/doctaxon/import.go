package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/doctaxon/internal/config"
	"github.com/nao1215/doctaxon/internal/database"
	"github.com/nao1215/doctaxon/internal/model"
	"github.com/nao1215/doctaxon/internal/taxonomy"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [pages.json...]",
		Short: "Import analyzed pages into the local page store",
		Long: `Import stores analyzed pages in the local page store so that later
builds do not need the input files or the crawler database.

Each file is either a JSON array of pages or an object with a "client"
and a "pages" field. Importing a page with the same URL again replaces it.

Examples:
  # Import the pages of client 42
  doctaxon import --client-id 42 --client-name "Acme Docs" pages.json

  # Import several files with an explicit slug
  doctaxon import -i 42 -n "Acme Docs" -s acme guides.json reference.json

  # List imported clients
  doctaxon import --list`,
		Args: cobra.ArbitraryArgs,
		RunE: runImportCmd,
	}

	cmd.Flags().Int64P("client-id", "i", 0,
		"Client id the pages belong to (default: the client in the file)")
	cmd.Flags().StringP("client-name", "n", "",
		"Client display name")
	cmd.Flags().StringP("client-slug", "s", "",
		"Client slug used in output file names (default: derived from the name)")
	cmd.Flags().BoolP("list", "l", false,
		"List clients in the page store")

	cmd.Flags().String("db-dir", "", "Directory of the local page store")
	_ = cmd.Flags().MarkHidden("db-dir") //nolint:errcheck // Flag is defined above

	return cmd
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database so a usage error
	// does not create an empty store.
	if !list && len(args) == 0 {
		return errors.New("no page files given (specify one or more JSON files as arguments)")
	}

	files := make([]*database.PageFile, 0, len(args))
	for _, path := range args {
		pf, err := database.ReadPageFile(path)
		if err != nil {
			return err
		}
		files = append(files, pf)
	}

	var client model.Client
	if !list {
		client, err = importClient(cmd, files)
		if err != nil {
			return err
		}
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
	if list {
		return listClients(ctx, cmd, store)
	}

	if err := store.UpsertClient(ctx, client); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	total := 0
	for i, pf := range files {
		n, err := store.ImportPages(ctx, client.ID, pf.Pages)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", args[i], err)
		}
		fmt.Fprintf(out, "✓ %s: %d pages\n", args[i], n)
		total += n
	}

	fmt.Fprintf(out, "\nImported %d pages for %s (client %d) into %s\n",
		total, client.DisplayName(), client.ID, store.Path())
	fmt.Fprintf(out, "Run 'doctaxon build --client-id %d' to build its taxonomy.\n", client.ID)
	return nil
}

// importClient resolves the client from flags, falling back to the
// first client named in the files.
func importClient(cmd *cobra.Command, files []*database.PageFile) (model.Client, error) {
	var client model.Client
	for _, pf := range files {
		if pf.Client != nil && pf.Client.ID != 0 {
			client = *pf.Client
			break
		}
	}

	id, err := cmd.Flags().GetInt64("client-id")
	if err != nil {
		return client, err
	}
	name, err := cmd.Flags().GetString("client-name")
	if err != nil {
		return client, err
	}
	slug, err := cmd.Flags().GetString("client-slug")
	if err != nil {
		return client, err
	}

	if id != 0 && id != client.ID {
		client = model.Client{ID: id}
	}
	if client.ID <= 0 {
		return client, fmt.Errorf("%w (use --client-id)", config.ErrInvalidClientID)
	}
	if name = strings.TrimSpace(name); name != "" {
		client.Name = name
	}
	if slug = strings.TrimSpace(slug); slug != "" {
		client.Slug = slug
	}
	if client.Slug == "" && client.Name != "" {
		client.Slug = taxonomy.Slug(client.Name)
	}
	return client, nil
}

// listClients prints the clients in the page store with their page counts.
func listClients(ctx context.Context, cmd *cobra.Command, store *database.PageStore) error {
	clients, err := store.ListClients(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(clients) == 0 {
		fmt.Fprintln(out, "No clients found in the page store.")
		fmt.Fprintln(out, "\nUse 'doctaxon import --client-id N pages.json' to import pages.")
		return nil
	}

	fmt.Fprintf(out, "Clients (%d):\n\n", len(clients))
	fmt.Fprintf(out, "  %-8s  %-30s  %-20s  %s\n", "ID", "Name", "Slug", "Pages")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))
	for _, c := range clients {
		fmt.Fprintf(out, "  %-8d  %-30s  %-20s  %d\n",
			c.ID, truncate(c.DisplayName(), 30), c.FileSlug(), c.Pages)
	}
	return nil
}

// getDBDir returns the --db-dir value, or the XDG data directory.
func getDBDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = config.XDGDataDir()
	}
	return dir, nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
