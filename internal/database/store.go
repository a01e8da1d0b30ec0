package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/doctaxon/internal/model"
)

// FileName is the name of the SQLite database inside the data directory.
const FileName = "doctaxon.db"

// PageStore provides SQLite-based storage for clients, imported pages and
// taxonomy build history. It implements PageSource.
//
// Design decision: Pages are stored as their full JSON document next to
// the few columns used for filtering. The page shape follows the
// analyzer's export and changes more often than the filter columns do.
type PageStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures PageStore behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a PageStore in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*PageStore, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ps := &PageStore{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := ps.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ps, nil
}

// Path returns the database file path.
func (ps *PageStore) Path() string {
	return ps.dbPath
}

// Close closes the database connection.
func (ps *PageStore) Close() error {
	return ps.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (ps *PageStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		slug TEXT NOT NULL DEFAULT ''
	);

	-- Pages keep the analyzer document in page_json; the other columns
	-- exist for filtering.
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		doc_type TEXT NOT NULL DEFAULT '',
		ai_doc_type TEXT NOT NULL DEFAULT '',
		ai_audience_level TEXT NOT NULL DEFAULT '',
		page_json TEXT NOT NULL,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(client_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_client ON pages(client_id);

	-- Builds store each exported taxonomy for history.
	CREATE TABLE IF NOT EXISTS taxonomy_builds (
		id TEXT PRIMARY KEY,
		client_id INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		method TEXT NOT NULL,
		n_clusters INTEGER NOT NULL,
		total_pages INTEGER NOT NULL,
		embedding_field TEXT NOT NULL,
		taxonomy_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_builds_client ON taxonomy_builds(client_id);
	CREATE INDEX IF NOT EXISTS idx_builds_created ON taxonomy_builds(created_at);
	`

	_, err := ps.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertClient inserts a client or updates its name and slug.
func (ps *PageStore) UpsertClient(ctx context.Context, c model.Client) error {
	query := `
	INSERT INTO clients (id, name, slug) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE clients.name END,
		slug = CASE WHEN excluded.slug <> '' THEN excluded.slug ELSE clients.slug END
	`
	if _, err := ps.db.ExecContext(ctx, query, c.ID, c.Name, c.Slug); err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}
	return nil
}

// GetClient returns the client or ErrClientNotFound.
func (ps *PageStore) GetClient(ctx context.Context, clientID int64) (*model.Client, error) {
	var c model.Client
	err := ps.db.QueryRowContext(ctx, `SELECT id, name, slug FROM clients WHERE id = ?`, clientID).
		Scan(&c.ID, &c.Name, &c.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrClientNotFound, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// ClientInfo is a client with its imported page count.
type ClientInfo struct {
	model.Client
	Pages int
}

// ListClients returns every client ordered by id.
func (ps *PageStore) ListClients(ctx context.Context) ([]ClientInfo, error) {
	query := `
	SELECT c.id, c.name, c.slug, COUNT(p.id)
	FROM clients c LEFT JOIN pages p ON p.client_id = c.id
	GROUP BY c.id
	ORDER BY c.id
	`
	rows, err := ps.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []ClientInfo
	for rows.Next() {
		var ci ClientInfo
		if err := rows.Scan(&ci.ID, &ci.Name, &ci.Slug, &ci.Pages); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, ci)
	}
	return clients, rows.Err()
}

// ImportPages stores pages for a client in one transaction. A page with
// the id or URL of an existing page replaces it. The client must exist.
// It returns the number of pages written.
func (ps *PageStore) ImportPages(ctx context.Context, clientID int64, pages []*model.Page) (n int, err error) {
	if _, err := ps.GetClient(ctx, clientID); err != nil {
		return 0, err
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // the original error is returned
		}
	}()

	// REPLACE resolves both an id and a (client_id, url) conflict.
	query := `
	INSERT OR REPLACE INTO pages
		(id, client_id, url, title, doc_type, ai_doc_type, ai_audience_level, page_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		if p == nil {
			continue
		}
		if strings.TrimSpace(p.URL) == "" {
			return 0, fmt.Errorf("page %d has no url", p.ID)
		}

		doc, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize page %s: %w", p.URL, err)
		}

		// A zero id lets SQLite assign one.
		var id any
		if p.ID != 0 {
			id = p.ID
		}
		if _, err := stmt.ExecContext(ctx, id, clientID, p.URL, p.Title,
			norm(p.DocType), norm(p.AIDocType), norm(p.AudienceLevel), string(doc)); err != nil {
			return 0, fmt.Errorf("failed to import page %s: %w", p.URL, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit pages: %w", err)
	}
	return n, nil
}

// LoadPages returns the client's pages matching f, ordered by id.
func (ps *PageStore) LoadPages(ctx context.Context, clientID int64, f Filter) ([]*model.Page, error) {
	query := `SELECT id, client_id, page_json FROM pages WHERE client_id = ?`
	args := []any{clientID}

	if types := normalized(f.DocTypes); len(types) > 0 {
		in := placeholders(len(types))
		query += " AND (doc_type IN (" + in + ") OR ai_doc_type IN (" + in + "))"
		for range 2 {
			for _, t := range types {
				args = append(args, t)
			}
		}
	}
	if levels := normalized(f.AudienceLevels); len(levels) > 0 {
		query += " AND ai_audience_level IN (" + placeholders(len(levels)) + ")"
		for _, l := range levels {
			args = append(args, l)
		}
	}
	query += " ORDER BY id"

	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}
	defer rows.Close()

	var pages []*model.Page
	for rows.Next() {
		var (
			id, client int64
			doc        string
		)
		if err := rows.Scan(&id, &client, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		var p model.Page
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("failed to parse page %d: %w", id, err)
		}
		p.ID = id
		p.ClientID = client
		pages = append(pages, &p)
	}
	return pages, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
