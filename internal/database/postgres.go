package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nao1215/doctaxon/internal/model"
)

// PostgreSQL error codes that mean the crawler schema is not what the
// source expects.
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// PostgresSource reads analyzed pages directly from the crawler's
// PostgreSQL database (core_client and crawler_crawledpage tables).
// It is read-only.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}

// GetClient returns the client or ErrClientNotFound.
func (s *PostgresSource) GetClient(ctx context.Context, clientID int64) (*model.Client, error) {
	var c model.Client
	err := s.pool.QueryRow(ctx, `SELECT id, name, slug FROM core_client WHERE id = $1`, clientID).
		Scan(&c.ID, &c.Name, &c.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrClientNotFound, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", classifyPgError(err))
	}
	return &c, nil
}

// LoadPages returns the client's analyzed pages matching f, ordered by id.
// Pages without AI topics have not been analyzed and are skipped.
func (s *PostgresSource) LoadPages(ctx context.Context, clientID int64, f Filter) ([]*model.Page, error) {
	query, args := pagesQuery(clientID, f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", classifyPgError(err))
	}
	defer rows.Close()

	var pages []*model.Page
	for rows.Next() {
		var (
			p     model.Page
			cols  pageJSONColumns
			texts [4]*string
		)
		if err := rows.Scan(&p.ID, &p.ClientID, &p.URL, &texts[0],
			&texts[1], &texts[2], &texts[3], &p.Summary,
			&cols.pageEmbedding, &cols.sectionEmbeddings, &cols.objectiveEmbeddings,
			&cols.topics, &cols.objectives, &cols.prerequisites, &cols.keyConcepts); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Title = deref(texts[0])
		p.DocType = deref(texts[1])
		p.AIDocType = deref(texts[2])
		p.AudienceLevel = deref(texts[3])

		if err := cols.decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode page %d: %w", p.ID, err)
		}
		pages = append(pages, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pages: %w", classifyPgError(err))
	}
	return pages, nil
}

// pagesQuery builds the page query and its positional arguments.
func pagesQuery(clientID int64, f Filter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT id, client_id, url, title, doc_type, ai_doc_type, ai_audience_level,
	COALESCE(ai_summary, ''),
	page_embedding, section_embeddings, learning_objective_embeddings,
	ai_topics, ai_learning_objectives, ai_prerequisite_chain, ai_key_concepts
FROM crawler_crawledpage
WHERE client_id = $1
	AND ai_topics IS NOT NULL
	AND ai_topics <> '[]'::jsonb`)
	args := []any{clientID}

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if types := normalized(f.DocTypes); len(types) > 0 {
		n := next(types)
		fmt.Fprintf(&b, "\n\tAND (LOWER(doc_type) = ANY(%s) OR LOWER(ai_doc_type) = ANY(%s))", n, n)
	}
	if levels := normalized(f.AudienceLevels); len(levels) > 0 {
		fmt.Fprintf(&b, "\n\tAND LOWER(ai_audience_level) = ANY(%s)", next(levels))
	}
	b.WriteString("\nORDER BY id")
	return b.String(), args
}

// pageJSONColumns holds the raw jsonb columns of one row.
type pageJSONColumns struct {
	pageEmbedding       []byte
	sectionEmbeddings   []byte
	objectiveEmbeddings []byte
	topics              []byte
	objectives          []byte
	prerequisites       []byte
	keyConcepts         []byte
}

func (c *pageJSONColumns) decode(p *model.Page) error {
	fields := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"page_embedding", c.pageEmbedding, &p.PageEmbedding},
		{"section_embeddings", c.sectionEmbeddings, &p.SectionEmbeddings},
		{"learning_objective_embeddings", c.objectiveEmbeddings, &p.ObjectiveEmbeddings},
		{"ai_topics", c.topics, &p.Topics},
		{"ai_learning_objectives", c.objectives, &p.LearningObjectives},
		{"ai_prerequisite_chain", c.prerequisites, &p.PrerequisiteChain},
		{"ai_key_concepts", c.keyConcepts, &p.KeyConcepts},
	}
	for _, f := range fields {
		if len(f.raw) == 0 || string(f.raw) == "null" {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

// classifyPgError maps schema errors to ErrSchemaMismatch.
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUndefinedTable, pgUndefinedColumn:
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, pgErr.Message)
	default:
		return err
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
