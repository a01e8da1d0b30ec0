package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/doctaxon/internal/model"
)

// BuildRecord is one stored taxonomy build.
type BuildRecord struct {
	// ID is a UUID. SaveBuild assigns one when empty.
	ID string

	ClientID       int64
	CreatedAt      time.Time
	Method         string
	NClusters      int
	TotalPages     int
	EmbeddingField string

	// Taxonomy is nil in ListBuilds results.
	Taxonomy *model.Taxonomy
}

// NewBuildRecord derives a record from a taxonomy.
func NewBuildRecord(t *model.Taxonomy) *BuildRecord {
	return &BuildRecord{
		ID:             t.Metadata.BuildID,
		ClientID:       t.ClientID,
		CreatedAt:      t.GeneratedAt,
		Method:         t.Metadata.ClusteringMethod,
		NClusters:      t.Metadata.NClusters,
		TotalPages:     t.Statistics.TotalPages,
		EmbeddingField: t.Statistics.EmbeddingField,
		Taxonomy:       t,
	}
}

// SaveBuild stores a build and returns its id.
func (ps *PageStore) SaveBuild(ctx context.Context, rec *BuildRecord) (string, error) {
	if rec.Taxonomy == nil {
		return "", errors.New("build record has no taxonomy")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	doc, err := json.Marshal(rec.Taxonomy)
	if err != nil {
		return "", fmt.Errorf("failed to serialize taxonomy: %w", err)
	}

	query := `
	INSERT INTO taxonomy_builds
		(id, client_id, created_at, method, n_clusters, total_pages, embedding_field, taxonomy_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = ps.db.ExecContext(ctx, query,
		rec.ID,
		rec.ClientID,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.Method,
		rec.NClusters,
		rec.TotalPages,
		rec.EmbeddingField,
		string(doc),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save build: %w", err)
	}
	return rec.ID, nil
}

// ListBuilds returns stored builds newest first, without their taxonomy.
// A clientID of 0 lists builds of every client.
func (ps *PageStore) ListBuilds(ctx context.Context, clientID int64) ([]*BuildRecord, error) {
	query := `
	SELECT id, client_id, created_at, method, n_clusters, total_pages, embedding_field
	FROM taxonomy_builds
	`
	var args []any
	if clientID != 0 {
		query += " WHERE client_id = ?"
		args = append(args, clientID)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []*BuildRecord
	for rows.Next() {
		var (
			rec       BuildRecord
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.ClientID, &createdAt, &rec.Method,
			&rec.NClusters, &rec.TotalPages, &rec.EmbeddingField); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		rec.CreatedAt = parseTimestamp(createdAt)
		builds = append(builds, &rec)
	}
	return builds, rows.Err()
}

// GetBuild returns a build with its taxonomy or ErrBuildNotFound.
func (ps *PageStore) GetBuild(ctx context.Context, id string) (*BuildRecord, error) {
	query := `
	SELECT id, client_id, created_at, method, n_clusters, total_pages, embedding_field, taxonomy_json
	FROM taxonomy_builds WHERE id = ?
	`
	var (
		rec       BuildRecord
		createdAt string
		doc       string
	)
	err := ps.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.ClientID, &createdAt,
		&rec.Method, &rec.NClusters, &rec.TotalPages, &rec.EmbeddingField, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBuildNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}

	rec.CreatedAt = parseTimestamp(createdAt)
	var t model.Taxonomy
	if err := json.Unmarshal([]byte(doc), &t); err != nil {
		return nil, fmt.Errorf("failed to parse stored taxonomy: %w", err)
	}
	rec.Taxonomy = &t
	return &rec, nil
}
