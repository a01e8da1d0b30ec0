package database

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/nao1215/doctaxon/internal/model"
)

var (
	// ErrClientNotFound is returned when a client id is unknown.
	ErrClientNotFound = errors.New("client not found")

	// ErrBuildNotFound is returned when a build id is unknown.
	ErrBuildNotFound = errors.New("taxonomy build not found")

	// ErrSchemaMismatch is returned when a source database lacks the
	// expected tables or columns.
	ErrSchemaMismatch = errors.New("page source schema mismatch")
)

// PageSource loads a client's analyzed pages.
type PageSource interface {
	// LoadPages returns the client's pages matching f, ordered by id.
	LoadPages(ctx context.Context, clientID int64, f Filter) ([]*model.Page, error)

	// GetClient returns the client or ErrClientNotFound.
	GetClient(ctx context.Context, clientID int64) (*model.Client, error)

	Close() error
}

// Filter narrows the pages loaded for a build. Empty fields match
// everything. Values match case-insensitively.
type Filter struct {
	// DocTypes matches a page whose crawler doc_type or AI doc type is
	// in the list.
	DocTypes []string

	// AudienceLevels matches the AI audience level.
	AudienceLevels []string
}

// IsZero reports whether f matches every page.
func (f Filter) IsZero() bool {
	return len(f.DocTypes) == 0 && len(f.AudienceLevels) == 0
}

// Match reports whether p passes the filter.
func (f Filter) Match(p *model.Page) bool {
	if len(f.DocTypes) > 0 {
		types := normalized(f.DocTypes)
		if !slices.Contains(types, norm(p.DocType)) && !slices.Contains(types, norm(p.AIDocType)) {
			return false
		}
	}
	if len(f.AudienceLevels) > 0 && !slices.Contains(normalized(f.AudienceLevels), norm(p.AudienceLevel)) {
		return false
	}
	return true
}

// Apply returns the pages that pass the filter.
func (f Filter) Apply(pages []*model.Page) []*model.Page {
	if f.IsZero() {
		return pages
	}
	out := make([]*model.Page, 0, len(pages))
	for _, p := range pages {
		if p != nil && f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalized(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := norm(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}
