package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/nao1215/doctaxon/internal/model"
)

// PageFile is the content of one page export file.
//
// Two shapes are accepted: a bare JSON array of pages, or an object
// {"client": {...}, "pages": [...]} as written by the crawler's export.
type PageFile struct {
	Client *model.Client `json:"client,omitempty"`
	Pages  []*model.Page `json:"pages"`
}

// ReadPageFile reads and parses a page export file.
func ReadPageFile(path string) (*PageFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read page file: %w", err)
	}
	pf, err := ParsePageFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return pf, nil
}

// ParsePageFile parses the content of a page export file.
func ParsePageFile(data []byte) (*PageFile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty page file")
	}

	var pf PageFile
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &pf.Pages); err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(trimmed, &pf); err != nil {
		return nil, err
	}

	pf.Pages = slices.DeleteFunc(pf.Pages, func(p *model.Page) bool { return p == nil })
	return &pf, nil
}

// FileSource serves pages from export files held in memory.
type FileSource struct {
	clients map[int64]model.Client
	pages   []*model.Page
}

// OpenFiles reads every file and merges their pages. A page without a
// client id takes the id of its file's client, if the file has one.
func OpenFiles(paths ...string) (*FileSource, error) {
	fs := &FileSource{clients: map[int64]model.Client{}}
	for _, path := range paths {
		pf, err := ReadPageFile(path)
		if err != nil {
			return nil, err
		}
		fs.add(pf)
	}
	return fs, nil
}

func (fs *FileSource) add(pf *PageFile) {
	if pf.Client != nil && pf.Client.ID != 0 {
		fs.clients[pf.Client.ID] = *pf.Client
		for _, p := range pf.Pages {
			if p.ClientID == 0 {
				p.ClientID = pf.Client.ID
			}
		}
	}
	fs.pages = append(fs.pages, pf.Pages...)
}

// GetClient returns the client named in a file, or ErrClientNotFound.
func (fs *FileSource) GetClient(_ context.Context, clientID int64) (*model.Client, error) {
	c, ok := fs.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrClientNotFound, clientID)
	}
	return &c, nil
}

// LoadPages returns the client's pages matching f, ordered by id.
// Pages without a client id belong to every client, so a bare page
// array can be built under any client id.
func (fs *FileSource) LoadPages(ctx context.Context, clientID int64, f Filter) ([]*model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Page
	for _, p := range fs.pages {
		if p.ClientID != 0 && p.ClientID != clientID {
			continue
		}
		out = append(out, p)
	}
	out = f.Apply(out)
	slices.SortStableFunc(out, func(a, b *model.Page) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// Pages returns every loaded page.
func (fs *FileSource) Pages() []*model.Page {
	return fs.pages
}

// Close implements PageSource.
func (fs *FileSource) Close() error {
	return nil
}
