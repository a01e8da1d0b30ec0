package pipeline

import (
	"errors"

	"github.com/nao1215/doctaxon/internal/embedding"
)

var (
	// ErrNoPages is returned when a build receives no pages.
	ErrNoPages = errors.New("no pages to build a taxonomy from")

	// ErrNoEmbeddings is returned when no page has a vector for the
	// selected embedding source.
	ErrNoEmbeddings = embedding.ErrNoEmbeddings

	// ErrDegenerateClustering reports a build that produced no usable
	// clusters. Builder.Build never returns it; callers check
	// Result.Degenerate after exporting the partial taxonomy.
	ErrDegenerateClustering = errors.New("clustering produced no usable clusters")
)
