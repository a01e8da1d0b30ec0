package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoClient is returned when no client id is given.
	ErrNoClient = errors.New("no client specified: use --client-id")

	// ErrInvalidClientID is returned when a client id is not positive.
	ErrInvalidClientID = errors.New("invalid client id: must be positive")

	// ErrConflictingSources is returned when both --input and --dsn are set.
	// Pages come from exactly one source.
	ErrConflictingSources = errors.New("conflicting page sources: --input and --dsn cannot be used together")

	// ErrInvalidClusterSize is returned when the minimum cluster size is
	// not positive or exceeds the maximum.
	ErrInvalidClusterSize = errors.New("invalid cluster size: min must be positive and not greater than max")

	// ErrInvalidNClusters is returned when a fixed cluster count is negative.
	// Zero selects the count automatically.
	ErrInvalidNClusters = errors.New("invalid cluster count: must be positive or auto")

	// ErrInvalidTimeout is returned when the OpenAI request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when a concurrency limit is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidVisualize is returned for a visualization format other
	// than png or svg.
	ErrInvalidVisualize = errors.New("invalid visualize format: must be png or svg")
)
