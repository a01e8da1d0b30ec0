package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/doctaxon/internal/cluster"
	"github.com/nao1215/doctaxon/internal/model"
)

// Default configuration values.
// Clustering defaults match what documentation sites of a few hundred
// analyzed pages need; the OpenAI defaults favor a cheap model.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "doctaxon"

	// DefaultOutputDir is where exported files are written.
	DefaultOutputDir = "./taxonomies"

	// DefaultEmbeddingType averages learning-objective vectors per page.
	DefaultEmbeddingType = "lo"

	// DefaultClusteringMethod is k-means with automatic k.
	DefaultClusteringMethod = "kmeans"

	// DefaultMinClusterSize and DefaultMaxClusterSize bound the automatic
	// choice of k. A module of fewer than 3 pages is rarely worth a topic.
	DefaultMinClusterSize = cluster.DefaultMinSize
	DefaultMaxClusterSize = cluster.DefaultMaxSize

	// DefaultModel is the OpenAI chat model used for summaries.
	DefaultModel = "gpt-4o-mini"

	// DefaultOpenAITimeout bounds one summary or categorization request.
	DefaultOpenAITimeout = 60 * time.Second

	// DefaultSummaryConcurrency is the number of clusters summarized at once.
	// Higher values hit OpenAI rate limits on small accounts.
	DefaultSummaryConcurrency = 4

	// DefaultBatchSize is the number of clients built at once when several
	// client ids are given.
	DefaultBatchSize = 2

	// APIKeyEnv is the environment variable holding the OpenAI API key.
	APIKeyEnv = "OPENAI_API_KEY"
)

// Flag names shared by the CLI and ForClient. A flag named in
// Config.Explicit wins over the configuration file.
const (
	FlagEmbeddingType    = "embedding-type"
	FlagClusteringMethod = "clustering-method"
	FlagNClusters        = "n-clusters"
	FlagMinClusterSize   = "min-cluster-size"
	FlagMaxClusterSize   = "max-cluster-size"
	FlagFilterDocType    = "filter-doc-type"
	FlagFilterAudience   = "filter-audience"
	FlagSkipSummaries    = "skip-summaries"
	FlagOutputDir        = "output-dir"
	FlagVisualize        = "visualize"
	FlagModel            = "model"
)

// Config holds all configuration options for a doctaxon build.
// This struct is populated from CLI flags and the configuration file and
// passed through the application rather than kept in global state.
//
// Design decision: A single flat struct, as the build options are few
// and each maps to one flag. Per-client overrides live in File and are
// folded in by ForClient.
type Config struct {
	// ClientIDs are the clients to build. Several ids build in parallel.
	ClientIDs []int64

	// InputFiles are page JSON files to build from instead of the local
	// page store. Mutually exclusive with DSN.
	InputFiles []string

	// DSN is a PostgreSQL connection string for the crawler database.
	// Mutually exclusive with InputFiles.
	DSN string

	// OutputDir is the directory exported files are written to.
	OutputDir string

	// EmbeddingType selects the vectors to cluster: lo, page, section or hybrid.
	EmbeddingType string

	// ClusteringMethod is kmeans, hierarchical or dbscan.
	ClusteringMethod string

	// NClusters fixes the cluster count. Zero selects it automatically.
	NClusters int

	// MinClusterSize and MaxClusterSize bound the automatic choice of k.
	MinClusterSize int
	MaxClusterSize int

	// FilterDocTypes keeps only pages of these document types.
	FilterDocTypes []string

	// FilterAudience keeps only pages of these audience levels.
	FilterAudience []string

	// SkipSummaries uses deterministic summaries instead of OpenAI.
	SkipSummaries bool

	// Visualize adds a png or svg rendering of the prerequisite graph.
	// Empty disables it.
	Visualize string

	// DryRun prints page statistics without clustering.
	DryRun bool

	// NoSave disables saving the build to the local history.
	NoSave bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// OpenAIAPIKey enables OpenAI summaries. Empty selects the stub summarizer.
	OpenAIAPIKey string

	// Model is the OpenAI chat model.
	Model string

	// OpenAIBaseURL overrides the API endpoint (proxies, compatible servers).
	OpenAIBaseURL string

	// OpenAITimeout bounds one OpenAI request.
	OpenAITimeout time.Duration

	// SummaryConcurrency limits concurrent summary requests.
	SummaryConcurrency int

	// BatchSize limits concurrent client builds.
	BatchSize int

	// DBDir is the directory of the local page store.
	// Defaults to XDG data directory (~/.local/share/doctaxon on Linux).
	DBDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .doctaxon in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// File holds the loaded configuration file. Nil when none was found.
	File *File

	// Explicit holds the names of flags set on the command line.
	Explicit map[string]bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:          DefaultOutputDir,
		EmbeddingType:      DefaultEmbeddingType,
		ClusteringMethod:   DefaultClusteringMethod,
		MinClusterSize:     DefaultMinClusterSize,
		MaxClusterSize:     DefaultMaxClusterSize,
		Model:              DefaultModel,
		OpenAITimeout:      DefaultOpenAITimeout,
		SummaryConcurrency: DefaultSummaryConcurrency,
		BatchSize:          DefaultBatchSize,
		DBDir:              XDGDataDir(),
		Explicit:           map[string]bool{},
	}
}

// XDGDataDir returns the XDG data directory for doctaxon.
// On Linux: ~/.local/share/doctaxon
// On macOS: ~/Library/Application Support/doctaxon
// On Windows: %LOCALAPPDATA%\doctaxon
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for doctaxon.
// On Linux: ~/.config/doctaxon
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Method returns the parsed clustering method.
func (c *Config) Method() (cluster.Method, error) {
	return cluster.ParseMethod(c.ClusteringMethod)
}

// EmbeddingSource returns the parsed embedding source.
func (c *Config) EmbeddingSource() (model.EmbeddingSource, error) {
	return model.ParseEmbeddingSource(c.EmbeddingType)
}

// ApplyFile folds the OpenAI block of the configuration file and the
// API key environment value into c. Values set on the command line and
// a non-empty env key take precedence.
func (c *Config) ApplyFile(getenv func(string) string) {
	if c.File != nil {
		ai := c.File.OpenAI
		if c.OpenAIAPIKey == "" {
			c.OpenAIAPIKey = ai.APIKey
		}
		if ai.Model != "" && !c.Explicit[FlagModel] {
			c.Model = ai.Model
		}
		if ai.BaseURL != "" {
			c.OpenAIBaseURL = ai.BaseURL
		}
		if ai.Timeout > 0 {
			c.OpenAITimeout = ai.Timeout
		}
		if ai.Concurrency > 0 {
			c.SummaryConcurrency = ai.Concurrency
		}
	}
	if getenv != nil {
		if key := strings.TrimSpace(getenv(APIKeyEnv)); key != "" {
			c.OpenAIAPIKey = key
		}
	}
}

// ForClient returns a copy of c with the configuration file's defaults
// and the client's overrides applied. Flags in Explicit keep their
// command-line values.
func (c *Config) ForClient(clientID int64) *Config {
	out := *c
	out.ClientIDs = []int64{clientID}
	if c.File == nil {
		return &out
	}

	cc := c.File.GetClientConfig(clientID)
	if cc.EmbeddingType != "" && !c.Explicit[FlagEmbeddingType] {
		out.EmbeddingType = cc.EmbeddingType
	}
	if cc.ClusteringMethod != "" && !c.Explicit[FlagClusteringMethod] {
		out.ClusteringMethod = cc.ClusteringMethod
	}
	if cc.NClusters != 0 && !c.Explicit[FlagNClusters] {
		out.NClusters = cc.NClusters
	}
	if cc.MinClusterSize != 0 && !c.Explicit[FlagMinClusterSize] {
		out.MinClusterSize = cc.MinClusterSize
	}
	if cc.MaxClusterSize != 0 && !c.Explicit[FlagMaxClusterSize] {
		out.MaxClusterSize = cc.MaxClusterSize
	}
	if len(cc.FilterDocTypes) > 0 && !c.Explicit[FlagFilterDocType] {
		out.FilterDocTypes = cc.FilterDocTypes
	}
	if len(cc.FilterAudience) > 0 && !c.Explicit[FlagFilterAudience] {
		out.FilterAudience = cc.FilterAudience
	}
	if cc.SkipSummaries != nil && !c.Explicit[FlagSkipSummaries] {
		out.SkipSummaries = *cc.SkipSummaries
	}
	if cc.OutputDir != "" && !c.Explicit[FlagOutputDir] {
		out.OutputDir = cc.OutputDir
	}
	if cc.Visualize != "" && !c.Explicit[FlagVisualize] {
		out.Visualize = cc.Visualize
	}
	return &out
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if len(c.ClientIDs) == 0 {
		return ErrNoClient
	}
	for _, id := range c.ClientIDs {
		if id <= 0 {
			return ErrInvalidClientID
		}
	}

	if len(c.InputFiles) > 0 && c.DSN != "" {
		return ErrConflictingSources
	}

	if c.MinClusterSize < 1 || c.MaxClusterSize < c.MinClusterSize {
		return ErrInvalidClusterSize
	}

	if c.NClusters < 0 {
		return ErrInvalidNClusters
	}

	if _, err := c.Method(); err != nil {
		return err
	}
	if _, err := c.EmbeddingSource(); err != nil {
		return err
	}

	switch strings.ToLower(c.Visualize) {
	case "", "png", "svg":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVisualize, c.Visualize)
	}

	if c.OpenAITimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.SummaryConcurrency <= 0 || c.BatchSize <= 0 {
		return ErrInvalidConcurrency
	}

	return nil
}
