package config

import "time"

// ClientConfig holds build overrides for a single client.
// Zero values mean "not set" and fall back to the defaults.
type ClientConfig struct {
	// EmbeddingType overrides the embedding source (lo, page, section, hybrid).
	EmbeddingType string `yaml:"embeddingType,omitempty"`

	// ClusteringMethod overrides the clustering method.
	ClusteringMethod string `yaml:"clusteringMethod,omitempty"`

	// NClusters fixes the cluster count for this client.
	NClusters int `yaml:"nClusters,omitempty"`

	MinClusterSize int `yaml:"minClusterSize,omitempty"`
	MaxClusterSize int `yaml:"maxClusterSize,omitempty"`

	// FilterDocTypes keeps only pages of these document types.
	FilterDocTypes []string `yaml:"filterDocTypes,omitempty"`

	// FilterAudience keeps only pages of these audience levels.
	FilterAudience []string `yaml:"filterAudience,omitempty"`

	// SkipSummaries is a pointer so that an explicit false in a client
	// section can override a true default.
	SkipSummaries *bool `yaml:"skipSummaries,omitempty"`

	// OutputDir overrides the export directory.
	OutputDir string `yaml:"outputDir,omitempty"`

	// Visualize adds a png or svg graph image.
	Visualize string `yaml:"visualize,omitempty"`
}

// OpenAIConfig configures the OpenAI summarizer.
type OpenAIConfig struct {
	// APIKey is used only when the OPENAI_API_KEY environment variable is empty.
	APIKey string `yaml:"apiKey,omitempty"`

	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"baseURL,omitempty"`

	// Timeout bounds one request, for example "60s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Concurrency limits concurrent summary requests.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// File represents the structure of the .doctaxon configuration file.
type File struct {
	// Defaults applies to every client unless overridden.
	Defaults ClientConfig `yaml:"defaults,omitempty"`

	// Clients maps client ids to their overrides.
	Clients map[int64]ClientConfig `yaml:"clients,omitempty"`

	OpenAI OpenAIConfig `yaml:"openai,omitempty"`
}

// GetClientConfig returns the configuration for a specific client.
// It merges the client-specific configuration with defaults.
func (cf *File) GetClientConfig(clientID int64) ClientConfig {
	// Start with defaults
	result := cf.Defaults

	cc, ok := cf.Clients[clientID]
	if !ok {
		return result
	}

	if cc.EmbeddingType != "" {
		result.EmbeddingType = cc.EmbeddingType
	}
	if cc.ClusteringMethod != "" {
		result.ClusteringMethod = cc.ClusteringMethod
	}
	if cc.NClusters != 0 {
		result.NClusters = cc.NClusters
	}
	if cc.MinClusterSize != 0 {
		result.MinClusterSize = cc.MinClusterSize
	}
	if cc.MaxClusterSize != 0 {
		result.MaxClusterSize = cc.MaxClusterSize
	}
	if len(cc.FilterDocTypes) > 0 {
		result.FilterDocTypes = cc.FilterDocTypes
	}
	if len(cc.FilterAudience) > 0 {
		result.FilterAudience = cc.FilterAudience
	}
	if cc.SkipSummaries != nil {
		result.SkipSummaries = cc.SkipSummaries
	}
	if cc.OutputDir != "" {
		result.OutputDir = cc.OutputDir
	}
	if cc.Visualize != "" {
		result.Visualize = cc.Visualize
	}
	return result
}
