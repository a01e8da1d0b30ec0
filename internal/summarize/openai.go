package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nao1215/doctaxon/internal/model"
)

// Defaults for the OpenAI adapter.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.3
	DefaultTimeout     = 60 * time.Second
)

// OpenAI summarizes and categorizes through the chat completions API.
// It is safe for concurrent use.
type OpenAI struct {
	client      *goopenai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

var (
	_ Summarizer  = (*OpenAI)(nil)
	_ Categorizer = (*OpenAI)(nil)
)

type openAIOptions struct {
	model       string
	baseURL     string
	httpClient  *http.Client
	temperature float32
	timeout     time.Duration
}

// OpenAIOption configures NewOpenAI.
type OpenAIOption func(*openAIOptions)

// WithModel sets the chat model.
func WithModel(name string) OpenAIOption {
	return func(o *openAIOptions) {
		o.model = name
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(o *openAIOptions) {
		o.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *openAIOptions) {
		o.httpClient = c
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) OpenAIOption {
	return func(o *openAIOptions) {
		o.temperature = t
	}
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(o *openAIOptions) {
		o.timeout = d
	}
}

// NewOpenAI creates the adapter. token must be non-empty.
func NewOpenAI(token string, opts ...OpenAIOption) (*OpenAI, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingAPIKey
	}

	o := &openAIOptions{
		model:       DefaultModel,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	config := goopenai.DefaultConfig(token)
	if o.baseURL != "" {
		config.BaseURL = o.baseURL
	}
	if o.httpClient != nil {
		config.HTTPClient = o.httpClient
	}

	return &OpenAI{
		client:      goopenai.NewClientWithConfig(config),
		model:       o.model,
		temperature: o.temperature,
		timeout:     o.timeout,
	}, nil
}

// summaryResponse is the JSON the model is asked to produce.
type summaryResponse struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	LearningOutcomes []string `json:"learning_outcomes"`
	Prerequisites    []string `json:"prerequisites"`
	Difficulty       string   `json:"difficulty"`
	EstimatedHours   hours    `json:"estimated_hours"`
	SuggestedOrder   []string `json:"suggested_order"`
}

// Summarize implements Summarizer.
func (o *OpenAI) Summarize(ctx context.Context, req ClusterRequest) (model.ClusterSummary, error) {
	content, err := o.complete(ctx, summarySystemPrompt, summaryPrompt(req))
	if err != nil {
		return model.ClusterSummary{}, err
	}

	var resp summaryResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return model.ClusterSummary{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(resp.Name) == "" {
		return model.ClusterSummary{}, fmt.Errorf("%w: summary has no name", ErrMalformedResponse)
	}

	return model.ClusterSummary{
		Name:             strings.TrimSpace(resp.Name),
		Description:      resp.Description,
		LearningOutcomes: resp.LearningOutcomes,
		Prerequisites:    resp.Prerequisites,
		Difficulty:       strings.ToLower(strings.TrimSpace(resp.Difficulty)),
		EstimatedHours:   resp.EstimatedHours.value,
		SuggestedOrder:   resp.SuggestedOrder,
	}, nil
}

type categoryResponse struct {
	ParentCategories []struct {
		Name             string   `json:"name"`
		Overview         string   `json:"overview"`
		Description      string   `json:"description"`
		TargetAudience   string   `json:"target_audience"`
		KeyTechnologies  []string `json:"key_technologies"`
		Prerequisites    []string `json:"prerequisites"`
		LearningOutcomes []string `json:"learning_outcomes"`
		ModuleNames      []string `json:"module_names"`
	} `json:"parent_categories"`
}

// Categorize implements Categorizer. The returned categories carry module
// names only; use ResolveCategories to map them to clusters.
func (o *OpenAI) Categorize(ctx context.Context, modules []ModuleRef) ([]model.Category, error) {
	content, err := o.complete(ctx, categorySystemPrompt, categoryPrompt(modules))
	if err != nil {
		return nil, err
	}

	var resp categoryResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	categories := make([]model.Category, 0, len(resp.ParentCategories))
	for _, pc := range resp.ParentCategories {
		if strings.TrimSpace(pc.Name) == "" {
			continue
		}
		overview := pc.Overview
		if overview == "" {
			overview = pc.Description
		}
		categories = append(categories, model.Category{
			Name:             strings.TrimSpace(pc.Name),
			Overview:         overview,
			TargetAudience:   pc.TargetAudience,
			KeyTechnologies:  nonNil(pc.KeyTechnologies),
			Prerequisites:    nonNil(pc.Prerequisites),
			LearningOutcomes: nonNil(pc.LearningOutcomes),
			ModuleNames:      pc.ModuleNames,
		})
	}
	return categories, nil
}

// complete sends one JSON-mode chat completion and returns its content.
func (o *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	resp, err := o.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: o.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: user},
		},
		Temperature: o.temperature,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// hours decodes a number or a numeric string. Anything else decodes to
// no estimate.
type hours struct {
	value *float64
}

func (h *hours) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return nil
	}
	h.value = &v
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
