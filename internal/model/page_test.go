package model

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestPageEffectiveDocType tests doc type precedence.
func TestPageEffectiveDocType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		docType   string
		aiDocType string
		want      string
	}{
		{name: "ai doc type wins", docType: "guide", aiDocType: "tutorial", want: "tutorial"},
		{name: "falls back to crawler doc type", docType: "guide", want: "guide"},
		{name: "blank ai doc type is ignored", docType: "reference", aiDocType: "  ", want: "reference"},
		{name: "unknown when both empty", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &Page{DocType: tt.docType, AIDocType: tt.aiDocType}
			if got := p.EffectiveDocType(); got != tt.want {
				t.Errorf("EffectiveDocType() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestPagePrerequisiteCount tests that only entries naming a concept count.
func TestPagePrerequisiteCount(t *testing.T) {
	t.Parallel()

	p := &Page{
		PrerequisiteChain: []Prerequisite{
			{Concept: "HTTP"},
			{Concept: ""},
			{Concept: "   "},
			{Concept: "JSON", Importance: "essential"},
		},
	}

	if got := p.PrerequisiteCount(); got != 2 {
		t.Errorf("PrerequisiteCount() = %d, want 2", got)
	}
}

// TestPageObjectiveTexts tests objective text selection.
func TestPageObjectiveTexts(t *testing.T) {
	t.Parallel()

	t.Run("prefers embedded objectives", func(t *testing.T) {
		t.Parallel()

		p := &Page{
			ObjectiveEmbeddings: []ObjectiveEmbedding{{Objective: "a"}},
			LearningObjectives:  []LearningObjective{{Objective: "b"}, {Objective: "c"}},
		}
		got := p.ObjectiveTexts()
		if len(got) != 1 || got[0] != "a" {
			t.Errorf("ObjectiveTexts() = %v, want [a]", got)
		}
	})

	t.Run("falls back to structured objectives", func(t *testing.T) {
		t.Parallel()

		p := &Page{LearningObjectives: []LearningObjective{{Objective: "b"}, {Objective: "c"}}}
		got := p.ObjectiveTexts()
		if len(got) != 2 {
			t.Errorf("ObjectiveTexts() = %v, want 2 entries", got)
		}
	})
}

// TestPageJSONFieldNames tests decoding of the analyzer export format.
func TestPageJSONFieldNames(t *testing.T) {
	t.Parallel()

	raw := `{
		"id": 7,
		"title": "Install",
		"ai_doc_type": "getting-started",
		"ai_audience_level": "beginner",
		"page_embedding": [0.1, 0.2],
		"learning_objective_embeddings": [{"objective": "install", "embedding": [1, 0]}],
		"ai_prerequisite_chain": [{"concept": "Shell", "importance": "essential"}],
		"ai_key_concepts": [{"term": "CLI", "is_new": true}],
		"ai_topics": [{"name": "Setup", "relevance": 0.9}],
		"extra": {"legacy_flag": true}
	}`

	var p Page
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if p.ID != 7 || p.Title != "Install" {
		t.Errorf("unexpected identity: %d %q", p.ID, p.Title)
	}
	if p.Difficulty() != DifficultyBeginner {
		t.Errorf("Difficulty() = %v, want beginner", p.Difficulty())
	}
	if len(p.PageEmbedding) != 2 {
		t.Errorf("page embedding length = %d, want 2", len(p.PageEmbedding))
	}
	if len(p.ObjectiveEmbeddings) != 1 || len(p.ObjectiveEmbeddings[0].Embedding) != 2 {
		t.Errorf("objective embeddings not decoded: %+v", p.ObjectiveEmbeddings)
	}
	if len(p.KeyConcepts) != 1 || !p.KeyConcepts[0].IsNew {
		t.Errorf("key concepts not decoded: %+v", p.KeyConcepts)
	}
	if _, ok := p.Extra["legacy_flag"]; !ok {
		t.Error("extra metadata not preserved")
	}
}

// TestDocTypeStage tests the learning order of document types.
func TestDocTypeStage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		docType DocType
		want    int
	}{
		{DocTypeConcept, 1},
		{DocTypeGettingStarted, 2},
		{DocTypeTutorial, 3},
		{DocTypeHowTo, 4},
		{DocTypeGuide, 5},
		{DocTypeReference, 6},
		{DocTypeAPIReference, 7},
		{DocTypeUnknown, 8},
		{"changelog", 8},
		{"", 8},
		{"Tutorial", 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.docType), func(t *testing.T) {
			t.Parallel()

			if got := tt.docType.Stage(); got != tt.want {
				t.Errorf("Stage(%q) = %d, want %d", tt.docType, got, tt.want)
			}
		})
	}
}

// TestParseDifficulty tests difficulty parsing and defaults.
func TestParseDifficulty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		want      Difficulty
		wantHours float64
	}{
		{"beginner", DifficultyBeginner, 0.5},
		{"Intermediate", DifficultyIntermediate, 1.0},
		{"ADVANCED", DifficultyAdvanced, 2.0},
		{"", DifficultyIntermediate, 1.0},
		{"expert", DifficultyIntermediate, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := ParseDifficulty(tt.input)
			if got != tt.want {
				t.Errorf("ParseDifficulty(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.HoursPerModule() != tt.wantHours {
				t.Errorf("HoursPerModule() = %v, want %v", got.HoursPerModule(), tt.wantHours)
			}
		})
	}

	if Difficulty(0).String() != "intermediate" {
		t.Errorf("zero difficulty should render as intermediate")
	}
}

// TestParseEmbeddingSource tests source aliases.
func TestParseEmbeddingSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		want      EmbeddingSource
		wantField string
		wantErr   bool
	}{
		{input: "lo", want: SourceLearningObjective, wantField: "learning_objective_embeddings"},
		{input: "hybrid", want: SourceLearningObjective, wantField: "learning_objective_embeddings"},
		{input: "", want: SourceLearningObjective, wantField: "learning_objective_embeddings"},
		{input: "page", want: SourcePage, wantField: "page_embedding"},
		{input: "page_embedding", want: SourcePage, wantField: "page_embedding"},
		{input: "Section", want: SourceSection, wantField: "section_embeddings"},
		{input: "pixels", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEmbeddingSource(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownEmbeddingSource) {
					t.Errorf("expected ErrUnknownEmbeddingSource, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if got.FieldName() != tt.wantField {
				t.Errorf("FieldName() = %q, want %q", got.FieldName(), tt.wantField)
			}
		})
	}
}

// TestClientNames tests client display name and slug defaults.
func TestClientNames(t *testing.T) {
	t.Parallel()

	named := &Client{ID: 3, Name: "Acme", Slug: "acme"}
	if named.DisplayName() != "Acme" || named.FileSlug() != "acme" {
		t.Errorf("unexpected names: %q %q", named.DisplayName(), named.FileSlug())
	}

	bare := &Client{ID: 3}
	if bare.DisplayName() != "Client 3" {
		t.Errorf("DisplayName() = %q, want %q", bare.DisplayName(), "Client 3")
	}
	if bare.FileSlug() != "client_3" {
		t.Errorf("FileSlug() = %q, want %q", bare.FileSlug(), "client_3")
	}
}

// TestFallbackSummary tests the summary used when summarization fails.
func TestFallbackSummary(t *testing.T) {
	t.Parallel()

	c := &Cluster{ID: 4, Size: 6}
	s := FallbackSummary(c, errors.New("quota exceeded"))

	if s.Name != "Cluster 4" {
		t.Errorf("Name = %q, want %q", s.Name, "Cluster 4")
	}
	if s.Description != "Group of 6 related pages" {
		t.Errorf("Description = %q", s.Description)
	}
	if s.Error != "quota exceeded" {
		t.Errorf("Error = %q", s.Error)
	}
}
