package order

import (
	"slices"
	"testing"

	"github.com/nao1215/doctaxon/internal/model"
)

func prereqs(n int) []model.Prerequisite {
	out := make([]model.Prerequisite, n)
	for i := range out {
		out[i] = model.Prerequisite{Concept: "concept"}
	}
	return out
}

func titles(pages []*model.Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Title
	}
	return out
}

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		pages []*model.Page
		want  []string
	}{
		{
			name: "fewer prerequisites first, then title",
			pages: []*model.Page{
				{Title: "B", DocType: "tutorial", PrerequisiteChain: prereqs(2)},
				{Title: "A", DocType: "concept"},
				{Title: "C", DocType: "concept"},
			},
			want: []string{"A", "C", "B"},
		},
		{
			name: "doc type stage with ai type preferred",
			pages: []*model.Page{
				{Title: "ref", DocType: "reference"},
				{Title: "api", AIDocType: "api-reference", DocType: "concept"},
				{Title: "other", DocType: "blog"},
				{Title: "start", DocType: "getting-started"},
			},
			want: []string{"start", "ref", "api", "other"},
		},
		{
			name: "difficulty with unknown as intermediate",
			pages: []*model.Page{
				{Title: "x", AudienceLevel: "advanced"},
				{Title: "y"},
				{Title: "z", AudienceLevel: "beginner"},
				{Title: "w", AudienceLevel: "intermediate"},
			},
			want: []string{"z", "w", "y", "x"},
		},
		{
			name: "blank prerequisite concepts do not count",
			pages: []*model.Page{
				{Title: "b", PrerequisiteChain: []model.Prerequisite{{Concept: " "}}},
				{Title: "a", PrerequisiteChain: prereqs(1)},
			},
			want: []string{"b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := titles(Sort(tt.pages)); !slices.Equal(got, tt.want) {
				t.Errorf("Sort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{{Title: "b"}, nil, {Title: "a"}}
	got := Sort(pages)

	if len(got) != 2 {
		t.Fatalf("got %d pages, want 2 (nil dropped)", len(got))
	}
	if pages[0].Title != "b" || pages[1] != nil || pages[2].Title != "a" {
		t.Error("input slice was modified")
	}
}

func TestSort_Idempotent(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{Title: "d", DocType: "guide", AudienceLevel: "advanced"},
		{Title: "a", DocType: "how-to", PrerequisiteChain: prereqs(3)},
		{Title: "c", DocType: "concept"},
		{Title: "b", DocType: "concept"},
	}
	once := Sort(pages)
	twice := Sort(once)
	if !slices.Equal(titles(once), titles(twice)) {
		t.Errorf("sorting twice changed order: %v vs %v", titles(once), titles(twice))
	}
}
