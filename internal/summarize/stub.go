package summarize

import (
	"context"
	"fmt"

	"github.com/nao1215/doctaxon/internal/model"
)

// Stub is a deterministic summarizer and categorizer that needs no
// network. It names clusters after their primary topic and groups
// modules by topic category.
type Stub struct{}

var (
	_ Summarizer  = Stub{}
	_ Categorizer = Stub{}
)

// Summarize implements Summarizer.
func (Stub) Summarize(_ context.Context, req ClusterRequest) (model.ClusterSummary, error) {
	c := req.Cluster
	name := c.PrimaryTopic
	if name == "" || name == model.DefaultPrimaryTopic {
		name = fmt.Sprintf("Cluster %d", c.ID)
	}
	hours := float64(c.Size) * 0.5

	var outcomes []string
	seen := make(map[string]bool)
	for _, p := range req.Pages {
		for _, o := range p.ObjectiveTexts() {
			if o == "" || seen[o] {
				continue
			}
			seen[o] = true
			outcomes = append(outcomes, o)
			if len(outcomes) == maxPromptObjectives {
				break
			}
		}
		if len(outcomes) == maxPromptObjectives {
			break
		}
	}

	return model.ClusterSummary{
		Name:             name,
		Description:      fmt.Sprintf("Group of %d related pages", c.Size),
		LearningOutcomes: outcomes,
		Difficulty:       model.ParseDifficulty(c.PrimaryAudience).String(),
		EstimatedHours:   &hours,
	}, nil
}

// Categorize implements Categorizer. Modules sharing a topic category,
// or a primary topic when no category is known, form one category.
// Categories appear in the order of their first module.
func (Stub) Categorize(_ context.Context, modules []ModuleRef) ([]model.Category, error) {
	index := make(map[string]int)
	var categories []model.Category
	for _, m := range modules {
		key := m.TopicCategory
		if key == "" {
			key = m.PrimaryTopic
		}
		if key == "" {
			key = model.FallbackCategoryName
		}

		i, ok := index[key]
		if !ok {
			i = len(categories)
			index[key] = i
			categories = append(categories, model.Category{
				Name:             key,
				Overview:         fmt.Sprintf("Modules about %s", key),
				KeyTechnologies:  []string{},
				Prerequisites:    []string{},
				LearningOutcomes: []string{},
			})
		}
		categories[i].ModuleNames = append(categories[i].ModuleNames, m.Name)
	}
	return categories, nil
}
