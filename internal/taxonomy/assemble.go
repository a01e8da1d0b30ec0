package taxonomy

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/doctaxon/internal/model"
	"github.com/nao1215/doctaxon/internal/order"
)

// hoursPerPage estimates study time for a module without a summary estimate.
const hoursPerPage = 0.5

// maxContentTypes is the number of document types listed per topic.
const maxContentTypes = 3

// Input is everything Assemble combines.
type Input struct {
	Client model.Client

	// Pages are all pages loaded for the build. Their count is the
	// taxonomy's total_pages, whether or not they were clustered.
	Pages []*model.Page

	// Clusters in the order modules should appear.
	Clusters []*model.Cluster

	// Summaries keyed by cluster id. Missing entries use defaults.
	Summaries map[int]model.ClusterSummary

	// Categories with resolved cluster ids. Empty means no grouping is
	// available and every cluster goes under "Documentation".
	Categories []model.Category

	Source         model.EmbeddingSource
	Method         string
	MinClusterSize int
	MaxClusterSize int
	BuildID        string
	Warnings       []string

	// GeneratedAt defaults to the current UTC time.
	GeneratedAt time.Time
}

// Assemble builds the taxonomy tree. Every cluster appears in exactly one
// root topic: clusters no category claims are collected in a trailing
// "Documentation" topic. Topics without clusters are omitted.
func Assemble(in Input) *model.Taxonomy {
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	categories := withFallback(in.Categories, in.Clusters)
	rootTopics := make([]model.RootTopic, 0, len(categories))
	for _, cat := range categories {
		if rt, ok := buildTopic(cat, in.Clusters, in.Summaries); ok {
			rootTopics = append(rootTopics, rt)
		}
	}

	t := &model.Taxonomy{
		ClientID:    in.Client.ID,
		ClientName:  in.Client.DisplayName(),
		GeneratedAt: generated,
		Statistics: model.TaxonomyStatistics{
			TotalPages:     len(in.Pages),
			TotalClusters:  len(in.Clusters),
			TotalTopics:    len(rootTopics),
			EmbeddingField: in.Source.FieldName(),
		},
		Taxonomy: model.TaxonomyTree{RootTopics: rootTopics},
		Metadata: model.TaxonomyMetadata{
			ClusteringMethod: in.Method,
			MinClusterSize:   in.MinClusterSize,
			MaxClusterSize:   in.MaxClusterSize,
			NClusters:        len(in.Clusters),
			BuildID:          in.BuildID,
			Warnings:         in.Warnings,
		},
	}

	if len(in.Clusters) > 0 {
		var size, cohesion float64
		for _, c := range in.Clusters {
			size += float64(c.Size)
			cohesion += c.Cohesion
		}
		t.Statistics.AvgClusterSize = size / float64(len(in.Clusters))
		t.Statistics.AvgCohesion = cohesion / float64(len(in.Clusters))
	}
	return t
}

// withFallback returns the categories to render, adding the fallback
// category for clusters no category claims.
func withFallback(categories []model.Category, clusters []*model.Cluster) []model.Category {
	claimed := make(map[int]bool)
	for _, c := range categories {
		for _, id := range c.ClusterIDs {
			claimed[id] = true
		}
	}

	var unclaimed []int
	for _, c := range clusters {
		if !claimed[c.ID] {
			unclaimed = append(unclaimed, c.ID)
		}
	}
	if len(unclaimed) == 0 {
		return categories
	}

	out := slices.Clone(categories)
	for i := range out {
		if out[i].Name == model.FallbackCategoryName {
			out[i].ClusterIDs = append(slices.Clone(out[i].ClusterIDs), unclaimed...)
			return out
		}
	}
	return append(out, model.FallbackCategory(unclaimed))
}

func buildTopic(cat model.Category, clusters []*model.Cluster, summaries map[int]model.ClusterSummary) (model.RootTopic, bool) {
	assigned := make(map[int]bool, len(cat.ClusterIDs))
	for _, id := range cat.ClusterIDs {
		assigned[id] = true
	}

	topicID := Slug(cat.Name)
	var modules []model.Module
	for _, c := range clusters {
		if assigned[c.ID] {
			modules = append(modules, buildModule(topicID, c, summaries[c.ID]))
		}
	}
	if len(modules) == 0 {
		return model.RootTopic{}, false
	}

	return model.RootTopic{
		ID:               topicID,
		Name:             cat.Name,
		Overview:         cat.Overview,
		TargetAudience:   cat.TargetAudience,
		KeyTechnologies:  orEmpty(cat.KeyTechnologies),
		Prerequisites:    orEmpty(cat.Prerequisites),
		LearningOutcomes: orEmpty(cat.LearningOutcomes),
		Clusters:         modules,
		Statistics:       topicStatistics(modules),
	}, true
}

func buildModule(topicID string, c *model.Cluster, s model.ClusterSummary) model.Module {
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("Module %d", c.ID)
	}
	difficulty := strings.ToLower(strings.TrimSpace(s.Difficulty))
	if difficulty == "" {
		difficulty = c.PrimaryAudience
	}
	if difficulty == "" {
		difficulty = model.DefaultPrimaryAudience
	}
	hours := float64(len(c.Pages)) * hoursPerPage
	if s.EstimatedHours != nil {
		hours = *s.EstimatedHours
	}

	sorted := order.Sort(c.Pages)
	pages := make([]model.ModulePage, 0, len(sorted))
	for _, p := range sorted {
		pages = append(pages, model.NewModulePage(p))
	}

	return model.Module{
		ID:               fmt.Sprintf("%s_%d", topicID, c.ID),
		ClusterID:        c.ID,
		Name:             name,
		Description:      s.Description,
		Difficulty:       difficulty,
		EstimatedHours:   hours,
		Prerequisites:    orEmpty(s.Prerequisites),
		LearningOutcomes: orEmpty(s.LearningOutcomes),
		PrimaryTopic:     c.PrimaryTopic,
		Cohesion:         c.Cohesion,
		Pages:            pages,
	}
}

func topicStatistics(modules []model.Module) model.TopicStatistics {
	stats := model.TopicStatistics{
		TotalModules:        len(modules),
		DifficultyBreakdown: make(map[string]int),
	}

	// Known tiers come first so ties favor the easier tier.
	tiers := make([]string, 0, 3)
	for _, d := range model.Difficulties() {
		stats.DifficultyBreakdown[d.String()] = 0
		tiers = append(tiers, d.String())
	}

	types := make(map[string]int)
	var typeOrder []string
	var cohesion float64
	for _, m := range modules {
		stats.TotalPages += len(m.Pages)
		cohesion += m.Cohesion

		if _, ok := stats.DifficultyBreakdown[m.Difficulty]; !ok {
			tiers = append(tiers, m.Difficulty)
		}
		stats.DifficultyBreakdown[m.Difficulty]++

		for _, p := range m.Pages {
			if _, ok := types[p.AIDocType]; !ok {
				typeOrder = append(typeOrder, p.AIDocType)
			}
			types[p.AIDocType]++
		}
	}

	for _, d := range model.Difficulties() {
		stats.EstimatedHours += float64(stats.DifficultyBreakdown[d.String()]) * d.HoursPerModule()
	}
	stats.EstimatedHours = round(stats.EstimatedHours, 1)
	stats.AvgCohesion = round(cohesion/float64(len(modules)), 2)

	best := tiers[0]
	for _, tier := range tiers[1:] {
		if stats.DifficultyBreakdown[tier] > stats.DifficultyBreakdown[best] {
			best = tier
		}
	}
	stats.PrimaryDifficulty = best

	slices.SortStableFunc(typeOrder, func(a, b string) int {
		return cmp.Compare(types[b], types[a])
	})
	stats.ContentTypes = make(map[string]int, maxContentTypes)
	for _, t := range typeOrder[:min(maxContentTypes, len(typeOrder))] {
		stats.ContentTypes[t] = types[t]
	}
	return stats
}

// Slug turns a category name into a topic id: lowercase with spaces
// replaced by underscores.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
