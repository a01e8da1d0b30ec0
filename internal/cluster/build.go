package cluster

import (
	"slices"
	"strings"

	"github.com/nao1215/doctaxon/internal/model"
)

// BuildClusters groups units by label and characterizes each group.
// Units labelled Noise are skipped. pages resolves unit page ids; units
// whose page is missing still count toward the page ids.
//
// The result is sorted by descending page count. Equal sizes keep the
// order in which labels first appear.
func BuildClusters(units []model.Unit, labels []int, pages []*model.Page) []*model.Cluster {
	byID := make(map[int64]*model.Page, len(pages))
	for _, p := range pages {
		if p != nil {
			byID[p.ID] = p
		}
	}

	var order []int
	members := make(map[int][]int)
	for i, l := range labels {
		if l == Noise || i >= len(units) {
			continue
		}
		if _, ok := members[l]; !ok {
			order = append(order, l)
		}
		members[l] = append(members[l], i)
	}

	clusters := make([]*model.Cluster, 0, len(order))
	for _, l := range order {
		clusters = append(clusters, buildCluster(l, units, members[l], byID))
	}

	slices.SortStableFunc(clusters, func(a, b *model.Cluster) int {
		return b.Size - a.Size
	})
	return clusters
}

func buildCluster(id int, units []model.Unit, idx []int, pages map[int64]*model.Page) *model.Cluster {
	c := &model.Cluster{
		ID:        id,
		UnitCount: len(idx),
	}

	seen := make(map[int64]struct{}, len(idx))
	vectors := make([][]float64, 0, len(idx))
	topics := newCounter()
	docTypes := newCounter()
	audiences := newCounter()

	for _, i := range idx {
		u := units[i]
		vectors = append(vectors, u.Vector)

		if _, ok := seen[u.PageID]; !ok {
			seen[u.PageID] = struct{}{}
			c.PageIDs = append(c.PageIDs, u.PageID)
			if p, ok := pages[u.PageID]; ok {
				c.Pages = append(c.Pages, p)
			}
		}

		for _, t := range u.Meta.Topics {
			c.Topics = append(c.Topics, t)
			topics.add(t.Name)
		}
		c.LearningObjectives = append(c.LearningObjectives, u.Meta.LearningObjectives...)

		docType := u.Meta.AIDocType
		if strings.TrimSpace(docType) == "" {
			docType = u.Meta.DocType
		}
		docTypes.add(docType)
		audiences.add(u.Meta.AudienceLevel)
	}

	c.Size = len(c.PageIDs)
	c.PrimaryTopic = topics.mode(model.DefaultPrimaryTopic)
	c.PrimaryDocType = docTypes.mode(model.DefaultPrimaryDocType)
	c.PrimaryAudience = audiences.mode(model.DefaultPrimaryAudience)
	c.Cohesion = Cohesion(vectors)
	return c
}

// counter finds the most frequent non-blank string. Ties go to the
// value seen first.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if _, ok := c.counts[s]; !ok {
		c.order = append(c.order, s)
	}
	c.counts[s]++
}

func (c *counter) mode(fallback string) string {
	best := fallback
	bestCount := 0
	for _, s := range c.order {
		if c.counts[s] > bestCount {
			best = s
			bestCount = c.counts[s]
		}
	}
	return best
}
