package order

import (
	"cmp"
	"slices"

	"github.com/nao1215/doctaxon/internal/model"
)

// Key is the sort key of one page. Keys compare field by field.
type Key struct {
	Prerequisites int
	DocTypeStage  int
	Difficulty    int
	Title         string
}

// KeyOf computes the sort key of p.
func KeyOf(p *model.Page) Key {
	return Key{
		Prerequisites: p.PrerequisiteCount(),
		DocTypeStage:  model.DocType(p.EffectiveDocType()).Stage(),
		Difficulty:    p.Difficulty().Stage(),
		Title:         p.Title,
	}
}

// Compare orders keys ascending.
func (k Key) Compare(o Key) int {
	return cmp.Or(
		cmp.Compare(k.Prerequisites, o.Prerequisites),
		cmp.Compare(k.DocTypeStage, o.DocTypeStage),
		cmp.Compare(k.Difficulty, o.Difficulty),
		cmp.Compare(k.Title, o.Title),
	)
}

// Sort returns pages in recommended reading order. The input slice is not
// modified. Nil pages are dropped.
func Sort(pages []*model.Page) []*model.Page {
	type keyed struct {
		page *model.Page
		key  Key
	}

	items := make([]keyed, 0, len(pages))
	for _, p := range pages {
		if p == nil {
			continue
		}
		items = append(items, keyed{page: p, key: KeyOf(p)})
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return a.key.Compare(b.key)
	})

	sorted := make([]*model.Page, len(items))
	for i, it := range items {
		sorted[i] = it.page
	}
	return sorted
}
