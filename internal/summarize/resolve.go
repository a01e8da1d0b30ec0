package summarize

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/nao1215/doctaxon/internal/model"
)

// ResolveCategories maps the module names of each category back to
// cluster ids. Matching ignores case and surrounding space. A module name
// claimed by several categories stays with the first. Categories that
// match no module are dropped.
func ResolveCategories(categories []model.Category, modules []ModuleRef) []model.Category {
	fold := cases.Fold()
	byName := make(map[string]int, len(modules))
	for _, m := range modules {
		key := fold.String(strings.TrimSpace(m.Name))
		if _, ok := byName[key]; !ok {
			byName[key] = m.ClusterID
		}
	}

	claimed := make(map[int]bool)
	resolved := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		c.ClusterIDs = nil
		for _, name := range c.ModuleNames {
			id, ok := byName[fold.String(strings.TrimSpace(name))]
			if !ok || claimed[id] {
				continue
			}
			claimed[id] = true
			c.ClusterIDs = append(c.ClusterIDs, id)
		}
		if len(c.ClusterIDs) == 0 {
			continue
		}
		resolved = append(resolved, c)
	}
	return resolved
}
