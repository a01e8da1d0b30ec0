package summarize

import (
	"fmt"
	"strings"
)

// Prompt limits keep requests within typical context windows.
const (
	maxPromptPages      = 10
	maxPromptObjectives = 5
	maxPromptModules    = 50
)

const summarySystemPrompt = "You are an expert technical documentation curator. " +
	"Generate concise summaries for clusters of related documentation pages."

const categorySystemPrompt = "You are an expert at organizing technical documentation taxonomies. " +
	"Create clear, logical hierarchies."

func summaryPrompt(req ClusterRequest) string {
	c := req.Cluster
	var b strings.Builder

	b.WriteString("Analyze this cluster of related documentation pages and generate a summary.\n\n")
	b.WriteString("**Cluster Info:**\n")
	fmt.Fprintf(&b, "- Size: %d pages\n", c.Size)
	fmt.Fprintf(&b, "- Primary topic: %s\n", c.PrimaryTopic)
	fmt.Fprintf(&b, "- Doc type: %s\n", c.PrimaryDocType)
	fmt.Fprintf(&b, "- Audience: %s\n", c.PrimaryAudience)
	fmt.Fprintf(&b, "- Cohesion: %.2f\n\n", c.Cohesion)

	b.WriteString("**Pages in cluster:**\n")
	for i, p := range req.Pages {
		if i == maxPromptPages {
			fmt.Fprintf(&b, "... and %d more pages\n", len(req.Pages)-maxPromptPages)
			break
		}
		fmt.Fprintf(&b, "- %s", p.Title)
		if p.Summary != "" {
			fmt.Fprintf(&b, ": %s", p.Summary)
		}
		fmt.Fprintf(&b, " [%s, %s]", p.EffectiveDocType(), p.Difficulty())
		objectives := p.ObjectiveTexts()
		if len(objectives) > maxPromptObjectives {
			objectives = objectives[:maxPromptObjectives]
		}
		if len(objectives) > 0 {
			fmt.Fprintf(&b, " | LO: %s", strings.Join(objectives, "; "))
		}
		b.WriteString("\n")
	}

	b.WriteString(`
**Task:** Generate a JSON summary with this structure:
{
  "name": "3-5 word module name",
  "description": "1-2 sentence description of what this module covers",
  "learning_outcomes": ["what users will know or be able to do after this module"],
  "prerequisites": ["concepts or skills needed before starting"],
  "difficulty": "beginner|intermediate|advanced",
  "estimated_hours": number,
  "suggested_order": ["page title", "..."]
}

Focus on a clear, actionable module name, learning outcomes that span all
pages, prerequisites common to the module, and realistic difficulty and
time estimates. Return valid JSON only.`)
	return b.String()
}

func categoryPrompt(modules []ModuleRef) string {
	if len(modules) > maxPromptModules {
		modules = modules[:maxPromptModules]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these %d documentation modules and organize them into logical parent categories.\n\n", len(modules))
	b.WriteString("**Modules:**\n")
	for _, m := range modules {
		fmt.Fprintf(&b, "- %s (topic: %s)\n", m.Name, m.PrimaryTopic)
	}

	b.WriteString(`
**Task:** Group the modules into parent categories of 2-10 modules each.
Group by cloud provider, related technology, functionality, or product
component. Look at the module names, not just the topics.

Return a JSON object with this structure:
{
  "parent_categories": [
    {
      "name": "Parent Category Name (2-4 words)",
      "overview": "2-3 sentences on what the category covers, why it matters, and when to use it",
      "target_audience": "Who this is for",
      "key_technologies": ["Tech1", "Tech2"],
      "prerequisites": ["Category Name"],
      "learning_outcomes": ["Set up and configure X", "Monitor Y in production"],
      "module_names": ["Exact Module Name 1", "Exact Module Name 2"]
    }
  ]
}

Use the EXACT module names from the list above. Return valid JSON only.`)
	return b.String()
}
