package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultSystemPrompt is used when no system prompt is configured.
const DefaultSystemPrompt = `You analyze free-text survey comments.

For every comment, split it into one or more statements. For each statement return:
- text: the statement, verbatim or a faithful sub-span of the comment
- sentiment: one of Positive, Neutral, Negative
- category: the name of exactly one listed category, or null if none fits
- related_unit: the name of a listed unit the statement refers to, or null
- suggestion: true if the statement proposes an action or improvement

Respond with a JSON object of the form:
{"results": [{"id": <comment id>, "results": [{"text": "...", "sentiment": "...", "category": "...", "related_unit": null, "suggestion": false}]}]}

Only use category and unit names from the lists provided. Do not invent ids.`

// Compose renders the system and user messages for a request.
// An empty systemPrompt selects DefaultSystemPrompt.
func Compose(req Request, systemPrompt string) (system, user string, err error) {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	var b strings.Builder
	if req.Instructions != "" {
		fmt.Fprintf(&b, "Context:\n%s\n\n", req.Instructions)
	}

	b.WriteString("Categories:\n")
	for _, c := range req.Categories {
		if c.Description != "" {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", c.Name)
		}
	}

	if len(req.Units) > 0 {
		b.WriteString("\nUnits:\n")
		for _, u := range req.Units {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	items, err := json.Marshal(req.Items)
	if err != nil {
		return "", "", fmt.Errorf("encode items: %w", err)
	}
	fmt.Fprintf(&b, "\nComments:\n%s\n", items)

	return systemPrompt, b.String(), nil
}
