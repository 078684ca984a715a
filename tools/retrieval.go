package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/seniormts/seniormts/retriever"
)

// RetrieverTool exposes one namespace retriever to the agent.
type RetrieverTool struct {
	name        string
	description string
	retriever   *retriever.Retriever
}

func NewRetrieverTool(name, description string, r *retriever.Retriever) *RetrieverTool {
	return &RetrieverTool{name: name, description: description, retriever: r}
}

func (t *RetrieverTool) Name() string        { return t.name }
func (t *RetrieverTool) Description() string { return t.description }

func (t *RetrieverTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "search query to look up",
			},
		},
		"required": []string{"query"},
	}
}

func (t *RetrieverTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", &InvocationError{Tool: t.name, Err: fmt.Errorf("missing required argument: query")}
	}
	hits, err := t.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", &InvocationError{Tool: t.name, Err: err}
	}
	if len(hits) == 0 {
		return "관련 문서를 찾지 못했습니다.", nil
	}
	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(h.Text)
		if src := formatSource(h.Metadata); src != "" {
			b.WriteString("\n(출처: ")
			b.WriteString(src)
			b.WriteString(")")
		}
	}
	return b.String(), nil
}

func formatSource(meta map[string]interface{}) string {
	if meta == nil {
		return ""
	}
	var parts []string
	if s, ok := meta["source"].(string); ok && s != "" {
		parts = append(parts, s)
	}
	switch p := meta["page"].(type) {
	case int:
		parts = append(parts, fmt.Sprintf("p.%d", p))
	case float64:
		parts = append(parts, fmt.Sprintf("p.%d", int(p)))
	}
	if title, ok := meta["title"].(string); ok && title != "" {
		parts = append(parts, title)
	}
	if url, ok := meta["url"].(string); ok && url != "" {
		parts = append(parts, url)
	}
	return strings.Join(parts, ", ")
}
