// Package provider defines the contracts for the managed language-model and
// embedding services the chat pipeline consumes.
package provider

import "context"

// EmbeddingVariant selects the embedding model variant. Ingestion embeds with
// the passage variant, query time with the query variant; the asymmetry is
// intentional and mixing variants degrades similarity quality.
type EmbeddingVariant string

const (
	VariantQuery   EmbeddingVariant = "query"
	VariantPassage EmbeddingVariant = "passage"
)

// Message is one turn of a conversation in the wire shape chat-completions
// style APIs expect.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is the model's request to invoke one catalog tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object
}

// ToolSpec describes one tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Generation is the model's answer: free text, or one or more tool calls the
// caller must execute and feed back.
type Generation struct {
	Text      string
	ToolCalls []ToolCall
}

// LLM generates a continuation for messages, optionally invoking tools.
type LLM interface {
	Generate(ctx context.Context, messages []Message, tools []ToolSpec) (Generation, error)
}

// Embedder maps texts to fixed-length dense vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string, variant EmbeddingVariant) ([][]float32, error)
}
