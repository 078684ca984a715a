// Package tools defines the closed set of capabilities the chat agent may
// invoke. Dispatch is catalog-driven: the model picks a tool by name from the
// specs the catalog emits, never by keyword-matching user input.
package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/seniormts/seniormts/provider"
)

// Tool is one agent capability.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Invoke(ctx context.Context, args map[string]interface{}) (string, error)
}

// InvocationError reports a failed tool call. The agent converts it into an
// inline notice in the answer rather than aborting the chat turn.
type InvocationError struct {
	Tool string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %q: %v", e.Tool, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Catalog is an immutable registry of tools, built once at startup.
type Catalog struct {
	tools map[string]Tool
}

func NewCatalog(ts ...Tool) (*Catalog, error) {
	m := make(map[string]Tool, len(ts))
	for _, t := range ts {
		if t.Name() == "" {
			return nil, fmt.Errorf("catalog: tool with empty name")
		}
		if _, dup := m[t.Name()]; dup {
			return nil, fmt.Errorf("catalog: duplicate tool %q", t.Name())
		}
		m[t.Name()] = t
	}
	return &Catalog{tools: m}, nil
}

// Get looks a tool up by name.
func (c *Catalog) Get(name string) (Tool, bool) {
	t, ok := c.tools[name]
	return t, ok
}

// Specs renders the catalog in the shape the generation call expects, sorted
// by name for deterministic prompts.
func (c *Catalog) Specs() []provider.ToolSpec {
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	specs := make([]provider.ToolSpec, 0, len(names))
	for _, name := range names {
		t := c.tools[name]
		specs = append(specs, provider.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return specs
}
