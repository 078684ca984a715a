package tools

import (
	"context"
	"testing"
)

type staticTool struct {
	name string
	out  string
	err  error
}

func (s staticTool) Name() string        { return s.name }
func (s staticTool) Description() string { return "static test tool" }
func (s staticTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}
func (s staticTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	return s.out, s.err
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog(staticTool{name: "search"}, staticTool{name: "search"})
	if err == nil {
		t.Fatal("expected error for duplicate tool names")
	}
}

func TestNewCatalogRejectsEmptyName(t *testing.T) {
	if _, err := NewCatalog(staticTool{name: ""}); err == nil {
		t.Fatal("expected error for an unnamed tool")
	}
}

func TestCatalogGet(t *testing.T) {
	c, err := NewCatalog(staticTool{name: "alpha"}, staticTool{name: "beta"})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if _, ok := c.Get("alpha"); !ok {
		t.Fatal("registered tool not found")
	}
	if _, ok := c.Get("gamma"); ok {
		t.Fatal("unregistered tool found")
	}
}

func TestCatalogSpecsSortedByName(t *testing.T) {
	c, err := NewCatalog(staticTool{name: "zeta"}, staticTool{name: "alpha"}, staticTool{name: "mid"})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	specs := c.Specs()
	if len(specs) != 3 {
		t.Fatalf("got %d specs, want 3", len(specs))
	}
	for i := 1; i < len(specs); i++ {
		if specs[i-1].Name >= specs[i].Name {
			t.Fatalf("specs not sorted: %s before %s", specs[i-1].Name, specs[i].Name)
		}
	}
}

func TestInvocationErrorUnwrap(t *testing.T) {
	inner := context.DeadlineExceeded
	err := &InvocationError{Tool: "search", Err: inner}
	if err.Unwrap() != inner {
		t.Fatal("Unwrap did not return the inner error")
	}
	if err.Error() == "" {
		t.Fatal("empty error string")
	}
}
