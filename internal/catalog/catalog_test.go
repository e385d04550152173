package catalog

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/MrWong99/toolgate/internal/mcp"
)

// TestSuggestions_FirstFiveInOrder verifies that a catalog of more than five
// tools suggests exactly the first five, in discovery order.
func TestSuggestions_FirstFiveInOrder(t *testing.T) {
	t.Parallel()

	tools := make([]mcp.ToolDescriptor, 8)
	for i := range tools {
		tools[i] = mcp.ToolDescriptor{
			Name:        fmt.Sprintf("TOOL_%d", i),
			Description: fmt.Sprintf("does thing %d", i),
		}
	}
	c := New(tools)

	got := c.Suggestions()
	if len(got) != 5 {
		t.Fatalf("got %d suggestions, want 5", len(got))
	}
	for i, line := range got {
		want := fmt.Sprintf("- TOOL_%d: does thing %d", i, i)
		if line != want {
			t.Errorf("suggestion[%d] = %q, want %q", i, line, want)
		}
	}
}

// TestSuggestions_TruncatesDescriptions verifies the 80-rune description cap,
// counting runes rather than bytes.
func TestSuggestions_TruncatesDescriptions(t *testing.T) {
	t.Parallel()

	longASCII := strings.Repeat("x", 200)
	longRunes := strings.Repeat("ü", 100)

	c := New([]mcp.ToolDescriptor{
		{Name: "A", Description: longASCII},
		{Name: "B", Description: longRunes},
	})

	got := c.Suggestions()
	for _, line := range got {
		_, desc, ok := strings.Cut(line, ": ")
		if !ok {
			t.Fatalf("malformed suggestion %q", line)
		}
		if n := utf8.RuneCountInString(desc); n != 80 {
			t.Errorf("description length = %d runes, want 80: %q", n, line)
		}
	}
}

// TestSuggestions_SmallCatalog verifies that catalogs under five entries
// suggest everything they have.
func TestSuggestions_SmallCatalog(t *testing.T) {
	t.Parallel()

	c := New([]mcp.ToolDescriptor{
		{Name: "ONLY", Description: "the single tool"},
	})
	got := c.Suggestions()
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	if got[0] != "- ONLY: the single tool" {
		t.Errorf("suggestion = %q", got[0])
	}
}

// TestNew_CopiesInput verifies the snapshot is isolated from the caller's
// slice.
func TestNew_CopiesInput(t *testing.T) {
	t.Parallel()

	tools := []mcp.ToolDescriptor{{Name: "A"}}
	c := New(tools)
	tools[0].Name = "MUTATED"

	if c.Tools()[0].Name != "A" {
		t.Error("catalog shares memory with the input slice")
	}
}
