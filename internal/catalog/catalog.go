// Package catalog holds the in-memory tool catalog snapshot for one provider
// session.
//
// A catalog is built once from a discovery call and never mutated: agent
// re-initialization replaces the whole snapshot rather than patching it.
// Insertion order is the server-returned order and is significant: it is the
// tie-break for equal relevance scores and the order of suggestion lists.
package catalog

import (
	"fmt"
	"strings"

	"github.com/MrWong99/toolgate/internal/mcp"
)

// suggestionCount is how many leading catalog entries a suggestion list shows.
const suggestionCount = 5

// descriptionLimit truncates tool descriptions in suggestion lists.
const descriptionLimit = 80

// Catalog is an ordered, immutable snapshot of one provider's tools.
type Catalog struct {
	tools []mcp.ToolDescriptor
}

// New builds a Catalog from discovered descriptors, preserving their order.
// The slice is copied; callers may reuse theirs.
func New(tools []mcp.ToolDescriptor) *Catalog {
	c := &Catalog{tools: make([]mcp.ToolDescriptor, len(tools))}
	copy(c.tools, tools)
	return c
}

// Tools returns the descriptors in discovery order. The returned slice must
// not be mutated by the caller.
func (c *Catalog) Tools() []mcp.ToolDescriptor {
	return c.tools
}

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int {
	return len(c.tools)
}

// Names returns all tool names in discovery order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = t.Name
	}
	return names
}

// Suggestions formats the first few catalog entries as a bulleted list for
// the no-match reply, with descriptions truncated to a display-friendly
// length.
func (c *Catalog) Suggestions() []string {
	n := min(suggestionCount, len(c.tools))
	out := make([]string, 0, n)
	for _, t := range c.tools[:n] {
		out = append(out, fmt.Sprintf("- %s: %s", t.Name, truncate(t.Description, descriptionLimit)))
	}
	return out
}

// SuggestionText renders [Catalog.Suggestions] as one newline-joined block.
func (c *Catalog) SuggestionText() string {
	return strings.Join(c.Suggestions(), "\n")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
