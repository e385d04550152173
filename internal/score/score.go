// Package score provides the deterministic relevance scorer that ranks a
// provider's tool catalog against a free-text query.
//
// The [Scorer] uses a fixed ordered table of (concept, keyword set, weight)
// triples plus per-token substring boosts. It deliberately avoids LLM calls:
// ranking is pure string work, so identical (query, catalog) input always
// yields an identical ranking and an identical selection.
//
// Score contributions per tool, all additive (scores never decrease):
//
//  1. For every triple whose keyword appears in the query: +weight when the
//     tool's name or description contains the concept string, and +weight×0.7
//     when it contains the keyword itself. Both may fire, across all triples.
//  2. For every whitespace token of the query: +0.5 when the tool name
//     contains it, +0.2 when the description contains it.
//
// Ties keep catalog discovery order (stable sort). A top score of zero means
// no match.
package score

import (
	"sort"
	"strings"

	"github.com/MrWong99/toolgate/internal/catalog"
	"github.com/MrWong99/toolgate/internal/mcp"
)

// Boost weights for raw query-token substring matches.
const (
	keywordFactor  = 0.7
	nameTokenBoost = 0.5
	descTokenBoost = 0.2
)

// Concept is one row of a scoring table: a domain concept, the query
// keywords that signal it, and the weight it contributes.
type Concept struct {
	// Name is the concept string looked for in tool names and descriptions,
	// e.g. "list" or "issue".
	Name string

	// Keywords are the query substrings that trigger this concept,
	// e.g. {"list", "show", "get", "fetch", "display"}.
	Keywords []string

	// Weight is the score added per triggered keyword. Verb concepts
	// conventionally use 1.0, domain nouns 0.8.
	Weight float64
}

// Candidate pairs a catalog tool with its computed relevance score.
type Candidate struct {
	Tool  mcp.ToolDescriptor
	Score float64
}

// Scorer ranks catalogs against queries using a fixed concept table.
// Scorers are immutable after construction and safe for concurrent use.
type Scorer struct {
	concepts []Concept
}

// New creates a Scorer over the given concept table. The table order is
// preserved but does not affect results, since contributions are additive.
func New(concepts []Concept) *Scorer {
	s := &Scorer{concepts: make([]Concept, len(concepts))}
	copy(s.concepts, concepts)
	return s
}

// Score computes the relevance of a single tool for the query. Matching is
// case-insensitive; query should already be lowercased by callers that loop
// over a catalog (Rank does this once).
func (s *Scorer) Score(queryLower string, tool mcp.ToolDescriptor) float64 {
	nameLower := strings.ToLower(tool.Name)
	descLower := strings.ToLower(tool.Description)

	var total float64
	for _, c := range s.concepts {
		for _, kw := range c.Keywords {
			if !strings.Contains(queryLower, kw) {
				continue
			}
			if strings.Contains(nameLower, c.Name) || strings.Contains(descLower, c.Name) {
				total += c.Weight
			}
			if strings.Contains(nameLower, kw) || strings.Contains(descLower, kw) {
				total += c.Weight * keywordFactor
			}
		}
	}

	for _, tok := range strings.Fields(queryLower) {
		if strings.Contains(nameLower, tok) {
			total += nameTokenBoost
		}
		if strings.Contains(descLower, tok) {
			total += descTokenBoost
		}
	}

	return total
}

// Rank scores every catalog tool against query and returns candidates sorted
// by score descending. Equal scores keep discovery order.
func (s *Scorer) Rank(query string, cat *catalog.Catalog) []Candidate {
	queryLower := strings.ToLower(query)

	tools := cat.Tools()
	ranked := make([]Candidate, 0, len(tools))
	for _, t := range tools {
		ranked = append(ranked, Candidate{Tool: t, Score: s.Score(queryLower, t)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Select returns the best-scoring tool for query, or ok=false when no tool
// scores above zero. On a duplicate tool name the first occurrence in
// discovery order wins, because the sort is stable.
func (s *Scorer) Select(query string, cat *catalog.Catalog) (mcp.ToolDescriptor, bool) {
	ranked := s.Rank(query, cat)
	if len(ranked) == 0 || ranked[0].Score <= 0 {
		return mcp.ToolDescriptor{}, false
	}
	return ranked[0].Tool, true
}
