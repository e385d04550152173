// Package synth produces best-effort call payloads for a selected tool from
// the raw query text, without inspecting the tool's declared input schema.
//
// Dispatch is by substring match on the lowercased tool name, evaluated
// against an ordered rule list; the first matching rule wins. Synthesis never
// fails (a tool matched by no rule simply receives an empty payload) and is
// deterministic: the same (tool name, query) pair always yields a
// byte-identical payload.
package synth

import "strings"

// titleLimit caps the length of a title derived from raw query text.
const titleLimit = 50

// Rule maps tool names to a payload builder. A rule matches when the
// lowercased tool name contains every entry of Contains and, if Any is
// non-empty, at least one entry of Any.
type Rule struct {
	// Contains lists lowercase substrings that must all appear in the tool
	// name for the rule to apply. An empty list imposes no requirement.
	Contains []string

	// Any lists lowercase substrings of which at least one must appear in
	// the tool name. An empty list imposes no requirement.
	Any []string

	// Build produces the call payload from the raw query text.
	Build func(query string) map[string]any
}

// Synthesize evaluates rules in order against the tool name and returns the
// payload of the first match, or an empty payload when nothing matches.
func Synthesize(rules []Rule, toolName, query string) map[string]any {
	nameLower := strings.ToLower(toolName)
	for _, r := range rules {
		if matchesAll(nameLower, r.Contains) && matchesAny(nameLower, r.Any) {
			return r.Build(query)
		}
	}
	return map[string]any{}
}

// TitleFromQuery derives a short issue title from free text: the fixed
// literal "Bug Report" when the query mentions a bug, "Feature Request" when
// it mentions a feature, otherwise the first 50 characters of the query.
func TitleFromQuery(query string) string {
	switch {
	case strings.Contains(query, "bug"):
		return "Bug Report"
	case strings.Contains(query, "feature"):
		return "Feature Request"
	}
	r := []rune(query)
	if len(r) <= titleLimit {
		return query
	}
	return string(r[:titleLimit])
}

// matchesAll reports whether nameLower contains every substring.
func matchesAll(nameLower string, subs []string) bool {
	for _, s := range subs {
		if !strings.Contains(nameLower, s) {
			return false
		}
	}
	return true
}

// matchesAny reports whether nameLower contains at least one substring.
// An empty list matches.
func matchesAny(nameLower string, subs []string) bool {
	if len(subs) == 0 {
		return true
	}
	for _, s := range subs {
		if strings.Contains(nameLower, s) {
			return true
		}
	}
	return false
}
