package agent

import (
	"fmt"
	"strings"

	"github.com/MrWong99/toolgate/internal/catalog"
	"github.com/MrWong99/toolgate/internal/score"
	"github.com/MrWong99/toolgate/internal/synth"
)

// Profile is the data that distinguishes one provider agent from another.
// The agent machinery itself is generic; everything provider-specific lives
// in these tables.
type Profile struct {
	// Name is the machine name used in config and routing ("linear").
	Name string

	// DisplayName is the human-facing service name ("Linear").
	DisplayName string

	// Directive is the routing token the orchestrator LLM emits to select
	// this provider ("USE_LINEAR_AGENT").
	Directive string

	// RoutingHint lists the topics that should route to this provider,
	// rendered into the classification prompt
	// ("issues, projects, tasks, assignments, project management").
	RoutingHint string

	// EmptyReplyHint completes the apology shown when the analysis LLM
	// returns an empty reply ("Linear issues, projects, cycles, ...").
	EmptyReplyHint string

	// Concepts is the relevance scoring table for this provider's tools.
	Concepts []score.Concept

	// ArgRules are the ordered argument synthesis rules. First match wins.
	ArgRules []synth.Rule
}

// actionConcepts are the verb concepts shared by every provider profile.
func actionConcepts() []score.Concept {
	return []score.Concept{
		{Name: "list", Keywords: []string{"list", "show", "get", "fetch", "display"}, Weight: 1.0},
		{Name: "create", Keywords: []string{"create", "new", "add", "make"}, Weight: 1.0},
		{Name: "update", Keywords: []string{"update", "modify", "change", "edit"}, Weight: 1.0},
		{Name: "delete", Keywords: []string{"delete", "remove", "destroy"}, Weight: 1.0},
	}
}

// LinearProfile returns the built-in profile for the Linear issue tracker.
func LinearProfile() Profile {
	return Profile{
		Name:           "linear",
		DisplayName:    "Linear",
		Directive:      "USE_LINEAR_AGENT",
		RoutingHint:    "issues, projects, tasks, assignments, project management",
		EmptyReplyHint: "Linear issues, projects, cycles, or other Linear operations",
		Concepts: append(actionConcepts(),
			score.Concept{Name: "issue", Keywords: []string{"issue", "ticket", "task", "bug"}, Weight: 0.8},
			score.Concept{Name: "comment", Keywords: []string{"comment", "reply", "note"}, Weight: 0.8},
			score.Concept{Name: "assign", Keywords: []string{"assign", "allocate"}, Weight: 0.8},
		),
		ArgRules: []synth.Rule{
			{
				Contains: []string{"list", "issue"},
				Build: func(string) map[string]any {
					return map[string]any{"first": 10, "orderBy": "updatedAt"}
				},
			},
			{
				Contains: []string{"create", "issue"},
				Build: func(query string) map[string]any {
					return map[string]any{
						"title":       synth.TitleFromQuery(query),
						"description": query,
					}
				},
			},
			{
				Contains: []string{"update"},
				Build: func(query string) map[string]any {
					return map[string]any{"description": query}
				},
			},
			{
				Contains: []string{"comment"},
				Build: func(query string) map[string]any {
					return map[string]any{"body": query}
				},
			},
		},
	}
}

// GitHubProfile returns the built-in profile for GitHub.
func GitHubProfile() Profile {
	return Profile{
		Name:           "github",
		DisplayName:    "GitHub",
		Directive:      "USE_GITHUB_AGENT",
		RoutingHint:    "repositories, pull requests, code, commits, branches",
		EmptyReplyHint: "GitHub repositories, pull requests, branches, or other GitHub operations",
		Concepts: append(actionConcepts(),
			score.Concept{Name: "repository", Keywords: []string{"repository", "repo", "project"}, Weight: 0.8},
			score.Concept{Name: "pull", Keywords: []string{"pull", "pr", "merge", "review"}, Weight: 0.8},
			score.Concept{Name: "branch", Keywords: []string{"branch", "checkout"}, Weight: 0.8},
			score.Concept{Name: "commit", Keywords: []string{"commit", "change", "push"}, Weight: 0.8},
			score.Concept{Name: "issue", Keywords: []string{"issue", "ticket", "bug"}, Weight: 0.8},
		),
		ArgRules: []synth.Rule{
			{
				Contains: []string{"list"},
				Build: func(string) map[string]any {
					return map[string]any{"per_page": 10, "sort": "updated"}
				},
			},
			{
				Contains: []string{"create", "issue"},
				Build: func(query string) map[string]any {
					return map[string]any{
						"title": synth.TitleFromQuery(query),
						"body":  query,
					}
				},
			},
			{
				Contains: []string{"create", "pull"},
				Build: func(query string) map[string]any {
					return map[string]any{
						"title": synth.TitleFromQuery(query),
						"body":  query,
					}
				},
			},
			{
				Contains: []string{"comment"},
				Build: func(query string) map[string]any {
					return map[string]any{"body": query}
				},
			},
		},
	}
}

// SupabaseProfile returns the built-in profile for Supabase.
func SupabaseProfile() Profile {
	return Profile{
		Name:           "supabase",
		DisplayName:    "Supabase",
		Directive:      "USE_SUPABASE_AGENT",
		RoutingHint:    "databases, tables, records, queries, data storage",
		EmptyReplyHint: "Supabase tables, records, queries, or other Supabase operations",
		Concepts: append(actionConcepts(),
			score.Concept{Name: "table", Keywords: []string{"table", "schema", "database"}, Weight: 0.8},
			score.Concept{Name: "record", Keywords: []string{"record", "row", "data", "entry"}, Weight: 0.8},
			score.Concept{Name: "select", Keywords: []string{"select", "query", "read", "get"}, Weight: 0.8},
			score.Concept{Name: "insert", Keywords: []string{"insert", "add", "create", "new"}, Weight: 0.8},
		),
		ArgRules: []synth.Rule{
			{
				Contains: []string{"list", "table"},
				Build: func(string) map[string]any {
					return map[string]any{}
				},
			},
			{
				Any: []string{"select", "get"},
				Build: func(string) map[string]any {
					return map[string]any{
						"table":   "ai_generated_records",
						"columns": "*",
						"limit":   10,
					}
				},
			},
			{
				Any: []string{"insert", "create"},
				Build: func(query string) map[string]any {
					return map[string]any{
						"table": "ai_generated_records",
						"data":  map[string]any{"query": query},
					}
				},
			},
			{
				Any: []string{"update", "modify"},
				Build: func(string) map[string]any {
					return map[string]any{
						"table":  "ai_generated_records",
						"data":   map[string]any{},
						"filter": map[string]any{"id": "eq.1"},
					}
				},
			},
			{
				Any: []string{"delete", "remove"},
				Build: func(string) map[string]any {
					return map[string]any{
						"table":  "ai_generated_records",
						"filter": map[string]any{"id": "eq.1"},
					}
				},
			},
		},
	}
}

// BuiltinProfiles returns all provider profiles keyed by name.
func BuiltinProfiles() map[string]Profile {
	profiles := []Profile{LinearProfile(), GitHubProfile(), SupabaseProfile()}
	out := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		out[p.Name] = p
	}
	return out
}

// SystemPrompt builds the analysis prompt for this profile against the
// discovered tool catalog. The prompt constrains the model to the listed
// tools and asks it to name the one it would use.
func (p Profile) SystemPrompt(cat *catalog.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s agent. You can ONLY use these %s MCP tools:\n\n", p.DisplayName, p.DisplayName)
	for _, t := range cat.Tools() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	b.WriteString("\nCRITICAL: You are NOT allowed to use any other tools. You can ONLY mention and use the tools listed above.\n")
	b.WriteString("\nWhen a user asks you something:\n")
	b.WriteString("1. Look at the list of tools above\n")
	b.WriteString("2. Find the most appropriate tool for their request\n")
	b.WriteString("3. Mention the exact tool name you would use\n")
	b.WriteString("4. Explain why you chose that tool\n")
	b.WriteString("\nIf no tool matches the request, say: 'I don't have a tool for that request.'\n")
	b.WriteString("\nRemember: ONLY use tools from the list above. Never use any other tools.")
	return b.String()
}
