// Package agent implements the provider agents that turn natural-language
// queries into MCP tool invocations.
//
// One [Agent] serves one provider endpoint. The machinery is generic; the
// provider-specific behaviour (scoring table, argument rules, prompts) comes
// entirely from a [Profile]. An agent discovers its tool catalog up front,
// asks the LLM to analyse each query against that catalog, and falls back to
// deterministic scoring when the model's reply names no known tool.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/toolgate/internal/catalog"
	"github.com/MrWong99/toolgate/internal/mcp"
	"github.com/MrWong99/toolgate/internal/observe"
	"github.com/MrWong99/toolgate/internal/score"
	"github.com/MrWong99/toolgate/internal/synth"
	"github.com/MrWong99/toolgate/pkg/provider/llm"
)

// defaultAnalysisTimeout bounds the per-query analysis completion.
const defaultAnalysisTimeout = 60 * time.Second

// Analysis LLM tuning: one focused reply, no exploration.
const (
	analysisTemperature = 0.1
	analysisMaxTokens   = 2048
)

// ErrNotConnected is returned by ProcessQuery when the agent has no catalog,
// either because Init was never called or because the connection check failed.
var ErrNotConnected = errors.New("agent: provider not connected")

// Agent handles queries for a single tool provider.
type Agent struct {
	profile Profile
	client  mcp.Client
	llm     llm.Provider
	scorer  *score.Scorer
	metrics *observe.Metrics
	log     *slog.Logger

	analysisTimeout time.Duration

	mu     sync.Mutex
	cat    *catalog.Catalog
	status ConnectionStatus
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.log = l }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithAnalysisTimeout overrides the per-query LLM analysis deadline.
// Mainly useful in tests.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(a *Agent) { a.analysisTimeout = d }
}

// New creates an Agent for the given profile. Call [Agent.Init] before
// processing queries.
func New(profile Profile, client mcp.Client, provider llm.Provider, opts ...Option) *Agent {
	a := &Agent{
		profile:         profile,
		client:          client,
		llm:             provider,
		scorer:          score.New(profile.Concepts),
		analysisTimeout: defaultAnalysisTimeout,
		status:          ConnectionStatus{State: StateNotTested},
	}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	a.log = a.log.With("provider", profile.Name)
	return a
}

// Profile returns the agent's provider profile.
func (a *Agent) Profile() Profile {
	return a.profile
}

// Init discovers the provider's tool catalog and records the connection
// status. A failed check is terminal for the session: later calls return the
// recorded failure without contacting the provider again.
func (a *Agent) Init(ctx context.Context) error {
	a.mu.Lock()
	if a.status.State == StateFailed {
		reason := a.status.Reason
		a.mu.Unlock()
		return fmt.Errorf("agent: %s connection previously failed: %s", a.profile.Name, reason)
	}
	if a.status.State == StateConnected {
		a.mu.Unlock()
		return nil
	}
	a.status = ConnectionStatus{State: StatePending}
	a.mu.Unlock()

	start := time.Now()
	tools, err := a.client.DiscoverTools(ctx)
	a.metrics.DiscoveryDuration.Record(ctx, time.Since(start).Seconds())

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.status = ConnectionStatus{State: StateFailed, Reason: err.Error()}
		a.metrics.RecordProviderError(ctx, a.profile.Name, "discovery")
		a.log.Error("tool discovery failed", "error", err)
		return fmt.Errorf("agent: %s tool discovery: %w", a.profile.Name, err)
	}

	a.cat = catalog.New(tools)
	a.status = ConnectionStatus{State: StateConnected}
	a.metrics.ConnectedProviders.Add(ctx, 1)
	a.log.Info("tool discovery complete", "tools", len(tools))
	return nil
}

// Status returns the current connection status.
func (a *Agent) Status() ConnectionStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// TestConnection runs Init and renders the outcome as a status line for the
// session display.
func (a *Agent) TestConnection(ctx context.Context) string {
	if err := a.Init(ctx); err != nil {
		return fmt.Sprintf("%s MCP connection failed: %s", a.profile.DisplayName, err)
	}
	a.mu.Lock()
	n := a.cat.Len()
	a.mu.Unlock()
	return fmt.Sprintf("%s MCP connection successful! Found %d tools", a.profile.DisplayName, n)
}

// AvailableOperations returns the discovered tool names, or nil before a
// successful Init.
func (a *Agent) AvailableOperations() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cat == nil {
		return nil
	}
	return a.cat.Names()
}

// ProcessQuery answers one natural-language query. The returned string is
// always a user-facing reply; an error is returned only when the agent has no
// catalog to work against. LLM trouble (timeout, failure, empty reply) is
// reported to the user as an apology rather than an error.
func (a *Agent) ProcessQuery(ctx context.Context, query string) (string, error) {
	a.mu.Lock()
	cat := a.cat
	a.mu.Unlock()
	if cat == nil {
		return "", ErrNotConnected
	}

	analysis, state := a.analyze(ctx, cat, query)
	switch state {
	case analysisTimedOut:
		return "I took too long to process your request. Please try again with a simpler query.", nil
	case analysisFailed:
		return "I encountered an error processing your request. Please try again or rephrase your question.", nil
	case analysisEmpty:
		return fmt.Sprintf("I couldn't understand your request. Please try asking about %s.", a.profile.EmptyReplyHint), nil
	}

	outcome := a.executeGuided(ctx, cat, query, analysis)
	return fmt.Sprintf("LLM Analysis: %s\n\n%s Operation: %s", analysis, a.profile.DisplayName, outcome), nil
}

// analysisState classifies the result of the analysis completion.
type analysisState int

const (
	analysisOK analysisState = iota
	analysisTimedOut
	analysisFailed
	analysisEmpty
)

// analyze runs the deadline-bounded analysis completion against the catalog.
func (a *Agent) analyze(ctx context.Context, cat *catalog.Catalog, query string) (string, analysisState) {
	ctx, cancel := context.WithTimeout(ctx, a.analysisTimeout)
	defer cancel()

	start := time.Now()
	resp, err := a.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: a.profile.SystemPrompt(cat),
		Messages:     []llm.Message{{Role: "user", Content: query}},
		Temperature:  analysisTemperature,
		MaxTokens:    analysisMaxTokens,
	})
	a.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		a.log.Warn("analysis completion timed out", "timeout", a.analysisTimeout)
		return "", analysisTimedOut
	case err != nil:
		a.log.Warn("analysis completion failed", "error", err)
		return "", analysisFailed
	}

	analysis := strings.TrimSpace(resp.Content)
	if analysis == "" {
		return "", analysisEmpty
	}
	return analysis, analysisOK
}

// executeGuided prefers tools the analysis reply mentions by name or
// description; when the reply names none, it falls back to plain relevance
// ranking over the whole catalog.
func (a *Agent) executeGuided(ctx context.Context, cat *catalog.Catalog, query, analysis string) string {
	queryLower := strings.ToLower(query)
	analysisLower := strings.ToLower(analysis)

	var best *mcp.ToolDescriptor
	var bestScore float64
	for _, t := range cat.Tools() {
		mentioned := strings.Contains(analysisLower, strings.ToLower(t.Name)) ||
			strings.Contains(analysisLower, strings.ToLower(t.Description))
		if !mentioned {
			continue
		}
		if s := a.scorer.Score(queryLower, t); s > bestScore {
			bestScore = s
			tool := t
			best = &tool
		}
	}

	if best == nil {
		return a.executeRanked(ctx, cat, query)
	}
	return a.invoke(ctx, *best, query)
}

// executeRanked selects the best-scoring tool deterministically, or renders
// the no-match suggestion reply.
func (a *Agent) executeRanked(ctx context.Context, cat *catalog.Catalog, query string) string {
	tool, ok := a.scorer.Select(query, cat)
	if !ok {
		return fmt.Sprintf(
			"No relevant %s tool found for your query: '%s'\n\nAvailable tools (showing top 5):\n%s",
			a.profile.DisplayName, query, cat.SuggestionText(),
		)
	}
	return a.invoke(ctx, tool, query)
}

// invoke synthesizes arguments for the tool, calls it, and renders the
// outcome. Invocation failures are part of the reply, not errors: answering
// "that call failed" is itself a successful query outcome.
func (a *Agent) invoke(ctx context.Context, tool mcp.ToolDescriptor, query string) string {
	args := synth.Synthesize(a.profile.ArgRules, tool.Name, query)

	start := time.Now()
	result, err := a.client.InvokeTool(ctx, tool.Name, args)
	a.metrics.ToolExecutionDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		a.metrics.RecordToolCall(ctx, tool.Name, "error")
		a.log.Warn("tool invocation failed", "tool", tool.Name, "error", err)
		return fmt.Sprintf("Failed to execute %s: %s", tool.Name, err)
	}
	a.metrics.RecordToolCall(ctx, tool.Name, "ok")
	return fmt.Sprintf("Successfully executed %s: %v", tool.Name, result)
}
