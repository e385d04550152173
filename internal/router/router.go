// Package router classifies incoming queries into a provider route or a
// general answer.
//
// Classification asks the LLM to prefix provider-specific requests with a
// fixed directive token; the reply is then scanned for those tokens. A reply
// without any token is itself the answer (general conversation). LLM trouble
// degrades to a canned apology instead of failing the query.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/toolgate/internal/agent"
	"github.com/MrWong99/toolgate/internal/observe"
	"github.com/MrWong99/toolgate/pkg/provider/llm"
)

// defaultClassifyTimeout bounds the classification completion.
const defaultClassifyTimeout = 60 * time.Second

// classifyMaxTokens caps the classification reply; general answers can be a
// few paragraphs, directives are one line.
const classifyMaxTokens = 4096

// Outcome is the kind of routing decision reached for a query.
type Outcome int

const (
	// Routed means a provider directive was found in the reply.
	Routed Outcome = iota

	// General means the reply contains no directive and is the final answer.
	General

	// Degraded means the classification call timed out, failed, or returned
	// nothing; Reply holds an apology.
	Degraded
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Routed:
		return "routed"
	case General:
		return "general"
	case Degraded:
		return "degraded"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Decision is the result of classifying one query.
type Decision struct {
	// Outcome tells the coordinator how to treat Reply.
	Outcome Outcome

	// Provider is the selected profile name when Outcome is Routed.
	Provider string

	// Reply is the raw classification text. For Routed decisions it is kept
	// for display alongside the agent's answer; for General and Degraded it
	// is the final answer itself.
	Reply string
}

// Router performs LLM-backed query classification over a fixed profile set.
type Router struct {
	llm      llm.Provider
	profiles []agent.Profile
	metrics  *observe.Metrics
	log      *slog.Logger
	timeout  time.Duration
	prompt   string
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithClassifyTimeout overrides the classification deadline. Mainly useful
// in tests.
func WithClassifyTimeout(d time.Duration) Option {
	return func(r *Router) { r.timeout = d }
}

// New creates a Router over the given provider profiles. Profile order is
// the directive scan order and is preserved.
func New(provider llm.Provider, profiles []agent.Profile, opts ...Option) *Router {
	r := &Router{
		llm:      provider,
		profiles: profiles,
		timeout:  defaultClassifyTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	r.prompt = buildClassifyPrompt(profiles)
	return r
}

// Classify routes one query. It never returns an error: LLM trouble produces
// a Degraded decision whose Reply is a user-facing apology.
func (r *Router) Classify(ctx context.Context, query string) Decision {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: r.prompt,
		Messages:     []llm.Message{{Role: "user", Content: query}},
		MaxTokens:    classifyMaxTokens,
	})
	r.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		r.log.Warn("classification timed out", "timeout", r.timeout)
		return r.degraded(ctx, "I took too long to process your request. Please try again with a simpler query.")
	case err != nil:
		r.log.Warn("classification failed", "error", err)
		return r.degraded(ctx, "I encountered an error processing your request. Please try again or rephrase your question.")
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return r.degraded(ctx, "I couldn't understand your request. Please try rephrasing it.")
	}

	for _, p := range r.profiles {
		if strings.Contains(reply, p.Directive) {
			r.metrics.RecordRouterDecision(ctx, p.Name)
			r.log.Debug("query routed", "provider", p.Name)
			return Decision{Outcome: Routed, Provider: p.Name, Reply: reply}
		}
	}

	r.metrics.RecordRouterDecision(ctx, "general")
	return Decision{Outcome: General, Reply: reply}
}

func (r *Router) degraded(ctx context.Context, apology string) Decision {
	r.metrics.RecordRouterDecision(ctx, "degraded")
	return Decision{Outcome: Degraded, Reply: apology}
}

// buildClassifyPrompt renders the routing instruction listing each profile's
// topics and directive token.
func buildClassifyPrompt(profiles []agent.Profile) string {
	var b strings.Builder
	b.WriteString("You are a routing orchestrator that decides which service to use for user requests.\n\n")
	b.WriteString("When users ask about:\n")
	for _, p := range profiles {
		fmt.Fprintf(&b, "- %s: %s -> respond with '%s'\n", p.DisplayName, p.RoutingHint, p.Directive)
	}
	b.WriteString("- General questions or greetings -> respond normally\n\n")
	b.WriteString("For service-specific requests, start your response with the service directive ")
	if len(profiles) > 0 {
		fmt.Fprintf(&b, "(e.g., '%s: ') ", profiles[0].Directive)
	}
	b.WriteString("followed by the original query.")
	return b.String()
}
