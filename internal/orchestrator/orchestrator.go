// Package orchestrator coordinates query processing across all configured
// provider agents.
//
// Each query flows through exactly one path: classification by the
// [router.Router], then either a provider agent's tool pipeline or the
// classification reply itself. Failures at any stage surface as user-facing
// text; the session loop never sees an error for a processed query.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/toolgate/internal/agent"
	"github.com/MrWong99/toolgate/internal/router"
)

// Result is the outcome of processing one query.
type Result struct {
	// QueryID is a random identifier correlating log lines for this query.
	QueryID string

	// Provider is the agent that handled the query, empty for general and
	// degraded outcomes.
	Provider string

	// Outcome is the routing decision that produced Reply.
	Outcome router.Outcome

	// Reply is the final user-facing text.
	Reply string
}

// Orchestrator routes queries to provider agents.
type Orchestrator struct {
	router *router.Router
	agents map[string]*agent.Agent
	order  []string
	log    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New creates an Orchestrator over the given router and agents. Agent order
// is preserved for status displays.
func New(r *router.Router, agents []*agent.Agent, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		router: r,
		agents: make(map[string]*agent.Agent, len(agents)),
	}
	for _, a := range agents {
		name := a.Profile().Name
		o.agents[name] = a
		o.order = append(o.order, name)
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return o
}

// ProcessQuery handles one query end to end. It never returns an error:
// every failure mode has a user-facing rendering.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string) Result {
	res := Result{QueryID: uuid.NewString()}
	log := o.log.With("query_id", res.QueryID)
	log.Info("processing query", "length", len(query))

	decision := o.router.Classify(ctx, query)
	res.Outcome = decision.Outcome

	switch decision.Outcome {
	case router.General, router.Degraded:
		res.Reply = decision.Reply
		return res
	}

	res.Provider = decision.Provider
	a, ok := o.agents[decision.Provider]
	if !ok {
		log.Error("router selected unknown provider", "provider", decision.Provider)
		res.Reply = fmt.Sprintf("No agent is configured for the %s service.", decision.Provider)
		return res
	}

	if err := a.Init(ctx); err != nil {
		log.Warn("agent initialization failed", "provider", decision.Provider, "error", err)
		res.Reply = renderError(err)
		return res
	}

	reply, err := a.ProcessQuery(ctx, query)
	if err != nil {
		log.Warn("agent query failed", "provider", decision.Provider, "error", err)
		res.Reply = renderError(err)
		return res
	}
	res.Reply = reply
	return res
}

// ProviderStatus pairs a provider name with its rendered connection line.
type ProviderStatus struct {
	Provider string
	Line     string
	Status   agent.ConnectionStatus
}

// SelfTest runs every agent's connectivity check concurrently and returns
// one status line per provider in configuration order. Providers are
// independent endpoints, so parallel checks are safe; per-provider calls
// stay sequential.
func (o *Orchestrator) SelfTest(ctx context.Context) []ProviderStatus {
	lines := make([]string, len(o.order))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range o.order {
		g.Go(func() error {
			lines[i] = o.agents[name].TestConnection(ctx)
			return nil
		})
	}
	// Checks never return errors; failures land in the status line.
	_ = g.Wait()

	out := make([]ProviderStatus, len(o.order))
	for i, name := range o.order {
		out[i] = ProviderStatus{
			Provider: name,
			Line:     lines[i],
			Status:   o.agents[name].Status(),
		}
	}
	return out
}

// Agents returns the agents in configuration order.
func (o *Orchestrator) Agents() []*agent.Agent {
	out := make([]*agent.Agent, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.agents[name])
	}
	return out
}

// renderError converts an internal error into session-display text, with
// friendlier wording for the two failure modes users actually hit.
func renderError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline exceeded"):
		return "LLM request timed out. Try asking a simpler question or try again later."
	case strings.Contains(msg, "rate limit"):
		return "LLM rate limit reached. Please wait a moment and try again."
	}
	return fmt.Sprintf("Error: %s", msg)
}
