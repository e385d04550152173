package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/MrWong99/toolgate/internal/agent"
	"github.com/MrWong99/toolgate/internal/mcp"
	mcpmock "github.com/MrWong99/toolgate/internal/mcp/mock"
	"github.com/MrWong99/toolgate/internal/observe"
	"github.com/MrWong99/toolgate/internal/router"
	llmpkg "github.com/MrWong99/toolgate/pkg/provider/llm"
	llmmock "github.com/MrWong99/toolgate/pkg/provider/llm/mock"
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	m, err := observe.NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

// routingProvider replies with a directive for queries containing "issues"
// and a tool mention for the per-agent analysis call; everything else gets a
// plain greeting. It serves both LLM stages in end-to-end tests.
func routingProvider() *llmmock.Provider {
	return &llmmock.Provider{
		CompleteFunc: func(_ context.Context, req llmpkg.CompletionRequest) (*llmpkg.CompletionResponse, error) {
			query := req.Messages[len(req.Messages)-1].Content
			switch {
			case strings.Contains(req.SystemPrompt, "routing orchestrator"):
				if strings.Contains(query, "issues") {
					return &llmpkg.CompletionResponse{Content: "USE_LINEAR_AGENT: " + query}, nil
				}
				return &llmpkg.CompletionResponse{Content: "Hello! How can I help?"}, nil
			default:
				return &llmpkg.CompletionResponse{Content: "I would use LINEAR_LIST_ISSUES to fetch your issues"}, nil
			}
		},
	}
}

func newTestOrchestrator(t *testing.T, client *mcpmock.Client, provider llmpkg.Provider) *Orchestrator {
	t.Helper()
	m := testMetrics(t)
	a := agent.New(agent.LinearProfile(), client, provider, agent.WithMetrics(m))
	r := router.New(provider, []agent.Profile{agent.LinearProfile()}, router.WithMetrics(m))
	return New(r, []*agent.Agent{a})
}

// TestProcessQuery_RoutedEndToEnd verifies the full pipeline: classification
// directive, agent analysis, tool selection, invocation, and reply assembly.
func TestProcessQuery_RoutedEndToEnd(t *testing.T) {
	t.Parallel()

	client := &mcpmock.Client{
		DiscoverToolsResult: []mcp.ToolDescriptor{
			{Name: "LINEAR_LIST_ISSUES", Description: "List all issues"},
			{Name: "LINEAR_CREATE_ISSUE", Description: "Create an issue"},
		},
		InvokeToolResult: map[string]any{"content": "3 issues"},
	}
	o := newTestOrchestrator(t, client, routingProvider())

	res := o.ProcessQuery(context.Background(), "list my issues")
	if res.Outcome != router.Routed {
		t.Fatalf("outcome = %v, want routed", res.Outcome)
	}
	if res.Provider != "linear" {
		t.Errorf("provider = %q, want linear", res.Provider)
	}
	if res.QueryID == "" {
		t.Error("query id is empty")
	}
	if !strings.Contains(res.Reply, "Successfully executed LINEAR_LIST_ISSUES:") {
		t.Errorf("reply = %q", res.Reply)
	}
	if got := client.CallCount("InvokeTool"); got != 1 {
		t.Errorf("InvokeTool called %d times, want 1", got)
	}
}

// TestProcessQuery_GeneralPassthrough verifies that a directive-free
// classification reply is returned verbatim with no provider involvement.
func TestProcessQuery_GeneralPassthrough(t *testing.T) {
	t.Parallel()

	client := &mcpmock.Client{}
	o := newTestOrchestrator(t, client, routingProvider())

	res := o.ProcessQuery(context.Background(), "hello there")
	if res.Outcome != router.General {
		t.Fatalf("outcome = %v, want general", res.Outcome)
	}
	if res.Reply != "Hello! How can I help?" {
		t.Errorf("reply = %q", res.Reply)
	}
	if got := client.CallCount("DiscoverTools"); got != 0 {
		t.Errorf("DiscoverTools called %d times, want 0", got)
	}
}

// TestProcessQuery_DegradedApology verifies that a dead LLM backend produces
// an apology reply, not an error.
func TestProcessQuery_DegradedApology(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{CompleteErr: errors.New("backend down")}
	o := newTestOrchestrator(t, &mcpmock.Client{}, provider)

	res := o.ProcessQuery(context.Background(), "list my issues")
	if res.Outcome != router.Degraded {
		t.Fatalf("outcome = %v, want degraded", res.Outcome)
	}
	if !strings.Contains(res.Reply, "I encountered an error") {
		t.Errorf("reply = %q", res.Reply)
	}
}

// TestProcessQuery_DiscoveryFailureRendered verifies that a routed query
// against an unreachable provider renders the failure as reply text.
func TestProcessQuery_DiscoveryFailureRendered(t *testing.T) {
	t.Parallel()

	client := &mcpmock.Client{DiscoverToolsErr: errors.New("connection refused")}
	o := newTestOrchestrator(t, client, routingProvider())

	res := o.ProcessQuery(context.Background(), "list my issues")
	if !strings.Contains(res.Reply, "connection refused") {
		t.Errorf("reply = %q, want discovery failure text", res.Reply)
	}
}

// TestProcessQuery_RateLimitFriendlyText verifies the friendlier wording for
// exhausted provider rate limits.
func TestProcessQuery_RateLimitFriendlyText(t *testing.T) {
	t.Parallel()

	client := &mcpmock.Client{DiscoverToolsErr: mcp.ErrRateLimitExhausted}
	o := newTestOrchestrator(t, client, routingProvider())

	res := o.ProcessQuery(context.Background(), "list my issues")
	if !strings.Contains(res.Reply, "rate limit reached") {
		t.Errorf("reply = %q, want rate limit text", res.Reply)
	}
}

// TestSelfTest verifies the per-provider status lines and recorded statuses.
func TestSelfTest(t *testing.T) {
	t.Parallel()

	m := testMetrics(t)
	provider := routingProvider()

	good := agent.New(agent.LinearProfile(), &mcpmock.Client{
		DiscoverToolsResult: []mcp.ToolDescriptor{{Name: "LINEAR_LIST_ISSUES"}},
	}, provider, agent.WithMetrics(m))
	bad := agent.New(agent.SupabaseProfile(), &mcpmock.Client{
		DiscoverToolsErr: errors.New("no route"),
	}, provider, agent.WithMetrics(m))

	r := router.New(provider, []agent.Profile{agent.LinearProfile(), agent.SupabaseProfile()}, router.WithMetrics(m))
	o := New(r, []*agent.Agent{good, bad})

	statuses := o.SelfTest(context.Background())
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	if statuses[0].Line != "Linear MCP connection successful! Found 1 tools" {
		t.Errorf("line[0] = %q", statuses[0].Line)
	}
	if statuses[0].Status.State != agent.StateConnected {
		t.Errorf("state[0] = %v", statuses[0].Status.State)
	}
	if !strings.HasPrefix(statuses[1].Line, "Supabase MCP connection failed:") {
		t.Errorf("line[1] = %q", statuses[1].Line)
	}
	if statuses[1].Status.State != agent.StateFailed {
		t.Errorf("state[1] = %v", statuses[1].Status.State)
	}
}
