package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	llmpkg "github.com/MrWong99/toolgate/pkg/provider/llm"
	llmmock "github.com/MrWong99/toolgate/pkg/provider/llm/mock"
)

// TestComplete_PrimaryFirst verifies that a healthy primary answers and the
// fallback is never consulted.
func TestComplete_PrimaryFirst(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		CompleteResponse: &llmpkg.CompletionResponse{Content: "from primary"},
	}
	fallback := &llmmock.Provider{
		CompleteResponse: &llmpkg.CompletionResponse{Content: "from fallback"},
	}
	c := NewChain(Config{}).Add("primary", primary).Add("fallback", fallback)

	resp, err := c.Complete(context.Background(), llmpkg.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "from primary" {
		t.Errorf("content = %q", resp.Content)
	}
	if len(fallback.Requests()) != 0 {
		t.Error("fallback was consulted despite healthy primary")
	}
}

// TestComplete_Failover verifies that a failing primary hands the request to
// the next backend.
func TestComplete_Failover(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{CompleteErr: errors.New("down")}
	fallback := &llmmock.Provider{
		CompleteResponse: &llmpkg.CompletionResponse{Content: "from fallback"},
	}
	c := NewChain(Config{}).Add("primary", primary).Add("fallback", fallback)

	resp, err := c.Complete(context.Background(), llmpkg.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "from fallback" {
		t.Errorf("content = %q", resp.Content)
	}
}

// TestComplete_AllFailed verifies the wrapped sentinel when every backend
// errors.
func TestComplete_AllFailed(t *testing.T) {
	t.Parallel()

	c := NewChain(Config{}).
		Add("a", &llmmock.Provider{CompleteErr: errors.New("down")}).
		Add("b", &llmmock.Provider{CompleteErr: errors.New("also down")})

	_, err := c.Complete(context.Background(), llmpkg.CompletionRequest{})
	if !errors.Is(err, ErrAllBackendsFailed) {
		t.Errorf("err = %v, want ErrAllBackendsFailed", err)
	}
}

// TestComplete_CooldownSkipsTrippedBackend verifies that after MaxFailures
// consecutive failures the primary is skipped until the cooldown elapses.
func TestComplete_CooldownSkipsTrippedBackend(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{CompleteErr: errors.New("down")}
	fallback := &llmmock.Provider{
		CompleteResponse: &llmpkg.CompletionResponse{Content: "ok"},
	}
	c := NewChain(Config{MaxFailures: 2, Cooldown: time.Hour}).
		Add("primary", primary).
		Add("fallback", fallback)

	// Two failing calls trip the primary.
	for range 2 {
		if _, err := c.Complete(context.Background(), llmpkg.CompletionRequest{}); err != nil {
			t.Fatalf("Complete: %v", err)
		}
	}
	before := len(primary.Requests())

	// Further calls must skip the tripped primary entirely.
	if _, err := c.Complete(context.Background(), llmpkg.CompletionRequest{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got := len(primary.Requests()); got != before {
		t.Errorf("primary consulted while cooling down: %d calls, want %d", got, before)
	}
}

// TestComplete_NoBackends verifies the empty chain fails cleanly.
func TestComplete_NoBackends(t *testing.T) {
	t.Parallel()

	_, err := NewChain(Config{}).Complete(context.Background(), llmpkg.CompletionRequest{})
	if !errors.Is(err, ErrAllBackendsFailed) {
		t.Errorf("err = %v, want ErrAllBackendsFailed", err)
	}
}

// TestComplete_CancelledContextStops verifies a dead query context is not
// retried across backends.
func TestComplete_CancelledContextStops(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{CompleteErr: errors.New("down")}
	fallback := &llmmock.Provider{
		CompleteResponse: &llmpkg.CompletionResponse{Content: "ok"},
	}
	c := NewChain(Config{}).Add("primary", primary).Add("fallback", fallback)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Complete(ctx, llmpkg.CompletionRequest{}); err == nil {
		t.Fatal("Complete succeeded with cancelled context")
	}
	if len(fallback.Requests()) != 0 {
		t.Error("fallback consulted after context cancellation")
	}
}
