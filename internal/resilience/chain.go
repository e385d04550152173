// Package resilience provides LLM backend failover for toolgate.
//
// A [Chain] wraps an ordered list of [llm.Provider] backends behind the same
// interface. Each backend carries a small trip counter: after enough
// consecutive failures it is skipped for a cooldown period, so a dead primary
// does not add its full timeout to every query. Classification and analysis
// calls both go through the chain, which keeps routing available as long as
// any configured backend answers.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/toolgate/pkg/provider/llm"
)

// ErrAllBackendsFailed is returned when every backend in the chain fails or
// is cooling down.
var ErrAllBackendsFailed = errors.New("resilience: all LLM backends failed")

// Defaults for zero-value [Config] fields.
const (
	defaultMaxFailures = 3
	defaultCooldown    = 30 * time.Second
)

// Config tunes the per-backend trip behaviour of a [Chain].
type Config struct {
	// MaxFailures is the number of consecutive failures before a backend is
	// skipped. Default: 3.
	MaxFailures int

	// Cooldown is how long a tripped backend is skipped before it is tried
	// again. Default: 30s.
	Cooldown time.Duration
}

// backend pairs a provider with its failure accounting.
type backend struct {
	name     string
	provider llm.Provider

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

// available reports whether the backend should be tried now.
func (b *backend) available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Now().After(b.openUntil)
}

// recordResult updates failure accounting after a call.
func (b *backend) recordResult(err error, maxFailures int, cooldown time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= maxFailures {
		b.openUntil = time.Now().Add(cooldown)
		b.failures = 0
		slog.Warn("LLM backend cooling down", "backend", b.name, "cooldown", cooldown)
	}
}

// Chain implements [llm.Provider] with ordered failover across backends.
type Chain struct {
	cfg      Config
	backends []*backend
}

// Compile-time check: Chain must implement llm.Provider.
var _ llm.Provider = (*Chain)(nil)

// NewChain creates an empty Chain. Register backends with [Chain.Add] in
// preference order; the first is the primary.
func NewChain(cfg Config) *Chain {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = defaultMaxFailures
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	return &Chain{cfg: cfg}
}

// Add appends a backend to the chain. Not safe to call concurrently with
// Complete; register all backends during startup.
func (c *Chain) Add(name string, p llm.Provider) *Chain {
	c.backends = append(c.backends, &backend{name: name, provider: p})
	return c
}

// Complete tries each available backend in order until one succeeds. A
// caller-cancelled context stops the walk immediately: retrying a different
// backend cannot outlive the query deadline.
func (c *Chain) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if len(c.backends) == 0 {
		return nil, fmt.Errorf("%w: no backends registered", ErrAllBackendsFailed)
	}

	var lastErr error
	for _, b := range c.backends {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrAllBackendsFailed, lastErr)
			}
			return nil, err
		}
		if !b.available() {
			slog.Debug("skipping LLM backend (cooling down)", "backend", b.name)
			continue
		}

		resp, err := b.provider.Complete(ctx, req)
		b.recordResult(err, c.cfg.MaxFailures, c.cfg.Cooldown)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		slog.Warn("LLM backend failed, trying next", "backend", b.name, "error", err)
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%w: all backends cooling down", ErrAllBackendsFailed)
	}
	return nil, fmt.Errorf("%w: %w", ErrAllBackendsFailed, lastErr)
}
