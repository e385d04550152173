// Package mock provides an in-memory test double for the [llm.Provider]
// interface.
//
// [Provider] returns configurable canned responses and records every request
// for assertion in tests. Setting CompleteFunc overrides the canned behaviour
// entirely, which is how tests simulate slow or context-sensitive backends.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/toolgate/pkg/provider/llm"
)

// Provider is a configurable test double for [llm.Provider].
type Provider struct {
	mu       sync.Mutex
	requests []llm.CompletionRequest

	// CompleteResponse is returned by [Provider.Complete] when CompleteErr
	// and CompleteFunc are nil. When it is also nil, Complete returns an
	// empty response.
	CompleteResponse *llm.CompletionResponse

	// CompleteErr is returned by [Provider.Complete] when non-nil.
	CompleteErr error

	// CompleteFunc, when set, handles the call entirely, ignoring
	// CompleteResponse and CompleteErr.
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Compile-time check: Provider must implement llm.Provider.
var _ llm.Provider = (*Provider)(nil)

// Complete implements [llm.Provider].
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	fn := p.CompleteFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if p.CompleteErr != nil {
		return nil, p.CompleteErr
	}
	if p.CompleteResponse != nil {
		return p.CompleteResponse, nil
	}
	return &llm.CompletionResponse{}, nil
}

// Requests returns a copy of all recorded completion requests in order.
func (p *Provider) Requests() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}
