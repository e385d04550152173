// Package mock provides an in-memory test double for the [mcp.Client]
// interface.
//
// [Client] records every method call for assertion in tests and exposes
// exported fields that control what the mock returns. It is safe for
// concurrent use via an internal [sync.Mutex].
//
// Typical usage:
//
//	c := &mock.Client{}
//	c.DiscoverToolsResult = []mcp.ToolDescriptor{{Name: "LINEAR_LIST_ISSUES"}}
//	c.InvokeToolResult = map[string]any{"content": "ok"}
//
//	// inject c into the system under test …
//
//	if got := c.CallCount("InvokeTool"); got != 1 {
//	    t.Errorf("expected 1 InvokeTool call, got %d", got)
//	}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/toolgate/internal/mcp"
)

// Call records the name and arguments of a single method invocation.
type Call struct {
	// Method is the name of the interface method that was called.
	Method string

	// Args holds the non-context arguments passed to the method, in order.
	Args []any
}

// Client is a configurable test double for [mcp.Client].
// All exported *Err fields default to nil (success).
type Client struct {
	mu sync.Mutex

	// calls records every method invocation in order.
	calls []Call

	// DiscoverToolsResult is returned by [Client.DiscoverTools] when
	// DiscoverToolsErr is nil.
	DiscoverToolsResult []mcp.ToolDescriptor

	// DiscoverToolsErr is returned by [Client.DiscoverTools] when non-nil.
	DiscoverToolsErr error

	// InvokeToolResult is returned by [Client.InvokeTool] when
	// InvokeToolErr is nil.
	InvokeToolResult map[string]any

	// InvokeToolErr is returned by [Client.InvokeTool] when non-nil.
	InvokeToolErr error
}

// Compile-time check: Client must implement mcp.Client.
var _ mcp.Client = (*Client)(nil)

// DiscoverTools implements [mcp.Client].
func (c *Client) DiscoverTools(ctx context.Context) ([]mcp.ToolDescriptor, error) {
	c.record("DiscoverTools")
	if c.DiscoverToolsErr != nil {
		return nil, c.DiscoverToolsErr
	}
	return c.DiscoverToolsResult, nil
}

// InvokeTool implements [mcp.Client].
func (c *Client) InvokeTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	c.record("InvokeTool", name, args)
	if c.InvokeToolErr != nil {
		return nil, c.InvokeToolErr
	}
	return c.InvokeToolResult, nil
}

// CallCount returns how many times the named method has been invoked.
func (c *Client) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Method == method {
			n++
		}
	}
	return n
}

// Calls returns a copy of all recorded calls in invocation order.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *Client) record(method string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Method: method, Args: args})
}
