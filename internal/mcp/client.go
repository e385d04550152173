// Package mcp defines the client interface for a single Model Context
// Protocol (MCP) tool provider reachable over JSON-RPC 2.0 embedded in
// Server-Sent-Events framing.
//
// A Client talks to exactly one provider endpoint. It carries no state beyond
// the configured endpoint URL: tool catalogs are owned by the agent that
// fetched them, and every discovery call produces a fresh snapshot.
//
// Lifecycle:
//
//  1. Call [Client.DiscoverTools] to fetch the provider's tool catalog.
//  2. Call [Client.InvokeTool] with a discovered tool name and synthesized
//     arguments.
//
// Calls are never pipelined: at most one request is in flight per Client at
// any time, which is why fixed JSON-RPC ids per call site are sufficient.
package mcp

import "context"

// Client is the transport to one MCP provider endpoint.
type Client interface {
	// DiscoverTools sends a tools/list request and returns the provider's
	// tool catalog in server-returned order.
	//
	// On HTTP 429 the request is retried up to three total attempts with
	// increasing delays; persistent rate limiting fails with
	// [ErrRateLimitExhausted]. Any other non-success status fails
	// immediately with a [*ProtocolError]. A success response that yields
	// no tools array fails with a [*DecodeError].
	DiscoverTools(ctx context.Context) ([]ToolDescriptor, error)

	// InvokeTool sends a tools/call request for the named tool with the
	// given arguments and returns the JSON-RPC result value.
	//
	// The response may be SSE-framed or a bare JSON-RPC body; both are
	// handled. Unlike DiscoverTools, invocation does not retry on 429:
	// a rate-limited call fails with a [*ProtocolError] carrying status 429.
	InvokeTool(ctx context.Context, name string, args map[string]any) (map[string]any, error)
}
