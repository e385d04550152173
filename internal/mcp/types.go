package mcp

import (
	"errors"
	"fmt"
)

// ToolDescriptor describes one remotely invocable operation exposed by a
// provider's MCP endpoint, as returned by a tools/list call.
//
// Descriptors are created fresh on every discovery call and never mutated
// afterwards. Name is assumed unique within one provider's catalog; the
// catalog does not enforce this, and selection resolves duplicates by first
// occurrence in discovery order.
type ToolDescriptor struct {
	// Name is the tool's identifier, e.g. "LINEAR_LIST_ISSUES".
	Name string `json:"name"`

	// Description is the human-readable summary used for relevance scoring
	// and for suggestion lists.
	Description string `json:"description"`

	// InputSchema is the tool's declared JSON schema. It is carried through
	// opaquely and never validated against call arguments.
	InputSchema map[string]any `json:"inputSchema"`
}

// ErrRateLimitExhausted is returned when a discovery call received HTTP 429
// on every retry attempt.
var ErrRateLimitExhausted = errors.New("mcp: rate limit persisted across all retry attempts")

// ProtocolError reports a non-success, non-429 HTTP status from a provider
// endpoint. It is terminal for the call that produced it.
type ProtocolError struct {
	// Status is the HTTP status code returned by the endpoint.
	Status int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mcp: endpoint returned HTTP %d", e.Status)
}

// DecodeError reports a 2xx response whose body yielded no usable JSON-RPC
// result. It is terminal for the call that produced it.
type DecodeError struct {
	// Reason describes what was missing from the response body.
	Reason string
}

func (e *DecodeError) Error() string {
	return "mcp: " + e.Reason
}
