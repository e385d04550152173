// Package sseclient provides a concrete implementation of the [mcp.Client]
// interface over HTTP POST with JSON-RPC 2.0 payloads.
//
// Providers answer either with Server-Sent-Events framing (lines prefixed
// "data: ", each carrying one JSON-RPC response envelope) or with a bare
// JSON-RPC body; both are handled. Discovery retries on HTTP 429 with an
// increasing delay; invocation does not.
package sseclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/toolgate/internal/mcp"
)

// JSON-RPC request ids are fixed per call site. Requests are never pipelined,
// so query-unique ids are unnecessary.
const (
	discoverRequestID = 1
	invokeRequestID   = 2
)

// dataPrefix marks an SSE data line carrying one JSON-RPC envelope.
const dataPrefix = "data: "

// maxDiscoverAttempts bounds the 429 retry loop in DiscoverTools.
const maxDiscoverAttempts = 3

// defaultBackoffUnit is the base delay between discovery retries. The wait
// before retry n+1 is n × unit, so with the default the schedule is 2s, 4s.
const defaultBackoffUnit = 2 * time.Second

// Option is a functional option for configuring a [Client].
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for all requests. Useful for
// injecting timeouts or test transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithBackoffUnit sets the base delay for the 429 retry schedule. The wait
// before retry attempt n+1 is n × unit. The default is 2 seconds.
func WithBackoffUnit(d time.Duration) Option {
	return func(c *Client) {
		c.backoffUnit = d
	}
}

// RetryFunc is called once per 429-triggered discovery retry, before the
// backoff sleep. attempt is the 1-based index of the attempt that was rate
// limited.
type RetryFunc func(ctx context.Context, attempt int)

// WithRetryNotify registers a callback fired on every discovery retry. The
// caller typically records a metric keyed by provider; the client itself does
// not know which provider it talks to.
func WithRetryNotify(fn RetryFunc) Option {
	return func(c *Client) {
		c.retryNotify = fn
	}
}

// Client implements [mcp.Client] against a single provider endpoint URL.
//
// The zero value is not usable; create instances with [New]. A Client holds
// no mutable state between calls, so it is safe for concurrent use, though
// callers in this codebase never pipeline requests.
type Client struct {
	endpoint    string
	hc          *http.Client
	backoffUnit time.Duration
	retryNotify RetryFunc
}

// Compile-time check: Client must implement mcp.Client.
var _ mcp.Client = (*Client)(nil)

// New creates a Client for the given provider endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:    endpoint,
		hc:          http.DefaultClient,
		backoffUnit: defaultBackoffUnit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest is the JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// listEnvelope is the response envelope for tools/list. Tools stays raw so
// that a JSON null can be distinguished from a present array.
type listEnvelope struct {
	Result struct {
		Tools json.RawMessage `json:"tools"`
	} `json:"result"`
}

// callEnvelope is the response envelope for tools/call.
type callEnvelope struct {
	Result map[string]any `json:"result"`
}

// DiscoverTools implements [mcp.Client]. It retries the whole request on
// HTTP 429, sleeping attempt × backoffUnit before each retry, up to
// maxDiscoverAttempts total attempts.
func (c *Client) DiscoverTools(ctx context.Context) ([]mcp.ToolDescriptor, error) {
	for attempt := 1; attempt <= maxDiscoverAttempts; attempt++ {
		status, body, err := c.post(ctx, rpcRequest{
			JSONRPC: "2.0",
			ID:      discoverRequestID,
			Method:  "tools/list",
			Params:  map[string]any{},
		})
		if err != nil {
			return nil, err
		}

		switch {
		case status >= 200 && status < 300:
			tools, ok := extractTools(body)
			if !ok {
				return nil, &mcp.DecodeError{Reason: "no valid tools found in response"}
			}
			return tools, nil

		case status == http.StatusTooManyRequests:
			if attempt == maxDiscoverAttempts {
				return nil, mcp.ErrRateLimitExhausted
			}
			if c.retryNotify != nil {
				c.retryNotify(ctx, attempt)
			}
			delay := time.Duration(attempt) * c.backoffUnit
			slog.Debug("rate limited by provider, backing off",
				"endpoint", c.endpoint, "attempt", attempt, "delay", delay)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}

		default:
			return nil, &mcp.ProtocolError{Status: status}
		}
	}
	return nil, mcp.ErrRateLimitExhausted
}

// InvokeTool implements [mcp.Client]. The result is extracted from the first
// SSE data line carrying one, falling back to parsing the entire body as a
// single JSON-RPC envelope for providers that skip event-stream framing.
//
// Invocation deliberately carries no 429 retry; only discovery retries.
func (c *Client) InvokeTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	status, body, err := c.post(ctx, rpcRequest{
		JSONRPC: "2.0",
		ID:      invokeRequestID,
		Method:  "tools/call",
		Params: map[string]any{
			"name":      name,
			"arguments": args,
		},
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &mcp.ProtocolError{Status: status}
	}

	for line := range sseDataLines(body) {
		var env callEnvelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			continue
		}
		if env.Result != nil {
			return env.Result, nil
		}
	}

	// Bare JSON-RPC body fallback.
	var env callEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Result != nil {
		return env.Result, nil
	}

	return nil, &mcp.DecodeError{Reason: "no valid result found in response"}
}

// post sends one JSON-RPC request and returns the HTTP status and full body.
func (c *Client) post(ctx context.Context, rpc rpcRequest) (int, []byte, error) {
	payload, err := json.Marshal(rpc)
	if err != nil {
		return 0, nil, fmt.Errorf("sseclient: marshal %s request: %w", rpc.Method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("sseclient: build %s request: %w", rpc.Method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("sseclient: %s request to %s: %w", rpc.Method, c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("sseclient: read %s response: %w", rpc.Method, err)
	}
	return resp.StatusCode, body, nil
}

// extractTools scans body for SSE data lines and returns the tools array of
// the first envelope whose result.tools is a non-null JSON array.
func extractTools(body []byte) ([]mcp.ToolDescriptor, bool) {
	for line := range sseDataLines(body) {
		var env listEnvelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			continue
		}
		raw := bytes.TrimSpace(env.Result.Tools)
		if len(raw) == 0 || raw[0] != '[' {
			continue
		}
		var tools []mcp.ToolDescriptor
		if err := json.Unmarshal(raw, &tools); err != nil {
			continue
		}
		return tools, true
	}
	return nil, false
}

// sseDataLines yields the payload of every SSE data line in body, in order.
func sseDataLines(body []byte) func(yield func(string) bool) {
	return func(yield func(string) bool) {
		sc := bufio.NewScanner(bytes.NewReader(body))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, dataPrefix) {
				continue
			}
			if !yield(strings.TrimPrefix(line, dataPrefix)) {
				return
			}
		}
	}
}

// sleep blocks for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
