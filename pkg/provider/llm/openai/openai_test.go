package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/toolgate/pkg/provider/llm"
)

const completionBody = `{
	"id": "chatcmpl-test",
	"object": "chat.completion",
	"choices": [
		{"index": 0, "finish_reason": "stop",
		 "message": {"role": "assistant", "content": "USE_LINEAR_AGENT: list my issues"}}
	],
	"usage": {"prompt_tokens": 12, "completion_tokens": 9, "total_tokens": 21}
}`

// TestComplete verifies request assembly (system prompt first, then turns)
// and response mapping against a stubbed chat completions endpoint.
func TestComplete(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	p, err := New("sk-test", "gpt-4-turbo", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are a routing orchestrator.",
		Messages:     []llm.Message{{Role: "user", Content: "list my issues"}},
		MaxTokens:    256,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Content != "USE_LINEAR_AGENT: list my issues" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 21 {
		t.Errorf("total tokens = %d, want 21", resp.Usage.TotalTokens)
	}

	if gotBody["model"] != "gpt-4-turbo" {
		t.Errorf("model = %v", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" || !strings.Contains(first["content"].(string), "routing orchestrator") {
		t.Errorf("first message = %v, want system prompt", first)
	}
}

// TestNew_Validation verifies the constructor rejects missing credentials
// and model names.
func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "gpt-4-turbo"); err == nil {
		t.Error("New accepted empty api key")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("New accepted empty model")
	}
}

// TestComplete_UnknownRole verifies unknown message roles are rejected before
// any request is sent.
func TestComplete_UnknownRole(t *testing.T) {
	t.Parallel()

	p, err := New("sk-test", "gpt-4-turbo", WithBaseURL("http://127.0.0.1:0/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "tool", Content: "x"}},
	})
	if err == nil || !strings.Contains(err.Error(), "unknown message role") {
		t.Errorf("err = %v, want unknown role error", err)
	}
}
