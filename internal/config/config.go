// Package config provides the configuration schema and loader for the
// toolgate routing service.
package config

// LogLevel controls log verbosity for the toolgate session.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for toolgate.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Providers  []ProviderConfig `yaml:"providers"`
}

// ServerConfig holds session-wide settings.
type ServerConfig struct {
	// LogLevel controls verbosity. Defaults to "info".
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address the Prometheus /metrics endpoint
	// listens on (e.g., ":9090"). Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// LLMEntry names and authenticates one LLM backend.
type LLMEntry struct {
	// Name selects the backend implementation: "openai" for the direct
	// OpenAI client, or any any-llm-go provider name ("anthropic",
	// "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp",
	// "llamafile").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the backend. For the "openai"
	// backend it is required and falls back to the OPENAI_API_KEY
	// environment variable when empty; every other backend resolves its own
	// credentials (ANTHROPIC_API_KEY, GEMINI_API_KEY, ...) through the
	// any-llm bridge.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model (e.g., "gpt-4-turbo"). Defaults to
	// "gpt-4-turbo".
	Model string `yaml:"model"`
}

// LLMConfig selects the LLM backend used for routing classification and
// agent analysis, plus an optional failover backend.
type LLMConfig struct {
	LLMEntry `yaml:",inline"`

	// Fallback, when set, is tried whenever the primary backend fails.
	Fallback *LLMEntry `yaml:"fallback"`
}

// AggregatorConfig authenticates the auxiliary tool-aggregation service.
// Only the session display layer consumes it; query processing never does.
type AggregatorConfig struct {
	// BaseURL is the aggregation service endpoint.
	// Defaults to "https://backend.composio.dev/unify".
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the aggregation service. Falls back to
	// the COMPOSIO_API_KEY environment variable when empty. Required.
	APIKey string `yaml:"api_key"`
}

// ProviderConfig describes one MCP tool provider endpoint.
type ProviderConfig struct {
	// Name selects the built-in provider profile: "linear", "github", or
	// "supabase". Must be unique within the config.
	Name string `yaml:"name"`

	// URL is the provider's JSON-RPC/SSE endpoint address
	// (e.g., "http://127.0.0.1:8002/sse").
	URL string `yaml:"url"`
}
