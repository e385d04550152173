package config

import (
	"strings"
	"testing"
)

const validYAML = `
server:
  log_level: debug
llm:
  name: openai
  api_key: sk-test
  model: gpt-4-turbo
aggregator:
  api_key: comp-test
providers:
  - name: linear
    url: http://127.0.0.1:8002/sse
  - name: github
    url: http://127.0.0.1:8003/sse
  - name: supabase
    url: http://127.0.0.1:8001/sse
`

// TestLoadFromReader_Valid verifies a complete config parses and validates.
func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("log level = %q", cfg.Server.LogLevel)
	}
	if len(cfg.Providers) != 3 || cfg.Providers[0].Name != "linear" {
		t.Errorf("providers = %v", cfg.Providers)
	}
}

// TestLoadFromReader_Defaults verifies unset fields get their defaults:
// model, aggregator URL, provider list and URLs.
func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(`
llm:
  api_key: sk-test
aggregator:
  api_key: comp-test
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.LLM.Name != "openai" || cfg.LLM.Model != "gpt-4-turbo" {
		t.Errorf("llm defaults = %q / %q", cfg.LLM.Name, cfg.LLM.Model)
	}
	if cfg.Aggregator.BaseURL != "https://backend.composio.dev/unify" {
		t.Errorf("aggregator url = %q", cfg.Aggregator.BaseURL)
	}
	if len(cfg.Providers) != 3 {
		t.Fatalf("providers = %v, want all three defaults", cfg.Providers)
	}
	for _, p := range cfg.Providers {
		if p.URL == "" {
			t.Errorf("provider %q has no default URL", p.Name)
		}
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("log level = %q, want info default", cfg.Server.LogLevel)
	}
}

// TestLoadFromReader_UnknownField verifies strict decoding rejects unknown
// keys, catching config typos early.
func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader(`
llm:
  api_key: sk-test
  modle: gpt-4-turbo
aggregator:
  api_key: comp-test
`))
	if err == nil {
		t.Fatal("unknown field accepted")
	}
}

// TestValidate_MissingCredentials verifies that an absent openai key and an
// absent aggregator key are fatal validation errors.
func TestValidate_MissingCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("COMPOSIO_API_KEY", "")

	cfg := &Config{}
	ApplyDefaults(cfg)

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate passed without credentials")
	}
	msg := err.Error()
	if !strings.Contains(msg, "llm.api_key") {
		t.Errorf("error %q missing llm.api_key", msg)
	}
	if !strings.Contains(msg, "aggregator.api_key") {
		t.Errorf("error %q missing aggregator.api_key", msg)
	}
}

// TestValidate_NonOpenAIBackendNeedsNoKey verifies that backends served by
// the any-llm bridge pass validation without an explicit key; they resolve
// their own environment credentials.
func TestValidate_NonOpenAIBackendNeedsNoKey(t *testing.T) {
	for _, name := range []string{"anthropic", "ollama"} {
		cfg := &Config{}
		ApplyDefaults(cfg)
		cfg.LLM.Name = name
		cfg.LLM.APIKey = ""
		cfg.Aggregator.APIKey = "comp-test"

		if err := Validate(cfg); err != nil {
			t.Errorf("%s: Validate: %v", name, err)
		}
	}
}

// TestApplyDefaults_EnvFallbackOnlyForOpenAI verifies OPENAI_API_KEY is only
// handed to the openai backend, never to another backend's entry.
func TestApplyDefaults_EnvFallbackOnlyForOpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg := &Config{LLM: LLMConfig{LLMEntry: LLMEntry{Name: "anthropic"}}}
	ApplyDefaults(cfg)
	if cfg.LLM.APIKey != "" {
		t.Errorf("anthropic entry got key %q from OPENAI_API_KEY", cfg.LLM.APIKey)
	}

	cfg = &Config{LLM: LLMConfig{LLMEntry: LLMEntry{Name: "openai"}}}
	ApplyDefaults(cfg)
	if cfg.LLM.APIKey != "sk-env" {
		t.Errorf("openai entry key = %q, want env fallback", cfg.LLM.APIKey)
	}
}

// TestApplyDefaults_FallbackEnvFallback verifies an openai fallback entry
// gets the same environment fallback as a primary and then validates.
func TestApplyDefaults_FallbackEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg := &Config{
		LLM: LLMConfig{
			LLMEntry: LLMEntry{Name: "anthropic", APIKey: "sk-ant"},
			Fallback: &LLMEntry{Name: "openai"},
		},
		Aggregator: AggregatorConfig{APIKey: "comp-test"},
	}
	ApplyDefaults(cfg)
	if cfg.LLM.Fallback.APIKey != "sk-env" {
		t.Errorf("fallback key = %q, want env fallback", cfg.LLM.Fallback.APIKey)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

// TestValidate_FallbackOpenAINeedsKey verifies an openai fallback entry
// without a key is rejected.
func TestValidate_FallbackOpenAINeedsKey(t *testing.T) {
	cfg := &Config{
		LLM: LLMConfig{
			LLMEntry: LLMEntry{Name: "anthropic", APIKey: "sk-ant"},
			Fallback: &LLMEntry{Name: "openai"},
		},
		Aggregator: AggregatorConfig{APIKey: "comp-test"},
		Providers:  []ProviderConfig{{Name: "linear", URL: "http://a"}},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "llm.fallback.api_key") {
		t.Errorf("err = %v, want llm.fallback.api_key error", err)
	}
}

// TestValidate_DuplicateProvider verifies duplicate provider names are
// rejected.
func TestValidate_DuplicateProvider(t *testing.T) {
	cfg := &Config{
		LLM:        LLMConfig{LLMEntry: LLMEntry{Name: "openai", APIKey: "sk"}},
		Aggregator: AggregatorConfig{APIKey: "comp"},
		Providers: []ProviderConfig{
			{Name: "linear", URL: "http://a"},
			{Name: "linear", URL: "http://b"},
		},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("err = %v, want duplicate name error", err)
	}
}

// TestValidate_UnknownProvider verifies provider names outside the built-in
// profiles are rejected.
func TestValidate_UnknownProvider(t *testing.T) {
	cfg := &Config{
		LLM:        LLMConfig{LLMEntry: LLMEntry{Name: "openai", APIKey: "sk"}},
		Aggregator: AggregatorConfig{APIKey: "comp"},
		Providers:  []ProviderConfig{{Name: "jira", URL: "http://a"}},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown") {
		t.Errorf("err = %v, want unknown provider error", err)
	}
}

// TestLoadFromReader_Fallback verifies the optional failover backend parses
// inline with the primary and gets the model default.
func TestLoadFromReader_Fallback(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(`
llm:
  name: openai
  api_key: sk-test
  fallback:
    name: anthropic
    api_key: sk-fb
aggregator:
  api_key: comp-test
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	fb := cfg.LLM.Fallback
	if fb == nil {
		t.Fatal("fallback not parsed")
	}
	if fb.Name != "anthropic" || fb.Model != "gpt-4-turbo" {
		t.Errorf("fallback = %+v", fb)
	}
}
