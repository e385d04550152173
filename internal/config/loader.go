package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidLLMNames lists the LLM backend names the binary knows how to build.
// Used by [Validate] to warn about unrecognised names.
var ValidLLMNames = []string{
	"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// ValidProviderNames lists the tool provider profiles toolgate ships with.
var ValidProviderNames = []string{"linear", "github", "supabase"}

// defaultProviderURLs maps provider names to their conventional local
// endpoints, applied when a provider entry omits its URL.
var defaultProviderURLs = map[string]string{
	"supabase": "http://127.0.0.1:8001/sse",
	"linear":   "http://127.0.0.1:8002/sse",
	"github":   "http://127.0.0.1:8003/sse",
}

const (
	defaultModel         = "gpt-4-turbo"
	defaultAggregatorURL = "https://backend.composio.dev/unify"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// environment fallbacks, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields with their defaults and resolves
// environment-variable fallbacks for credentials.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.LLM.Name == "" {
		cfg.LLM.Name = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Name == "openai" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if fb := cfg.LLM.Fallback; fb != nil {
		if fb.Model == "" {
			fb.Model = defaultModel
		}
		if fb.APIKey == "" && fb.Name == "openai" {
			fb.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.Aggregator.BaseURL == "" {
		cfg.Aggregator.BaseURL = defaultAggregatorURL
	}
	if cfg.Aggregator.APIKey == "" {
		cfg.Aggregator.APIKey = os.Getenv("COMPOSIO_API_KEY")
	}
	if len(cfg.Providers) == 0 {
		for _, name := range ValidProviderNames {
			cfg.Providers = append(cfg.Providers, ProviderConfig{Name: name})
		}
	}
	for i := range cfg.Providers {
		if cfg.Providers[i].URL == "" {
			cfg.Providers[i].URL = defaultProviderURLs[cfg.Providers[i].Name]
		}
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// LLM backend
	if cfg.LLM.Name != "" && !slices.Contains(ValidLLMNames, cfg.LLM.Name) {
		slog.Warn("unknown LLM backend name, may be a typo or third-party backend",
			"name", cfg.LLM.Name,
			"known", ValidLLMNames,
		)
	}
	// Only the direct openai client needs an explicit key; the any-llm
	// backends resolve their own environment credentials.
	if cfg.LLM.Name == "openai" && cfg.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("llm.api_key must be set for the openai backend (or the OPENAI_API_KEY environment variable)"))
	}
	if fb := cfg.LLM.Fallback; fb != nil {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("llm.fallback.name is required when a fallback is configured"))
		}
		if fb.Name == "openai" && fb.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.fallback.api_key must be set for the openai backend (or the OPENAI_API_KEY environment variable)"))
		}
	}

	// Aggregator
	if cfg.Aggregator.APIKey == "" {
		errs = append(errs, fmt.Errorf("aggregator.api_key must be set (or the COMPOSIO_API_KEY environment variable)"))
	}

	// Providers
	namesSeen := make(map[string]int, len(cfg.Providers))
	for i, p := range cfg.Providers {
		prefix := fmt.Sprintf("providers[%d]", i)
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := namesSeen[p.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of providers[%d]", prefix, p.Name, prev))
		}
		namesSeen[p.Name] = i
		if !slices.Contains(ValidProviderNames, p.Name) {
			errs = append(errs, fmt.Errorf("%s.name %q is unknown; valid values: linear, github, supabase", prefix, p.Name))
		}
		if p.URL == "" {
			errs = append(errs, fmt.Errorf("%s.url is required for provider %q", prefix, p.Name))
		}
	}

	return errors.Join(errs...)
}
