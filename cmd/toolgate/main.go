// Command toolgate is the main entry point for the toolgate query routing
// session.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/toolgate/internal/agent"
	"github.com/MrWong99/toolgate/internal/config"
	"github.com/MrWong99/toolgate/internal/health"
	"github.com/MrWong99/toolgate/internal/mcp/sseclient"
	"github.com/MrWong99/toolgate/internal/observe"
	"github.com/MrWong99/toolgate/internal/orchestrator"
	"github.com/MrWong99/toolgate/internal/resilience"
	"github.com/MrWong99/toolgate/internal/router"
	"github.com/MrWong99/toolgate/pkg/provider/llm"
	"github.com/MrWong99/toolgate/pkg/provider/llm/anyllm"
	"github.com/MrWong99/toolgate/pkg/provider/llm/openai"
)

// version is stamped via -ldflags at release time.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	oneShot := flag.String("query", "", "process a single query and exit instead of starting a session")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "toolgate: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "toolgate: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("toolgate starting",
		"version", version,
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
		"providers", len(cfg.Providers),
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "toolgate",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	// ── LLM backend ───────────────────────────────────────────────────────────
	provider, err := buildLLMChain(cfg.LLM)
	if err != nil {
		slog.Error("failed to build LLM provider", "name", cfg.LLM.Name, "err", err)
		return 1
	}
	slog.Info("LLM provider created",
		"name", cfg.LLM.Name,
		"model", cfg.LLM.Model,
		"fallback", cfg.LLM.Fallback != nil,
	)

	// ── Provider agents ───────────────────────────────────────────────────────
	metrics := observe.DefaultMetrics()
	profiles := agent.BuiltinProfiles()
	var agents []*agent.Agent
	var profileOrder []agent.Profile
	for _, pc := range cfg.Providers {
		prof, ok := profiles[pc.Name]
		if !ok {
			slog.Warn("no built-in profile for provider, skipping", "name", pc.Name)
			continue
		}
		client := sseclient.New(pc.URL, sseclient.WithRetryNotify(
			func(ctx context.Context, _ int) {
				metrics.RecordDiscoveryRetry(ctx, pc.Name)
			},
		))
		agents = append(agents, agent.New(prof, client, provider))
		profileOrder = append(profileOrder, prof)
		slog.Info("provider agent created", "name", pc.Name, "url", pc.URL)
	}
	if len(agents) == 0 {
		slog.Error("no provider agents configured")
		return 1
	}

	rtr := router.New(provider, profileOrder)
	orch := orchestrator.New(rtr, agents)

	// ── Ops endpoint (metrics + health) ───────────────────────────────────────
	if cfg.Server.MetricsAddr != "" {
		go serveOps(ctx, cfg.Server.MetricsAddr, agents)
	}

	// ── Startup connectivity self-test ────────────────────────────────────────
	for _, st := range orch.SelfTest(ctx) {
		fmt.Println(st.Line)
		slog.Debug("provider self-test", "provider", st.Provider, "status", st.Status.String())
	}

	// ── One-shot mode ─────────────────────────────────────────────────────────
	if *oneShot != "" {
		res := orch.ProcessQuery(ctx, *oneShot)
		fmt.Println(res.Reply)
		return 0
	}

	// ── Interactive session ───────────────────────────────────────────────────
	if err := sessionLoop(ctx, orch); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("session error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// sessionLoop reads queries line by line from stdin and prints replies until
// EOF, "exit", or signal cancellation.
func sessionLoop(ctx context.Context, orch *orchestrator.Orchestrator) error {
	fmt.Println(`Type a query, "status" for provider status, "tools" for tool listings, or "exit" to quit.`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		query := strings.TrimSpace(scanner.Text())
		switch {
		case query == "":
			continue
		case query == "exit" || query == "quit":
			return nil
		case query == "status":
			for _, a := range orch.Agents() {
				fmt.Printf("%s: %s\n", a.Profile().DisplayName, a.Status())
			}
			continue
		case query == "tools":
			for _, a := range orch.Agents() {
				fmt.Printf("%s:\n", a.Profile().DisplayName)
				ops := a.AvailableOperations()
				if len(ops) == 0 {
					fmt.Println("  (no tools discovered)")
					continue
				}
				for _, op := range ops {
					fmt.Printf("  - %s\n", op)
				}
			}
			continue
		}

		res := orch.ProcessQuery(ctx, query)
		fmt.Println(res.Reply)
	}
}

// buildLLMChain constructs the configured LLM backend, wrapped in a failover
// chain when a fallback backend is configured.
func buildLLMChain(cfg config.LLMConfig) (llm.Provider, error) {
	primary, err := buildLLMProvider(cfg.LLMEntry)
	if err != nil {
		return nil, err
	}
	if cfg.Fallback == nil {
		return primary, nil
	}

	secondary, err := buildLLMProvider(*cfg.Fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback backend: %w", err)
	}
	return resilience.NewChain(resilience.Config{}).
		Add(cfg.Name, primary).
		Add(cfg.Fallback.Name, secondary), nil
}

// buildLLMProvider constructs one LLM backend. "openai" uses the first-party
// SDK; every other name goes through the any-llm bridge.
func buildLLMProvider(entry config.LLMEntry) (llm.Provider, error) {
	if entry.Name == "openai" {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	}

	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(entry.Name, entry.Model, opts...)
}

// serveOps exposes /metrics, /healthz and /readyz on addr until ctx ends.
func serveOps(ctx context.Context, addr string, agents []*agent.Agent) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(health.ProviderCheckers(agents)...).Register(mux)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("ops endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("ops endpoint error", "err", err)
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
