// Package observe provides application-wide observability primitives for
// toolgate: OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all toolgate metrics.
const meterName = "github.com/MrWong99/toolgate"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// LLMDuration tracks classification and analysis completion latency.
	LLMDuration metric.Float64Histogram

	// DiscoveryDuration tracks tools/list round-trip latency.
	DiscoveryDuration metric.Float64Histogram

	// ToolExecutionDuration tracks tools/call round-trip latency.
	ToolExecutionDuration metric.Float64Histogram

	// --- Counters ---

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// RouterDecisions counts routing outcomes. Use with attribute:
	//   attribute.String("target", ...)
	RouterDecisions metric.Int64Counter

	// DiscoveryRetries counts 429-triggered discovery retries per provider.
	DiscoveryRetries metric.Int64Counter

	// ProviderErrors counts provider-level failures. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ConnectedProviders tracks how many providers passed their last
	// connectivity self-test.
	ConnectedProviders metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// remote tool and LLM round trips.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.LLMDuration, err = m.Float64Histogram("toolgate.llm.duration",
		metric.WithDescription("Latency of LLM completions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DiscoveryDuration, err = m.Float64Histogram("toolgate.discovery.duration",
		metric.WithDescription("Latency of tools/list discovery calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("toolgate.tool_execution.duration",
		metric.WithDescription("Latency of tools/call invocations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ToolCalls, err = m.Int64Counter("toolgate.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.RouterDecisions, err = m.Int64Counter("toolgate.router.decisions",
		metric.WithDescription("Total routing decisions by target."),
	); err != nil {
		return nil, err
	}
	if met.DiscoveryRetries, err = m.Int64Counter("toolgate.discovery.retries",
		metric.WithDescription("Total rate-limit retries during tool discovery."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("toolgate.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ConnectedProviders, err = m.Int64UpDownCounter("toolgate.connected_providers",
		metric.WithDescription("Number of providers that passed their last connectivity test."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordToolCall records a tool invocation counter increment with the
// standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordRouterDecision records a routing decision counter increment.
func (m *Metrics) RecordRouterDecision(ctx context.Context, target string) {
	m.RouterDecisions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("target", target)),
	)
}

// RecordDiscoveryRetry records a rate-limit retry counter increment.
func (m *Metrics) RecordDiscoveryRetry(ctx context.Context, provider string) {
	m.DiscoveryRetries.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
