// Package observe provides application-wide observability primitives for
// Shlokachakra: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Shlokachakra metrics.
const meterName = "github.com/upsanskritpratibhakhoj/shlokachakra"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per resolution stage ---

	// TurnDuration tracks end-to-end turn resolution latency, from raw
	// input to committed outcome.
	TurnDuration metric.Float64Histogram

	// MatchDuration tracks local corpus matching latency.
	MatchDuration metric.Float64Histogram

	// OracleDuration tracks remote verse oracle round-trip latency.
	OracleDuration metric.Float64Histogram

	// --- Counters ---

	// Turns counts resolved turns. Use with attributes:
	//   attribute.String("outcome", ...), attribute.String("method", ...)
	Turns metric.Int64Counter

	// VersesServed counts continuation verses served back to players.
	// Use with attribute: attribute.String("source", "corpus"|"oracle")
	VersesServed metric.Int64Counter

	// OracleRequests counts oracle API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	OracleRequests metric.Int64Counter

	// --- Error counters ---

	// OracleErrors counts oracle transport or parse failures. Use with
	// attribute: attribute.String("provider", ...)
	OracleErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveGames tracks the number of live game sessions.
	ActiveGames metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Local
// matching lands in the sub-millisecond buckets while oracle round trips can
// take several seconds.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("shlokachakra.turn.duration",
		metric.WithDescription("End-to-end turn resolution latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MatchDuration, err = m.Float64Histogram("shlokachakra.match.duration",
		metric.WithDescription("Latency of local corpus matching."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.OracleDuration, err = m.Float64Histogram("shlokachakra.oracle.duration",
		metric.WithDescription("Round-trip latency of remote verse oracle calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Turns, err = m.Int64Counter("shlokachakra.turns",
		metric.WithDescription("Total resolved turns by outcome and resolution method."),
	); err != nil {
		return nil, err
	}
	if met.VersesServed, err = m.Int64Counter("shlokachakra.verses.served",
		metric.WithDescription("Total continuation verses served by source."),
	); err != nil {
		return nil, err
	}
	if met.OracleRequests, err = m.Int64Counter("shlokachakra.oracle.requests",
		metric.WithDescription("Total oracle API requests by provider and status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.OracleErrors, err = m.Int64Counter("shlokachakra.oracle.errors",
		metric.WithDescription("Total oracle failures by provider."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveGames, err = m.Int64UpDownCounter("shlokachakra.active_games",
		metric.WithDescription("Number of live game sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("shlokachakra.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTurn is a convenience method that records a resolved turn counter
// increment with the standard attribute set.
func (m *Metrics) RecordTurn(ctx context.Context, outcome, method string) {
	m.Turns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("method", method),
		),
	)
}

// RecordVerseServed is a convenience method that records a served
// continuation verse counter increment.
func (m *Metrics) RecordVerseServed(ctx context.Context, source string) {
	m.VersesServed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// RecordOracleRequest is a convenience method that records an oracle request
// counter increment with the standard attribute set.
func (m *Metrics) RecordOracleRequest(ctx context.Context, provider, status string) {
	m.OracleRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordOracleError is a convenience method that records an oracle error
// counter increment.
func (m *Metrics) RecordOracleError(ctx context.Context, provider string) {
	m.OracleErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}
