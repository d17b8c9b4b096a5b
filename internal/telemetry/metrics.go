package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/mintworks/mintra"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Provisioning metrics
	ProvisionTotal        metric.Int64Counter
	ProvisionErrorsTotal  metric.Int64Counter
	ProvisionOrphansTotal metric.Int64Counter
	ProvisionDuration     metric.Float64Histogram

	// Dual-write metrics
	DualWriteTotal          metric.Int64Counter
	DualWriteConflictsTotal metric.Int64Counter
	DualWriteDuration       metric.Float64Histogram

	// Sequence metrics
	SequenceIssuedTotal   metric.Int64Counter
	SequenceOverflowTotal metric.Int64Counter

	// Registry metrics
	TenantPoolsActive      metric.Int64UpDownCounter
	TenantCacheHitsTotal   metric.Int64Counter
	TenantCacheMissesTotal metric.Int64Counter

	// Bootstrap metrics
	SchemaApplyTotal       metric.Int64Counter
	SchemaRaceRetriesTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.ProvisionTotal, _ = meter.Int64Counter(
		"mintra.provision.total",
		metric.WithDescription("Total number of tenant provisioning attempts"),
		metric.WithUnit("{provision}"),
	)

	m.ProvisionErrorsTotal, _ = meter.Int64Counter(
		"mintra.provision.errors.total",
		metric.WithDescription("Total number of failed tenant provisioning attempts"),
		metric.WithUnit("{error}"),
	)

	m.ProvisionOrphansTotal, _ = meter.Int64Counter(
		"mintra.provision.orphans.total",
		metric.WithDescription("Total number of orphaned tenant databases left behind by partial provisioning failures"),
		metric.WithUnit("{database}"),
	)

	m.ProvisionDuration, _ = meter.Float64Histogram(
		"mintra.provision.duration",
		metric.WithDescription("Duration of tenant provisioning sagas"),
		metric.WithUnit("ms"),
	)

	m.DualWriteTotal, _ = meter.Int64Counter(
		"mintra.dualwrite.total",
		metric.WithDescription("Total number of dual-write update attempts"),
		metric.WithUnit("{update}"),
	)

	m.DualWriteConflictsTotal, _ = meter.Int64Counter(
		"mintra.dualwrite.conflicts.total",
		metric.WithDescription("Total number of dual-write updates rolled back on both sides"),
		metric.WithUnit("{conflict}"),
	)

	m.DualWriteDuration, _ = meter.Float64Histogram(
		"mintra.dualwrite.duration",
		metric.WithDescription("Duration of dual-write updates across both databases"),
		metric.WithUnit("ms"),
	)

	m.SequenceIssuedTotal, _ = meter.Int64Counter(
		"mintra.sequence.issued.total",
		metric.WithDescription("Total number of sequence numbers issued"),
		metric.WithUnit("{number}"),
	)

	m.SequenceOverflowTotal, _ = meter.Int64Counter(
		"mintra.sequence.overflow.total",
		metric.WithDescription("Total number of identifiers rejected for exceeding the configured length"),
		metric.WithUnit("{identifier}"),
	)

	m.TenantPoolsActive, _ = meter.Int64UpDownCounter(
		"mintra.registry.pools.active",
		metric.WithDescription("Number of live tenant connection pools held by the registry"),
		metric.WithUnit("{pool}"),
	)

	m.TenantCacheHitsTotal, _ = meter.Int64Counter(
		"mintra.registry.cache.hits.total",
		metric.WithDescription("Tenant pool cache hits"),
		metric.WithUnit("{hit}"),
	)

	m.TenantCacheMissesTotal, _ = meter.Int64Counter(
		"mintra.registry.cache.misses.total",
		metric.WithDescription("Tenant pool cache misses requiring pool creation"),
		metric.WithUnit("{miss}"),
	)

	m.SchemaApplyTotal, _ = meter.Int64Counter(
		"mintra.schema.apply.total",
		metric.WithDescription("Total number of schema bootstrap runs"),
		metric.WithUnit("{run}"),
	)

	m.SchemaRaceRetriesTotal, _ = meter.Int64Counter(
		"mintra.schema.race.retries.total",
		metric.WithDescription("Total number of schema bootstrap retries after concurrent apply collisions"),
		metric.WithUnit("{retry}"),
	)

	return m
}
