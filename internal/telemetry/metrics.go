package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/assetkit"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Resolution metrics
	ImportsResolvedTotal metric.Int64Counter
	ImportsMissingTotal  metric.Int64Counter

	// Sass metrics
	SassCompileTotal       metric.Int64Counter
	SassCompileErrorsTotal metric.Int64Counter
	SassCompileDuration    metric.Float64Histogram

	// Build metrics
	BuildDuration    metric.Float64Histogram
	BuildErrorsTotal metric.Int64Counter
	OutputBytesTotal metric.Int64Counter
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

	m.ImportsResolvedTotal, _ = meter.Int64Counter(
		"assetkit.imports.resolved.total",
		metric.WithDescription("Total number of import resolutions, by kind"),
		metric.WithUnit("{import}"),
	)

	m.ImportsMissingTotal, _ = meter.Int64Counter(
		"assetkit.imports.missing.total",
		metric.WithDescription("Total number of resolved imports with no file on disk"),
		metric.WithUnit("{import}"),
	)

	m.SassCompileTotal, _ = meter.Int64Counter(
		"assetkit.sass.compile.total",
		metric.WithDescription("Total number of stylesheet compilations"),
		metric.WithUnit("{stylesheet}"),
	)

	m.SassCompileErrorsTotal, _ = meter.Int64Counter(
		"assetkit.sass.compile.errors.total",
		metric.WithDescription("Total number of failed stylesheet compilations"),
		metric.WithUnit("{error}"),
	)

	m.SassCompileDuration, _ = meter.Float64Histogram(
		"assetkit.sass.compile.duration",
		metric.WithDescription("Duration of stylesheet compilations"),
		metric.WithUnit("ms"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"assetkit.build.duration",
		metric.WithDescription("Duration of bundler builds"),
		metric.WithUnit("ms"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"assetkit.build.errors.total",
		metric.WithDescription("Total number of bundler errors"),
		metric.WithUnit("{error}"),
	)

	m.OutputBytesTotal, _ = meter.Int64Counter(
		"assetkit.build.output.bytes",
		metric.WithDescription("Total bytes written by bundler builds"),
		metric.WithUnit("By"),
	)

	return m
}
