// Package observe holds the OpenTelemetry metric instruments for the caption
// pipeline. Metrics are recorded through the OTel Metrics API; a Prometheus
// exporter bridge is set up via [InitProvider] so they can be scraped from the
// usual /metrics endpoint. Tests should pass a noop or test MeterProvider to
// [NewMetrics] to avoid cross-test pollution.
package observe

import (
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all pipeline metrics.
const meterName = "github.com/foxseedlab/jimakun"

// Metrics holds the metric instruments for one worker process. All fields are
// safe for concurrent use.
type Metrics struct {
	// ResultsClassified counts recognition results that survived
	// classification. Attribute: partial (bool).
	ResultsClassified metric.Int64Counter

	// Deliveries counts downstream delivery outcomes. Attributes:
	// action (push|metadata|persist), status (ok|abandoned|inactive).
	Deliveries metric.Int64Counter

	// DeliveryRetries counts individual failed delivery attempts that were
	// followed by a retry.
	DeliveryRetries metric.Int64Counter

	// TranslationFallbacks counts translation failures that fell back to
	// the source-language text.
	TranslationFallbacks metric.Int64Counter

	// DeliveryDuration tracks wall time of one complete delivery fan-out
	// for a single target, retries included.
	DeliveryDuration metric.Float64Histogram

	// ActiveRuns tracks pipeline runs currently in flight.
	ActiveRuns metric.Int64UpDownCounter
}

// durationBuckets defines histogram bucket boundaries in seconds, sized for
// publish calls that may sleep through two backoff waits.
var durationBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8,
}

// NewMetrics creates all instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.ResultsClassified, err = m.Int64Counter("jimakun.results.classified",
		metric.WithDescription("Recognition results that produced a usable candidate."),
	); err != nil {
		return nil, err
	}
	if met.Deliveries, err = m.Int64Counter("jimakun.deliveries",
		metric.WithDescription("Delivery outcomes per downstream action."),
	); err != nil {
		return nil, err
	}
	if met.DeliveryRetries, err = m.Int64Counter("jimakun.delivery.retries",
		metric.WithDescription("Failed delivery attempts that were retried."),
	); err != nil {
		return nil, err
	}
	if met.TranslationFallbacks, err = m.Int64Counter("jimakun.translation.fallbacks",
		metric.WithDescription("Translation failures that fell back to source text."),
	); err != nil {
		return nil, err
	}
	if met.DeliveryDuration, err = m.Float64Histogram("jimakun.delivery.duration",
		metric.WithDescription("Wall time of one delivery fan-out for a single target."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveRuns, err = m.Int64UpDownCounter("jimakun.runs.active",
		metric.WithDescription("Pipeline runs currently in flight."),
	); err != nil {
		return nil, err
	}
	return met, nil
}
