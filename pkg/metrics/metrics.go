// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package metrics holds prometheus metrics objects and related utility functions. It
// does not abstract away the prometheus client but the caller rarely needs to
// refer to prometheus directly.
package metrics

// Adding a metric
// - Add a metric object of the appropriate type as an exported variable
// - Register the new object in the init function

import (
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/cilium/cidragg/pkg/aggregate"
	"github.com/cilium/cidragg/pkg/input"
)

var (
	registry = prometheus.NewPedanticRegistry()

	// Namespace is used to scope metrics from cidragg. It is prepended to
	// metric names and separated with a '_'
	Namespace = "cidragg"

	// Labels

	// LabelOutcome marks whether an input record was used
	LabelOutcome = "outcome"

	// LabelReason marks why an input record was skipped
	LabelReason = "reason"

	// LabelFamily marks which address family (ipv4, ipv6) the metric is related to
	LabelFamily = "family"

	// LabelValueOutcomeAccepted is used for records that were parsed
	LabelValueOutcomeAccepted = "accepted"

	// LabelValueOutcomeSkipped is used for records that could not be used
	LabelValueOutcomeSkipped = "skipped"

	// LabelValueOutcomeBlank is used for empty lines
	LabelValueOutcomeBlank = "blank"

	// Input

	// InputRecords counts all input lines, tagged by outcome
	InputRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "input_records_total",
		Help:      "Number of input lines read, tagged by outcome",
	}, []string{LabelOutcome})

	// InputRecordsSkipped counts skipped input records, tagged by reason
	InputRecordsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "input_records_skipped_total",
		Help:      "Number of input records skipped, tagged by reason",
	}, []string{LabelReason})

	// Aggregation

	// AggregationPasses counts the sweeps over the sorted working set
	AggregationPasses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "aggregation_passes_total",
		Help:      "Number of sweeps the aggregation needed to reach a fixpoint",
	})

	// AggregationMerges counts sibling pairs replaced by their parent
	AggregationMerges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "aggregation_merges_total",
		Help:      "Number of sibling prefixes merged into their parent",
	})

	// AggregationDiscards counts prefixes dropped because a kept prefix
	// contains them
	AggregationDiscards = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "aggregation_discards_total",
		Help:      "Number of prefixes dropped because another prefix contains them",
	})

	// AggregationDuration is the time spent aggregating
	AggregationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "aggregation_duration_seconds",
		Help:      "Duration of the aggregation of one input",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	// OutputPrefixes is the number of prefixes written by the last run
	OutputPrefixes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "output_prefixes",
		Help:      "Number of prefixes in the aggregated output",
	}, []string{LabelFamily})

	// LastRunTimestamp is the time the last run finished
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the end of the last run",
	})

	// ErrorsWarnings counts error and warning log entries, see LoggingHook
	ErrorsWarnings = newErrorsWarnings()
)

func init() {
	MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: Namespace}))

	MustRegister(InputRecords)
	MustRegister(InputRecordsSkipped)

	MustRegister(AggregationPasses)
	MustRegister(AggregationMerges)
	MustRegister(AggregationDiscards)
	MustRegister(AggregationDuration)

	MustRegister(OutputPrefixes)
	MustRegister(LastRunTimestamp)

	MustRegister(ErrorsWarnings)
}

// MustRegister adds the collector to the registry, exposing this metric to
// prometheus scrapes.
// It will panic on error.
func MustRegister(c prometheus.Collector) {
	registry.MustRegister(c)
}

// Registry returns the registry all metrics of this package are kept in.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveInput accounts for the lines of one input.
func ObserveInput(stats input.Stats) {
	InputRecords.WithLabelValues(LabelValueOutcomeAccepted).Add(float64(stats.Accepted))
	InputRecords.WithLabelValues(LabelValueOutcomeBlank).Add(float64(stats.Blank))
	InputRecords.WithLabelValues(LabelValueOutcomeSkipped).Add(float64(stats.SkippedTotal()))

	reasons := make([]string, 0, len(stats.Skipped))
	for reason := range stats.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		InputRecordsSkipped.WithLabelValues(reason).Add(float64(stats.Skipped[reason]))
	}
}

// ObserveAggregation accounts for one run of the aggregation engine which
// produced output prefixes of the given family.
func ObserveAggregation(stats aggregate.Stats, family string, output int, duration time.Duration) {
	AggregationPasses.Add(float64(stats.Passes))
	AggregationMerges.Add(float64(stats.Merged))
	AggregationDiscards.Add(float64(stats.Discarded))
	AggregationDuration.Observe(duration.Seconds())
	OutputPrefixes.WithLabelValues(family).Set(float64(output))
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for the node exporter textfile collector. The file is
// replaced atomically.
func WriteTextfile(path string) error {
	SetTSValue(LastRunTimestamp, time.Now())
	if err := prometheus.WriteToTextfile(path, Registry()); err != nil {
		return fmt.Errorf("unable to write metrics to %s: %w", path, err)
	}
	return nil
}

// SetTSValue sets the gauge to the time value provided
func SetTSValue(c prometheus.Gauge, ts time.Time) {
	// Build time in seconds since the epoch. Prometheus only takes floating
	// point values, however, and urges times to be in seconds
	c.Set(float64(ts.UnixNano()) / float64(1000000000))
}

// GetCounterValue returns the current value
// stored for the counter
func GetCounterValue(m prometheus.Counter) float64 {
	var pm dto.Metric
	err := m.Write(&pm)
	if err == nil {
		return *pm.Counter.Value
	}
	return 0
}
