package tracking

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromTracker exports run telemetry as Prometheus metrics. With a metrics
// file configured, Report writes them in the node exporter textfile format.
type PromTracker struct {
	registry    *prometheus.Registry
	metricsFile string

	exceptions *prometheus.CounterVec
	artifacts  *prometheus.GaugeVec
	sinks      *prometheus.GaugeVec
	success    prometheus.Gauge
	lastRun    prometheus.Gauge
}

var countProps = map[string]string{
	PropModelCount:          "model",
	PropSourceCount:         "source",
	PropExposureCount:       "exposure",
	PropTestResultCount:     "test_result",
	PropElementaryTestCount: "elementary_test",
}

var sinkNames = []string{"slack", "s3", "gcs"}

// NewPromTracker registers the report metrics on reg.
func NewPromTracker(reg *prometheus.Registry, metricsFile string) *PromTracker {
	factory := promauto.With(reg)
	return &PromTracker{
		registry:    reg,
		metricsFile: metricsFile,
		exceptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goreport_step_failures_total",
			Help: "Total number of failed report steps",
		}, []string{"step"}),
		artifacts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "goreport_report_items",
			Help: "Number of items included in the last report",
		}, []string{"kind"}),
		sinks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "goreport_sink_delivered",
			Help: "Whether the last report was delivered through the sink (1) or not (0)",
		}, []string{"sink"}),
		success: factory.NewGauge(prometheus.GaugeOpts{
			Name: "goreport_last_run_success",
			Help: "Whether the last report run succeeded (1) or not (0)",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "goreport_last_run_timestamp_seconds",
			Help: "Unix time the last report run finished",
		}),
	}
}

func (t *PromTracker) RecordException(step string, _ error) {
	t.exceptions.WithLabelValues(step).Inc()
}

func (t *PromTracker) Report(_ context.Context, _ string, props *ExecutionProperties) error {
	for key, kind := range countProps {
		if v, ok := props.Get(key); ok {
			if n, ok := v.(int); ok {
				t.artifacts.WithLabelValues(kind).Set(float64(n))
			}
		}
	}
	for _, sink := range sinkNames {
		if v, ok := props.Get(SentToProp(sink)); ok {
			t.sinks.WithLabelValues(sink).Set(boolValue(v))
		}
	}
	if v, ok := props.Get(PropSuccess); ok {
		t.success.Set(boolValue(v))
	}
	t.lastRun.SetToCurrentTime()

	if t.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(t.metricsFile, t.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

func boolValue(v any) float64 {
	if b, ok := v.(bool); ok && b {
		return 1
	}
	return 0
}
