package core

import "context"

// Metric names emitted by the dispatch pipeline. Counters are tagged with the
// handler group and name where the pipeline knows them; the failure counter
// additionally carries the terminal outcome.
const (
	MetricAuthorizeDenied         = "txdispatch.authorize.denied.total"
	MetricLoaderSecurityViolation = "txdispatch.loader.security_violation.total"
	MetricDispatchFailure         = "txdispatch.dispatch.failure.total"
	MetricDispatchSuccess         = "txdispatch.dispatch.success.total"
	MetricDispatchDuration        = "txdispatch.dispatch.duration_ms"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
