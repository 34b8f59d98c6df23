// Package metrics has the prometheus metrics of a run: the durations of the
// requests to the repository and of the waits for its indexes. A CLI run or
// a suite has no HTTP server to be scraped, so the metrics are pushed to a
// Pushgateway at the end, when one is configured.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry is the registry of the metrics of the harness.
var Registry = prometheus.NewRegistry()

// RequestDurations is a histogram of the durations of the requests to the
// repository, labelled by method and status code.
var RequestDurations = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "e2e",
		Subsystem: "repository",
		Name:      "request_duration_seconds",

		Help: "Durations of the requests to the repository, labelled by method and status code",

		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "code"},
)

// WaitDurations is a histogram of the time the repository takes to report
// the expected number of items in a view, labelled by view and outcome.
var WaitDurations = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "e2e",
		Subsystem: "fixture",
		Name:      "wait_duration_seconds",

		Help: "Time for the repository to index the fixture, labelled by view and outcome",

		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	},
	[]string{"view", "outcome"},
)

func init() {
	Registry.MustRegister(RequestDurations, WaitDurations)
}

// ObserveRequest records the duration of a request since start. A zero code
// means that no response has been received.
func ObserveRequest(method string, code int, start time.Time) {
	label := "none"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	RequestDurations.WithLabelValues(method, label).Observe(time.Since(start).Seconds())
}

// ObserveWait records the duration of a wait since start.
func ObserveWait(view string, err error, start time.Time) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	WaitDurations.WithLabelValues(view, outcome).Observe(time.Since(start).Seconds())
}

// Push sends the metrics to the Pushgateway at url, grouped under job. It
// replaces the metrics previously pushed for the same job.
func Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(Registry).PushContext(ctx)
}
