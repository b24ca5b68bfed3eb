package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-bdd/types"
)

const (
	MetricsNamespace = "bdd"
)

var (
	Debug                bool = true
	validStatuses             = []types.ExampleStatus{types.ExampleStatusSuccess, types.ExampleStatusFailure, types.ExampleStatusPending}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	examplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "examples_total",
		Help:      "Count of finished examples",
	}, []string{
		"suite",
		"status",
	})

	exampleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "example_duration_seconds",
		Help:      "Wall-clock duration of examples, teardown included",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{
		"suite",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of example runs",
	}, []string{
		"run_id",
		"status",
	})

	runExamples = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_examples",
		Help:      "Number of examples per outcome in a run",
	}, []string{
		"run_id",
		"outcome",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of example runs",
	}, []string{
		"run_id",
	})

	diffUnavailableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "diff_unavailable_total",
		Help:      "Count of diffs abandoned because they exceeded their budget",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordExample counts a finished example and observes its duration
func RecordExample(suite string, status types.ExampleStatus, duration time.Duration) {
	if !isValidStatus(status) {
		log.Error("RecordExample - invalid status", "status", status)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "examples_total",
			"suite", suite,
			"status", status)
	}
	examplesTotal.WithLabelValues(suite, string(status)).Inc()
	exampleDuration.WithLabelValues(suite).Observe(duration.Seconds())
}

func RecordRun(
	runID string,
	status string,
	total int,
	succeeded int,
	failed int,
	pending int,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, status).Set(1)
	runExamples.WithLabelValues(runID, "total").Set(float64(total))
	runExamples.WithLabelValues(runID, "succeeded").Set(float64(succeeded))
	runExamples.WithLabelValues(runID, "failed").Set(float64(failed))
	runExamples.WithLabelValues(runID, "pending").Set(float64(pending))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func RecordDiffUnavailable() {
	diffUnavailableTotal.Inc()
}

func isValidStatus(status types.ExampleStatus) bool {
	return slices.Contains(validStatuses, status)
}
