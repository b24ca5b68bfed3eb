package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ethereum-optimism/infra/op-bdd/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errToLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordExample(t *testing.T) {
	before := testutil.ToFloat64(examplesTotal.WithLabelValues("metrics-suite", string(types.ExampleStatusSuccess)))
	RecordExample("metrics-suite", types.ExampleStatusSuccess, 10*time.Millisecond)
	after := testutil.ToFloat64(examplesTotal.WithLabelValues("metrics-suite", string(types.ExampleStatusSuccess)))
	if after != before+1 {
		t.Errorf("examples_total = %v, want %v", after, before+1)
	}

	// invalid statuses are dropped
	RecordExample("metrics-suite", types.ExampleStatusNotRun, time.Millisecond)
	if got := testutil.ToFloat64(examplesTotal.WithLabelValues("metrics-suite", string(types.ExampleStatusNotRun))); got != 0 {
		t.Errorf("not_run must not be recorded, got %v", got)
	}
}

func TestRecordRun(t *testing.T) {
	RecordRun("run-1", "failure", 3, 1, 1, 1, 2*time.Second)
	if got := testutil.ToFloat64(runExamples.WithLabelValues("run-1", "failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(runDuration.WithLabelValues("run-1")); got != 2 {
		t.Errorf("duration = %v, want 2", got)
	}
}

func TestRecordErrorDetails(t *testing.T) {
	RecordErrorDetails("label", nil)
	RecordErrorDetails("manifest", errors.New("bad file"))
	if got := testutil.ToFloat64(errorsTotal.WithLabelValues("manifest.bad_file")); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
}

func TestRecordDiffUnavailable(t *testing.T) {
	before := testutil.ToFloat64(diffUnavailableTotal)
	RecordDiffUnavailable()
	if got := testutil.ToFloat64(diffUnavailableTotal); got != before+1 {
		t.Errorf("diff_unavailable_total = %v, want %v", got, before+1)
	}
}
