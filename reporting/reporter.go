// Package reporting delivers finished examples to logs and summary files.
package reporting

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-bdd/types"
)

// Reporter is notified once per finished example
type Reporter interface {
	ExampleFinished(ex *types.Example)
}

// Multi fans a finished example out to every reporter in order
type Multi []Reporter

// ExampleFinished implements Reporter
func (m Multi) ExampleFinished(ex *types.Example) {
	for _, r := range m {
		if r != nil {
			r.ExampleFinished(ex)
		}
	}
}

// LogReporter writes one structured log line per example
type LogReporter struct {
	log log.Logger
}

// NewLogReporter creates a LogReporter
func NewLogReporter(logger log.Logger) *LogReporter {
	return &LogReporter{log: logger}
}

// ExampleFinished implements Reporter
func (r *LogReporter) ExampleFinished(ex *types.Example) {
	ctx := []any{"example", ex.ID, "description", ex.FullName(), "status", ex.Status, "duration_ms", ex.DurationMs()}
	switch ex.Status {
	case types.ExampleStatusFailure:
		if ex.Error != nil {
			ctx = append(ctx, "error", firstLine(ex.Error.Message))
		}
		r.log.Warn("Example failed", ctx...)
	case types.ExampleStatusPending:
		ctx = append(ctx, "reason", ex.Result)
		r.log.Info("Example pending", ctx...)
	default:
		r.log.Info("Example finished", ctx...)
	}
}
