package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-bdd/metrics"
	"github.com/ethereum-optimism/infra/op-bdd/suite"
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

// SuiteResult captures aggregated results for one root scope
type SuiteResult struct {
	ID       string
	Examples []*types.Example
	Status   types.ExampleStatus
	Duration time.Duration
	Stats    ResultStats
}

// RunnerResult captures the complete run results
type RunnerResult struct {
	Suites   []*SuiteResult
	Status   types.ExampleStatus
	Duration time.Duration
	Stats    ResultStats
	RunID    string
}

// ResultStats tracks example statistics
type ResultStats struct {
	Total     int
	Succeeded int
	Failed    int
	Pending   int
	StartTime time.Time
	EndTime   time.Time
}

// Runner runs every example of a set of suites, one at a time
type Runner interface {
	RunAll(ctx context.Context) (*RunnerResult, error)
}

type runner struct {
	suites   []*suite.Scope
	executor ExampleExecutor
	focus    string
	log      log.Logger
	tracer   trace.Tracer
}

// Config holds configuration for creating a new runner. Executor is built
// from Globals, Mocks and Reporter when unset.
type Config struct {
	Suites   []*suite.Scope
	Executor ExampleExecutor
	Globals  Globals
	Mocks    MockUnloader
	Reporter Reporter
	Focus    string
	Log      log.Logger
}

// NewRunner creates a new runner instance
func NewRunner(cfg Config) (Runner, error) {
	if len(cfg.Suites) == 0 {
		return nil, fmt.Errorf("at least one suite is required")
	}
	for _, s := range cfg.Suites {
		if s == nil {
			return nil, fmt.Errorf("nil suite")
		}
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Executor == nil {
		executor, err := NewExampleExecutor(ExecutorConfig{
			Log:      cfg.Log,
			Globals:  cfg.Globals,
			Mocks:    cfg.Mocks,
			Reporter: cfg.Reporter,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create executor: %w", err)
		}
		cfg.Executor = executor
	}

	cfg.Log.Debug("NewRunner()", "suites", len(cfg.Suites), "focus", cfg.Focus)

	return &runner{
		suites:   cfg.Suites,
		executor: cfg.Executor,
		focus:    cfg.Focus,
		log:      cfg.Log,
		tracer:   otel.Tracer("example runner"),
	}, nil
}

// RunAll runs the focused examples of every suite in declaration order. It
// stops early, returning the partial result and an error, when ctx is done.
func (r *runner) RunAll(ctx context.Context) (*RunnerResult, error) {
	start := time.Now()
	result := &RunnerResult{
		RunID: uuid.New().String(),
		Stats: ResultStats{StartTime: start},
	}
	r.log.Debug("Running all examples", "run_id", result.RunID)

	ctx, span := r.tracer.Start(ctx, "run", trace.WithAttributes(attribute.String("run_id", result.RunID)))
	defer span.End()

	var runErr error
	for _, s := range r.suites {
		if err := r.runSuite(ctx, s, result); err != nil {
			runErr = err
			break
		}
	}

	result.Stats.EndTime = time.Now()
	result.Duration = result.Stats.EndTime.Sub(start)
	result.Status = determineRunnerStatus(result)
	span.SetAttributes(attribute.String("status", string(result.Status)))

	if runErr != nil {
		span.SetStatus(codes.Error, runErr.Error())
		return result, runErr
	}
	return result, nil
}

func (r *runner) runSuite(ctx context.Context, s *suite.Scope, result *RunnerResult) error {
	suiteResult := &SuiteResult{ID: s.Name}
	if suiteResult.ID == "" {
		suiteResult.ID = DefaultSuiteName
	}
	suiteResult.Stats.StartTime = time.Now()
	result.Suites = append(result.Suites, suiteResult)
	defer func() {
		suiteResult.Stats.EndTime = time.Now()
		suiteResult.Status = determineSuiteStatus(suiteResult)
	}()

	for _, ex := range s.Examples() {
		if !r.focused(ex) {
			continue
		}
		if ctx.Err() != nil {
			return fmt.Errorf("run interrupted before %s: %w", ex.ID, context.Cause(ctx))
		}
		out := r.runExample(ctx, suiteResult.ID, ex)
		result.add(suiteResult, out)
	}
	return nil
}

func (r *runner) runExample(ctx context.Context, suiteID string, ex *types.Example) *types.Example {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("example %s", ex.ID))
	defer span.End()

	r.log.Info("Running example", "example", ex.ID, "description", ex.FullName())
	out := r.executor.Run(ctx, ex)

	span.SetAttributes(
		attribute.String("status", string(out.Status)),
		attribute.Int64("duration_ms", out.DurationMs()),
	)
	if out.Error != nil {
		span.SetStatus(codes.Error, out.Error.Message)
	}

	metrics.RecordExample(suiteID, out.Status, out.Duration)
	r.log.Debug("Example finished", "example", out.ID, "status", out.Status, "duration", out.Duration)
	return out
}

// focused reports whether ex matches the focus filter. An empty filter
// matches everything.
func (r *runner) focused(ex *types.Example) bool {
	if r.focus == "" {
		return true
	}
	return strings.Contains(ex.ID, r.focus) || strings.Contains(ex.FullName(), r.focus)
}

func (r *RunnerResult) add(s *SuiteResult, ex *types.Example) {
	s.Examples = append(s.Examples, ex)
	s.Stats.count(ex.Status)
	s.Duration += ex.Duration
	r.Stats.count(ex.Status)
}

func (s *ResultStats) count(status types.ExampleStatus) {
	s.Total++
	switch status {
	case types.ExampleStatusSuccess:
		s.Succeeded++
	case types.ExampleStatusFailure:
		s.Failed++
	case types.ExampleStatusPending:
		s.Pending++
	}
}

// Failures returns every failed example of the run
func (r *RunnerResult) Failures() []*types.Example {
	var failed []*types.Example
	for _, s := range r.Suites {
		for _, ex := range s.Examples {
			if ex.Status == types.ExampleStatusFailure {
				failed = append(failed, ex)
			}
		}
	}
	return failed
}

func determineSuiteStatus(s *SuiteResult) types.ExampleStatus {
	return determineStatusFromStats(s.Stats)
}

func determineRunnerStatus(result *RunnerResult) types.ExampleStatus {
	return determineStatusFromStats(result.Stats)
}

// determineStatusFromStats returns failure if anything failed, pending if
// nothing ran to completion, success otherwise
func determineStatusFromStats(stats ResultStats) types.ExampleStatus {
	if stats.Failed > 0 {
		return types.ExampleStatusFailure
	}
	if stats.Total == stats.Pending {
		return types.ExampleStatusPending
	}
	return types.ExampleStatusSuccess
}

// formatDuration formats the duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// String returns a formatted tree of the run results
func (r *RunnerResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run Results (%s):\n", formatDuration(r.Duration))
	fmt.Fprintf(&b, "Total: %d, Succeeded: %d, Failed: %d, Pending: %d\n",
		r.Stats.Total, r.Stats.Succeeded, r.Stats.Failed, r.Stats.Pending)

	for _, s := range r.Suites {
		fmt.Fprintf(&b, "\nSuite: %s (%s)\n", s.ID, formatDuration(s.Duration))
		fmt.Fprintf(&b, "├── Status: %s\n", s.Status)
		fmt.Fprintf(&b, "├── Examples: %d succeeded, %d failed, %d pending\n",
			s.Stats.Succeeded, s.Stats.Failed, s.Stats.Pending)
		for i, ex := range s.Examples {
			prefix := "├──"
			if i == len(s.Examples)-1 {
				prefix = "└──"
			}
			fmt.Fprintf(&b, "%s Example: %s (%s) [status=%s]\n",
				prefix, ex.FullName(), formatDuration(ex.Duration), ex.Status)
			if ex.Error != nil {
				fmt.Fprintf(&b, "│       └── Error: %s\n", firstLine(ex.Error.Message))
			}
		}
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
