package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-bdd/suite"
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

// ExampleExecutor runs a single example and returns its outcome
type ExampleExecutor interface {
	Run(ctx context.Context, ex *types.Example) *types.Example
}

// Globals holds the hooks run around every example. Either may be nil.
type Globals struct {
	Before  types.HookFunc
	Finally types.HookFunc
}

// MockUnloader restores every patched value
type MockUnloader interface {
	UnloadAll()
}

// Reporter is notified once per finished example
type Reporter interface {
	ExampleFinished(ex *types.Example)
}

// ExecutorConfig holds the collaborators of an executor. It is set once at
// suite start and read-only while examples run.
type ExecutorConfig struct {
	Log      log.Logger
	Globals  Globals
	Mocks    MockUnloader
	Reporter Reporter
	Extract  func(*types.Example) suite.Chain
	Clock    func() time.Time
}

type exampleExecutor struct {
	log      log.Logger
	globals  Globals
	mocks    MockUnloader
	reporter Reporter
	extract  func(*types.Example) suite.Chain
	clock    func() time.Time
}

var _ ExampleExecutor = (*exampleExecutor)(nil)

// NewExampleExecutor creates an executor from cfg, filling in defaults for
// unset collaborators
func NewExampleExecutor(cfg ExecutorConfig) (ExampleExecutor, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Extract == nil {
		cfg.Extract = suite.Extract
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &exampleExecutor{
		log:      cfg.Log,
		globals:  cfg.Globals,
		mocks:    cfg.Mocks,
		reporter: cfg.Reporter,
		extract:  cfg.Extract,
		clock:    cfg.Clock,
	}, nil
}

// Run executes ex and returns a copy carrying its outcome. It never returns
// an error: every failure of the example ends up in the returned record.
func (e *exampleExecutor) Run(ctx context.Context, ex *types.Example) *types.Example {
	out := ex.Copy()
	chain := e.extract(out)

	if msg, ok := pendingMessage(chain); ok {
		out.Status = types.ExampleStatusPending
		out.Result = msg
		e.log.Debug("Example not run", "example", out.ID, "reason", msg)
		e.report(out)
		return out
	}

	start := e.clock()
	unitCtx, cancel := context.WithCancelCause(ctx)
	run := newExampleRun(out, chain, e.globals, e.log.New("example", out.ID))

	done := run.spawn(unitCtx)

	var outcome unitOutcome
	select {
	case outcome = <-done:
		if ctx.Err() != nil {
			// killed while the unit was finishing
			outcome = unitOutcome{kind: unitExited, reason: context.Cause(ctx).Error()}
		}
		cancel(nil)
	case <-ctx.Done():
		reason := context.Cause(ctx)
		cancel(reason)
		outcome = unitOutcome{kind: unitExited, reason: reason.Error()}
		e.log.Warn("Abandoning example unit", "example", out.ID, "reason", reason)
	}
	e.unloadMocks(out.ID)

	e.classify(out, run, outcome)
	out.Duration = e.clock().Sub(start).Truncate(time.Millisecond)
	if out.Duration < 0 {
		out.Duration = 0
	}

	e.report(out)
	return out
}

// pendingMessage resolves the message of a skipped or pending example. Skip
// takes precedence over pending.
func pendingMessage(chain suite.Chain) (string, bool) {
	switch {
	case chain.Skip.Enabled && chain.Skip.Reason != "":
		return fmt.Sprintf(SkippedWithReasonFormat, chain.Skip.Reason), true
	case chain.Skip.Enabled:
		return SkippedWithoutReason, true
	case chain.Pending.Enabled && chain.Pending.Reason != "":
		return fmt.Sprintf(PendingWithReasonFormat, chain.Pending.Reason), true
	case chain.Pending.Enabled:
		return PendingWithoutReason, true
	}
	return "", false
}

// classify sets the status, result and error of out. The first match wins:
// assertion failure, abnormal termination, unexpected fault, teardown failure.
func (e *exampleExecutor) classify(out *types.Example, run *exampleRun, outcome unitOutcome) {
	f := run.rec.snapshot()
	switch {
	case f != nil && f.kind == failureAssertion:
		e.fail(out, f.message)
	case outcome.kind == unitExited:
		e.fail(out, fmt.Sprintf(ExitedFormat, outcome.reason))
	case f != nil && f.kind == failureFault:
		e.fail(out, f.message)
	case f != nil && f.kind == failureTeardown:
		e.fail(out, f.message)
	default:
		out.Status = types.ExampleStatusSuccess
		out.Result = run.bodyResult()
		out.Error = nil
	}
}

func (e *exampleExecutor) fail(out *types.Example, message string) {
	out.Status = types.ExampleStatusFailure
	out.Result = nil
	out.Error = types.Fail(message)
}

func (e *exampleExecutor) unloadMocks(id string) {
	if e.mocks == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error("Unloading mocks panicked", "example", id, "panic", rec)
		}
	}()
	e.mocks.UnloadAll()
}

// report hands out to the reporter, which must not break the run
func (e *exampleExecutor) report(out *types.Example) {
	if e.reporter == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error("Reporter panicked", "example", out.ID, "panic", rec)
		}
	}()
	e.reporter.ExampleFinished(out)
}
