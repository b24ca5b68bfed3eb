package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-bdd/suite"
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

type unitOutcomeKind int

const (
	// unitReturned means the unit ran its whole hook sequence
	unitReturned unitOutcomeKind = iota
	// unitExited means the unit terminated abnormally
	unitExited
)

// unitOutcome is what the isolation unit delivers on its completion channel
type unitOutcome struct {
	kind   unitOutcomeKind
	reason string
}

// exampleRun is the state of one isolated example run: the shared context,
// the let memo and the recorded failure
type exampleRun struct {
	ex      *types.Example
	chain   suite.Chain
	globals Globals
	log     log.Logger

	shared types.Context
	lets   *letSet
	env    *types.Env
	rec    *recorder

	resultMu sync.Mutex
	result   any
	bodyDone bool
}

func newExampleRun(ex *types.Example, chain suite.Chain, globals Globals, logger log.Logger) *exampleRun {
	return &exampleRun{
		ex:      ex,
		chain:   chain,
		globals: globals,
		log:     logger,
		rec:     &recorder{},
	}
}

// spawn starts the isolation unit. The returned channel receives exactly one
// outcome, also when the unit ends through runtime.Goexit.
func (r *exampleRun) spawn(ctx context.Context) <-chan unitOutcome {
	done := make(chan unitOutcome, 1)
	go func() {
		finished := false
		defer func() {
			if finished {
				return
			}
			if rec := recover(); rec != nil {
				done <- unitOutcome{kind: unitExited, reason: fmt.Sprint(rec)}
				return
			}
			done <- unitOutcome{kind: unitExited, reason: GoexitReason}
		}()
		out := r.execute(ctx)
		finished = true
		done <- out
	}()
	return done
}

// execute runs global before, before hooks, eager lets, the body, finally
// hooks and global finally. Once a failure is recorded no further before
// hook, let or body runs, but every finally hook still does.
func (r *exampleRun) execute(ctx context.Context) unitOutcome {
	r.shared = r.chain.Tags.Clone()
	r.lets = newLetSet(r.chain.Lets)
	r.env = types.NewEnv(ctx, r.shared, r.lets)

	if r.globals.Before != nil {
		if exit := r.runHook(phaseGlobalBefore, "", r.globals.Before); exit != nil {
			return r.exited(exit)
		}
	}

	r.lets.Reset()
	r.env.Sync(r.shared)
	for _, h := range r.chain.Befores {
		if r.rec.failed() {
			break
		}
		if exit := r.runHook(phaseBefore, h.Name, h.Fn); exit != nil {
			return r.exited(exit)
		}
		r.env.Sync(r.shared)
	}

	for _, let := range r.lets.eager() {
		if r.rec.failed() {
			break
		}
		if exit := r.runLet(let.Name); exit != nil {
			return r.exited(exit)
		}
	}

	if !r.rec.failed() && r.ex.Body != nil {
		if exit := r.runBody(); exit != nil {
			return r.exited(exit)
		}
	}

	for _, h := range r.chain.Finallies {
		if exit := r.runHook(phaseFinally, h.Name, h.Fn); exit != nil {
			return r.exited(exit)
		}
	}

	if r.globals.Finally != nil {
		if exit := r.runHook(phaseGlobalFinally, "", r.globals.Finally); exit != nil {
			return r.exited(exit)
		}
	}
	return unitOutcome{kind: unitReturned}
}

func (r *exampleRun) exited(exit *types.ExitSignal) unitOutcome {
	r.log.Debug("Example unit exited", "example", r.ex.ID, "reason", exit.Reason)
	return unitOutcome{kind: unitExited, reason: exit.Reason}
}

// guard calls fn, converting a panic into an error
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recovered(rec)
		}
	}()
	return fn()
}

// settle records err, returning the exit signal when err terminates the unit
func (r *exampleRun) settle(phase, name string, err error) *types.ExitSignal {
	if err == nil {
		return nil
	}
	if exit, ok := types.AsExitSignal(err); ok {
		return exit
	}
	teardown := phase == phaseFinally || phase == phaseGlobalFinally
	f := newFailure(phase, name, err, teardown && r.succeeded())
	if r.rec.record(f) {
		r.log.Debug("Example failure recorded", "example", r.ex.ID, "phase", phase, "hook", name, "err", err)
	} else {
		r.log.Debug("Discarding error after earlier failure", "example", r.ex.ID, "phase", phase, "hook", name, "err", err)
	}
	return nil
}

func (r *exampleRun) runHook(phase, name string, fn types.HookFunc) *types.ExitSignal {
	var contribution types.Context
	err := guard(func() error {
		var err error
		contribution, err = fn(r.env.Ctx(), r.shared.Clone())
		return err
	})
	if err != nil {
		return r.settle(phase, name, err)
	}
	r.shared.Merge(contribution)
	return nil
}

// runLet evaluates an eager let and adds its value to the shared context
func (r *exampleRun) runLet(name string) *types.ExitSignal {
	var v any
	err := guard(func() error {
		var err error
		v, err = r.lets.Resolve(r.env, name)
		return err
	})
	if err != nil {
		return r.settle(phaseLet, name, err)
	}
	r.shared[name] = v
	r.env.Sync(r.shared)
	return nil
}

func (r *exampleRun) runBody() *types.ExitSignal {
	r.env.Sync(r.shared)
	var v any
	err := guard(func() error {
		var err error
		v, err = r.ex.Body(r.env)
		return err
	})
	if err != nil {
		return r.settle(phaseBody, "", err)
	}
	r.resultMu.Lock()
	r.result = v
	r.bodyDone = true
	r.resultMu.Unlock()
	return nil
}

// succeeded reports whether the body completed without any recorded failure
func (r *exampleRun) succeeded() bool {
	r.resultMu.Lock()
	done := r.bodyDone
	r.resultMu.Unlock()
	return done && !r.rec.failed()
}

func (r *exampleRun) bodyResult() any {
	r.resultMu.Lock()
	defer r.resultMu.Unlock()
	return r.result
}
