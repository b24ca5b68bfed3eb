package runner

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/ethereum-optimism/infra/op-bdd/types"
)

type failureKind int

const (
	// failureAssertion is an expected assertion failure
	failureAssertion failureKind = iota + 1
	// failureFault is any other error or panic
	failureFault
	// failureTeardown is an assertion failure raised by a finally hook after
	// the body succeeded
	failureTeardown
)

type failure struct {
	kind    failureKind
	message string
	err     error
}

// recorder keeps the first failure of a run. It is shared between the
// isolation unit and the orchestrator, which may read it after abandoning
// a unit that is still running.
type recorder struct {
	mu    sync.Mutex
	first *failure
}

// record stores f unless a failure was already recorded. It reports whether
// f was kept.
func (r *recorder) record(f *failure) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.first != nil {
		return false
	}
	r.first = f
	return true
}

func (r *recorder) failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.first != nil
}

func (r *recorder) snapshot() *failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.first == nil {
		return nil
	}
	cp := *r.first
	return &cp
}

// panicError carries a recovered panic value and the stack it was raised on
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// Unwrap exposes panicked errors so assertion and exit panics classify like
// returned ones
func (p *panicError) Unwrap() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return nil
}

func recovered(value any) *panicError {
	return &panicError{value: value, stack: debug.Stack()}
}

// newFailure classifies a hook error. teardown is set for finally hooks that
// run after a successful body.
func newFailure(phase, hook string, err error, teardown bool) *failure {
	if assertionErr, ok := types.AsAssertion(err); ok {
		if teardown {
			after := &types.AfterExampleError{Err: assertionErr}
			return &failure{kind: failureTeardown, message: after.Error(), err: after}
		}
		return &failure{kind: failureAssertion, message: assertionErr.Message, err: assertionErr}
	}
	return &failure{kind: failureFault, message: formatFault(phase, hook, err), err: err}
}

// formatFault renders the banner and trace of an unexpected fault
func formatFault(phase, hook string, err error) string {
	var sb strings.Builder
	var p *panicError
	if errors.As(err, &p) {
		if inner, ok := p.value.(error); ok {
			fmt.Fprintf(&sb, "** (panic %T) %v", inner, inner)
		} else {
			fmt.Fprintf(&sb, "** (panic) %v", p.value)
		}
	} else {
		fmt.Fprintf(&sb, "** (%T) %v", err, err)
	}

	if hook != "" {
		fmt.Fprintf(&sb, "\n    in %s hook %q", phase, hook)
	} else {
		fmt.Fprintf(&sb, "\n    in %s", phase)
	}

	if p != nil {
		sb.WriteString("\n")
		sb.Write(p.stack)
	}
	return strings.TrimRight(sb.String(), "\n")
}
