package types

import (
	"fmt"
	"strings"
	"time"
)

// ExampleStatus represents the possible states of an example run
type ExampleStatus string

const (
	ExampleStatusNotRun  ExampleStatus = "not_run"
	ExampleStatusSuccess ExampleStatus = "success"
	ExampleStatusFailure ExampleStatus = "failure"
	ExampleStatusPending ExampleStatus = "pending"
)

// Mark is a skip or pending flag, optionally carrying a reason
type Mark struct {
	Enabled bool
	Reason  string
}

// Marked is a mark set without a reason
var Marked = Mark{Enabled: true}

// Because returns a mark set with the given reason
func Because(reason string) Mark {
	return Mark{Enabled: true, Reason: reason}
}

// Options are the static options attached to an example or a scope
type Options struct {
	Skip    Mark
	Pending Mark
	Tags    map[string]any
}

// BodyFunc is the body of an example. Its return value becomes the example result.
type BodyFunc func(env *Env) (any, error)

// Example is one runnable test case: static identity and options plus the
// outcome of its last run
type Example struct {
	ID          string
	Description string
	Body        BodyFunc
	Options     Options

	// Scope is the declaring scope. The orchestrator only hands it to the
	// hook chain extractor.
	Scope any

	Status   ExampleStatus
	Result   any
	Error    *AssertionError
	Duration time.Duration
}

// DurationMs returns the run duration in whole milliseconds
func (e *Example) DurationMs() int64 {
	return e.Duration.Milliseconds()
}

// Copy returns a shallow copy of the example with its run outcome reset
func (e *Example) Copy() *Example {
	cp := *e
	cp.Status = ExampleStatusNotRun
	cp.Result = nil
	cp.Error = nil
	cp.Duration = 0
	return &cp
}

// FullName joins the path elements of the example ID and its description
func (e *Example) FullName() string {
	parts := strings.Split(e.ID, "/")
	if len(parts) <= 1 {
		return e.Description
	}
	return strings.Join(append(parts[:len(parts)-1], e.Description), " ")
}

// String returns a one-line summary of the example outcome
func (e *Example) String() string {
	switch e.Status {
	case ExampleStatusFailure:
		msg := ""
		if e.Error != nil {
			msg = e.Error.Message
		}
		return fmt.Sprintf("%s: %s (%dms): %s", e.ID, e.Status, e.DurationMs(), firstLine(msg))
	case ExampleStatusPending:
		return fmt.Sprintf("%s: %s: %v", e.ID, e.Status, e.Result)
	default:
		return fmt.Sprintf("%s: %s (%dms)", e.ID, e.Status, e.DurationMs())
	}
}

func firstLine(s string) string {
	if idx := strings.Index(s, "\n"); idx != -1 {
		return s[:idx]
	}
	return s
}
