// Package diff computes a structural edit script between an expected and an
// actual value, bounded in time so that pathological inputs cannot stall a
// run.
package diff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/ethereum-optimism/infra/op-bdd/metrics"
)

// DefaultTimeout is the wall-clock budget of a diff computation
const DefaultTimeout = 1500 * time.Millisecond

// matchWindow bounds the tokens per side handed to a single matcher call
const matchWindow = 256

// ErrUnavailable is returned when the diff could not be computed within its budget
var ErrUnavailable = errors.New("diff unavailable")

// Op tags an edit fragment
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

func (o Op) String() string {
	switch o {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Edit is one fragment of an edit script
type Edit struct {
	Op   Op
	Text string
}

// Result holds the edit script of both renderings. Left is the actual
// rendering, where Insert marks text absent from the expected value. Right
// is the expected rendering, where Delete marks text absent from the actual
// value.
type Result struct {
	Left  []Edit
	Right []Edit
}

// HasChanges reports whether the script contains anything but Equal fragments
func (r *Result) HasChanges() bool {
	for _, edits := range [][]Edit{r.Left, r.Right} {
		for _, e := range edits {
			if e.Op != Equal {
				return true
			}
		}
	}
	return false
}

// String renders both sides with colour highlighting
func (r *Result) String() string {
	del := text.Colors{text.FgRed}
	ins := text.Colors{text.FgGreen}
	return render(r, func(e Edit) string {
		switch e.Op {
		case Delete:
			return del.Sprint(e.Text)
		case Insert:
			return ins.Sprint(e.Text)
		default:
			return e.Text
		}
	})
}

// Plain renders both sides with [-deleted-] and {+inserted+} markers
func (r *Result) Plain() string {
	return render(r, func(e Edit) string {
		switch e.Op {
		case Delete:
			return "[-" + e.Text + "-]"
		case Insert:
			return "{+" + e.Text + "+}"
		default:
			return e.Text
		}
	})
}

func render(r *Result, fragment func(Edit) string) string {
	var sb strings.Builder
	sb.WriteString("expected: ")
	for _, e := range r.Right {
		sb.WriteString(fragment(e))
	}
	sb.WriteString("\nactual:   ")
	for _, e := range r.Left {
		sb.WriteString(fragment(e))
	}
	return sb.String()
}

// Engine computes diffs in a worker goroutine under a wall-clock budget
type Engine struct {
	timeout time.Duration
	render  Renderer
	log     log.Logger
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithTimeout overrides the default budget
func WithTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = timeout
	}
}

// WithRenderer overrides the default value renderer
func WithRenderer(render Renderer) EngineOption {
	return func(e *Engine) {
		e.render = render
	}
}

// WithLogger sets the logger used to report unavailable diffs
func WithLogger(logger log.Logger) EngineOption {
	return func(e *Engine) {
		e.log = logger
	}
}

// NewEngine creates a diff engine
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		timeout: DefaultTimeout,
		render:  DefaultRenderer,
		log:     log.Root(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// Diff computes the edit script between expected and actual with the
// default budget
func Diff(expected, actual any) (*Result, error) {
	return defaultEngine.Compute(context.Background(), expected, actual)
}

type workerResult struct {
	result *Result
	err    error
}

// Compute returns the edit script between expected and actual, or
// ErrUnavailable when the worker does not finish within the budget. The
// worker is cancelled when the budget expires.
func (e *Engine) Compute(ctx context.Context, expected, actual any) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan workerResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- workerResult{err: fmt.Errorf("diff worker panicked: %v", rec)}
			}
		}()
		res, err := e.compute(ctx, expected, actual)
		done <- workerResult{result: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && ctx.Err() != nil {
			return e.unavailable()
		}
		return out.result, out.err
	case <-ctx.Done():
		return e.unavailable()
	}
}

func (e *Engine) unavailable() (*Result, error) {
	e.log.Debug("Diff budget exceeded", "timeout", e.timeout)
	metrics.RecordDiffUnavailable()
	return nil, ErrUnavailable
}

func (e *Engine) compute(ctx context.Context, expected, actual any) (*Result, error) {
	expectedText, err := e.render(ctx, expected)
	if err != nil {
		return nil, fmt.Errorf("rendering expected value: %w", err)
	}
	actualText, err := e.render(ctx, actual)
	if err != nil {
		return nil, fmt.Errorf("rendering actual value: %w", err)
	}

	if expectedText == actualText {
		res := &Result{}
		if expectedText != "" {
			res.Left = []Edit{{Op: Equal, Text: actualText}}
			res.Right = []Edit{{Op: Equal, Text: expectedText}}
		}
		return res, nil
	}

	scalar := isScalar(expected) && isScalar(actual)
	expectedTokens, err := tokenize(ctx, expectedText, scalar)
	if err != nil {
		return nil, err
	}
	actualTokens, err := tokenize(ctx, actualText, scalar)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	prefix := commonPrefix(expectedTokens, actualTokens)
	suffix := commonSuffix(expectedTokens[prefix:], actualTokens[prefix:])
	res.equal(expectedTokens[:prefix], actualTokens[:prefix])
	err = matchWindows(ctx, res,
		expectedTokens[prefix:len(expectedTokens)-suffix],
		actualTokens[prefix:len(actualTokens)-suffix])
	if err != nil {
		return nil, err
	}
	res.equal(expectedTokens[len(expectedTokens)-suffix:], actualTokens[len(actualTokens)-suffix:])
	return res, nil
}

// matchWindows diffs expected against actual in aligned windows of at most
// matchWindow tokens per side. A matcher call cannot be interrupted, so the
// context is checked between windows.
func matchWindows(ctx context.Context, res *Result, expected, actual []string) error {
	windows := (max(len(expected), len(actual)) + matchWindow - 1) / matchWindow
	for w := 0; w < windows; w++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e := expected[len(expected)*w/windows : len(expected)*(w+1)/windows]
		a := actual[len(actual)*w/windows : len(actual)*(w+1)/windows]
		res.match(e, a)
	}
	return ctx.Err()
}

func (r *Result) match(expected, actual []string) {
	switch {
	case len(expected) == 0:
		r.Left = appendEdit(r.Left, Insert, strings.Join(actual, ""))
		return
	case len(actual) == 0:
		r.Right = appendEdit(r.Right, Delete, strings.Join(expected, ""))
		return
	}

	matcher := difflib.NewMatcherWithJunk(expected, actual, false, nil)
	for _, oc := range matcher.GetOpCodes() {
		expectedPart := expected[oc.I1:oc.I2]
		actualPart := actual[oc.J1:oc.J2]
		switch oc.Tag {
		case 'e':
			r.equal(expectedPart, actualPart)
		case 'd':
			r.Right = appendEdit(r.Right, Delete, strings.Join(expectedPart, ""))
		case 'i':
			r.Left = appendEdit(r.Left, Insert, strings.Join(actualPart, ""))
		case 'r':
			r.Right = appendEdit(r.Right, Delete, strings.Join(expectedPart, ""))
			r.Left = appendEdit(r.Left, Insert, strings.Join(actualPart, ""))
		}
	}
}

func (r *Result) equal(expected, actual []string) {
	r.Right = appendEdit(r.Right, Equal, strings.Join(expected, ""))
	r.Left = appendEdit(r.Left, Equal, strings.Join(actual, ""))
}

func commonPrefix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}

// appendEdit adds a fragment, coalescing it with a preceding one of the same op
func appendEdit(edits []Edit, op Op, fragment string) []Edit {
	if fragment == "" {
		return edits
	}
	if n := len(edits); n > 0 && edits[n-1].Op == op {
		edits[n-1].Text += fragment
		return edits
	}
	return append(edits, Edit{Op: op, Text: fragment})
}
