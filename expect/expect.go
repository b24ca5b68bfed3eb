// Package expect provides assertion primitives for example bodies and hooks.
// Failed checks return *types.AssertionError; value mismatches carry a diff
// of the expected and actual values when one can be computed in time.
package expect

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/ethereum-optimism/infra/op-bdd/diff"
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// Asserter builds assertion failures with a specific diff engine
type Asserter struct {
	engine *diff.Engine
}

// New creates an Asserter. A nil engine uses the default diff budget.
func New(engine *diff.Engine) *Asserter {
	if engine == nil {
		engine = diff.NewEngine()
	}
	return &Asserter{engine: engine}
}

var std = New(nil)

// Equal fails unless actual equals expected
func Equal(expected, actual any) error {
	return std.Equal(expected, actual)
}

// Equal fails unless actual equals expected
func (a *Asserter) Equal(expected, actual any) error {
	if cmp.Equal(expected, actual, exportAll) {
		return nil
	}
	msg := fmt.Sprintf("Expected `%v` to equal `%v`, but it doesn't.", actual, expected)
	res, err := a.engine.Compute(context.Background(), expected, actual)
	if err != nil || !res.HasChanges() {
		return types.Fail(msg)
	}
	return types.Fail(msg + "\n" + res.Plain())
}

// True fails with message unless cond holds
func True(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return types.Failf(format, args...)
}

// NoError fails when err is not nil
func NoError(err error) error {
	if err == nil {
		return nil
	}
	return types.Failf("Expected no error, got: %v", err)
}

// Contains fails unless s contains substr
func Contains(s, substr string) error {
	if strings.Contains(s, substr) {
		return nil
	}
	return types.Failf("Expected `%s` to contain `%s`, but it doesn't.", s, substr)
}

// Must panics with err when it is not nil. The runner records the panic
// value the same way as a returned error.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}
