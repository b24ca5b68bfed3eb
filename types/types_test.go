package types

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMerge(t *testing.T) {
	tests := []struct {
		name         string
		initial      Context
		contribution Context
		expected     Context
	}{
		{
			name:         "nil contribution leaves context unchanged",
			initial:      Context{"a": 1},
			contribution: nil,
			expected:     Context{"a": 1},
		},
		{
			name:         "new keys are added",
			initial:      Context{"a": 1},
			contribution: Context{"b": 2},
			expected:     Context{"a": 1, "b": 2},
		},
		{
			name:         "later writes overwrite earlier ones",
			initial:      Context{"x": 1},
			contribution: Context{"x": 2},
			expected:     Context{"x": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.initial.Merge(tt.contribution)
			assert.Equal(t, tt.expected, tt.initial)
		})
	}
}

func TestContextCloneIsIndependent(t *testing.T) {
	c := Context{"a": 1}
	cp := c.Clone()
	cp["a"] = 2
	cp["b"] = 3

	assert.Equal(t, Context{"a": 1}, c)
	assert.Equal(t, []string{"a", "b"}, cp.Keys())
}

func TestExampleCopyResetsOutcome(t *testing.T) {
	ex := &Example{
		ID:          "calc/0",
		Description: "adds",
		Status:      ExampleStatusFailure,
		Result:      42,
		Error:       Fail("boom"),
		Duration:    time.Second,
	}

	cp := ex.Copy()
	assert.Equal(t, ExampleStatusNotRun, cp.Status)
	assert.Nil(t, cp.Result)
	assert.Nil(t, cp.Error)
	assert.Zero(t, cp.Duration)
	assert.Equal(t, "calc/0", cp.ID)
	assert.Equal(t, ExampleStatusFailure, ex.Status, "original must not change")
}

func TestExampleString(t *testing.T) {
	ex := &Example{ID: "calc/0", Status: ExampleStatusFailure, Error: Fail("first\nsecond"), Duration: 1500 * time.Millisecond}
	assert.Equal(t, "calc/0: failure (1500ms): first", ex.String())

	ex = &Example{ID: "calc/1", Status: ExampleStatusPending, Result: "Pending"}
	assert.Equal(t, "calc/1: pending: Pending", ex.String())
}

func TestExampleFullName(t *testing.T) {
	ex := &Example{ID: "calc/when empty/0", Description: "returns zero"}
	assert.Equal(t, "calc when empty returns zero", ex.FullName())
}

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("in hook: %w", Fail("nope"))
	assertionErr, ok := AsAssertion(wrapped)
	require.True(t, ok)
	assert.Equal(t, "nope", assertionErr.Message)

	_, ok = AsAssertion(errors.New("plain"))
	assert.False(t, ok)

	after := &AfterExampleError{Err: Fail("teardown")}
	assertionErr, ok = AsAssertion(after)
	require.True(t, ok)
	assert.Equal(t, "teardown", assertionErr.Message)

	exitErr, ok := AsExitSignal(fmt.Errorf("wrapped: %w", Exit("killed")))
	require.True(t, ok)
	assert.Equal(t, "killed", exitErr.Reason)
}

type staticLets map[string]any

func (s staticLets) Resolve(_ *Env, name string) (any, error) {
	v, ok := s[name]
	if !ok {
		return nil, Failf("let %q is not defined", name)
	}
	return v, nil
}

func (s staticLets) Names() []string {
	return Context(s).Keys()
}

func TestEnv(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	env := NewEnv(ctx, Context{"a": 1}, staticLets{"x": 10})

	v, ok := env.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	env.Sync(Context{"a": 2})
	assert.Equal(t, Context{"a": 2}, env.Context())

	assert.Equal(t, 10, env.MustLet("x"))
	_, err := env.Let("missing")
	_, isAssertion := AsAssertion(err)
	assert.True(t, isAssertion)
	assert.Equal(t, []string{"x"}, env.LetNames())

	assert.Panics(t, func() { env.MustLet("missing") })

	select {
	case <-env.Done():
		t.Fatal("env must not be done before cancel")
	default:
	}
	cancel()
	<-env.Done()
}

func TestThunk(t *testing.T) {
	hook := Thunk(func() (Context, error) {
		return Context{"ready": true}, nil
	})
	out, err := hook(context.Background(), Context{"ignored": 1})
	require.NoError(t, err)
	assert.Equal(t, Context{"ready": true}, out)
}
