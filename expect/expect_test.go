package expect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-bdd/diff"
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

func TestEqual(t *testing.T) {
	require.NoError(t, Equal(42, 42))
	require.NoError(t, Equal(map[string]int{"a": 1}, map[string]int{"a": 1}))

	err := Equal("cat", "cut")
	assertionErr, ok := types.AsAssertion(err)
	require.True(t, ok)
	assert.Equal(t, "Expected `cut` to equal `cat`, but it doesn't.\nexpected: c[-a-]t\nactual:   c{+u+}t", assertionErr.Message)
}

func TestEqualUnexportedFields(t *testing.T) {
	type point struct{ x, y int }
	require.NoError(t, Equal(point{1, 2}, point{1, 2}))
	require.Error(t, Equal(point{1, 2}, point{1, 3}))
}

func TestEqualWithoutDiffWhenUnavailable(t *testing.T) {
	blocking := func(ctx context.Context, v any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	a := New(diff.NewEngine(diff.WithTimeout(10*time.Millisecond), diff.WithRenderer(blocking)))

	err := a.Equal(1, 2)
	assertionErr, ok := types.AsAssertion(err)
	require.True(t, ok)
	assert.Equal(t, "Expected `2` to equal `1`, but it doesn't.", assertionErr.Message)
}

func TestHelpers(t *testing.T) {
	assert.NoError(t, True(true, "unused"))
	assert.EqualError(t, True(false, "want %d", 3), "want 3")

	assert.NoError(t, NoError(nil))
	assert.EqualError(t, NoError(errors.New("boom")), "Expected no error, got: boom")

	assert.NoError(t, Contains("hello world", "world"))
	assert.EqualError(t, Contains("hello", "bye"), "Expected `hello` to contain `bye`, but it doesn't.")

	assert.NotPanics(t, func() { Must(nil) })
	assert.PanicsWithError(t, "nope", func() { Must(types.Fail("nope")) })
}
