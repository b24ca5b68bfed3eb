package diff

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func joined(edits []Edit) string {
	var sb strings.Builder
	for _, e := range edits {
		sb.WriteString(e.Text)
	}
	return sb.String()
}

func TestDiffOfEqualValuesHasOnlyEqualFragments(t *testing.T) {
	values := []struct {
		name  string
		value any
	}{
		{name: "string", value: "hello world"},
		{name: "integer", value: 12345},
		{name: "float", value: 3.25},
		{name: "bool", value: true},
		{name: "slice", value: []int{1, 2, 3}},
		{name: "map", value: map[string]any{"b": 2, "a": []string{"x"}}},
		{name: "struct", value: struct {
			Name string
			Age  int
		}{"ada", 36}},
		{name: "nil", value: nil},
	}

	for _, tt := range values {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Diff(tt.value, tt.value)
			require.NoError(t, err)
			assert.False(t, res.HasChanges())

			rendered, err := DefaultRenderer(context.Background(), tt.value)
			require.NoError(t, err)
			for _, e := range append(res.Left, res.Right...) {
				assert.Equal(t, Equal, e.Op)
			}
			assert.Equal(t, rendered, joined(res.Left))
			assert.Equal(t, rendered, joined(res.Right))
		})
	}
}

func TestDiffStrings(t *testing.T) {
	res, err := Diff("hello world", "hello there")
	require.NoError(t, err)
	require.True(t, res.HasChanges())

	// each side still spells out its full rendering
	assert.Equal(t, "hello world", joined(res.Right))
	assert.Equal(t, "hello there", joined(res.Left))

	for _, e := range res.Right {
		assert.NotEqual(t, Insert, e.Op, "expected side never carries inserts")
	}
	for _, e := range res.Left {
		assert.NotEqual(t, Delete, e.Op, "actual side never carries deletes")
	}
	assert.Equal(t, Edit{Op: Equal, Text: "hello "}, res.Right[0])
}

func TestDiffScripts(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		left     []Edit
		right    []Edit
	}{
		{
			name:     "pure insertion",
			expected: "abc",
			actual:   "abXc",
			left:     []Edit{{Equal, "ab"}, {Insert, "X"}, {Equal, "c"}},
			right:    []Edit{{Equal, "abc"}},
		},
		{
			name:     "pure deletion",
			expected: "abXc",
			actual:   "abc",
			left:     []Edit{{Equal, "abc"}},
			right:    []Edit{{Equal, "ab"}, {Delete, "X"}, {Equal, "c"}},
		},
		{
			name:     "invalid utf-8 is kept byte for byte",
			expected: "\xffa",
			actual:   "\xffb",
			left:     []Edit{{Equal, "\xff"}, {Insert, "b"}},
			right:    []Edit{{Equal, "\xff"}, {Delete, "a"}},
		},
		{
			name:     "multibyte runes",
			expected: "héllo",
			actual:   "hällo",
			left:     []Edit{{Equal, "h"}, {Insert, "ä"}, {Equal, "llo"}},
			right:    []Edit{{Equal, "h"}, {Delete, "é"}, {Equal, "llo"}},
		},
		{
			name:     "numbers",
			expected: 120,
			actual:   150,
			left:     []Edit{{Equal, "1"}, {Insert, "5"}, {Equal, "0"}},
			right:    []Edit{{Equal, "1"}, {Delete, "2"}, {Equal, "0"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Diff(tt.expected, tt.actual)
			require.NoError(t, err)
			if d := cmp.Diff(tt.left, res.Left); d != "" {
				t.Errorf("left side mismatch (-want +got):\n%s", d)
			}
			if d := cmp.Diff(tt.right, res.Right); d != "" {
				t.Errorf("right side mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestDiffStructuralValues(t *testing.T) {
	res, err := Diff(map[string]int{"a": 1, "b": 2}, map[string]int{"a": 1, "b": 3})
	require.NoError(t, err)
	assert.True(t, res.HasChanges())

	var deleted, inserted []string
	for _, e := range res.Right {
		if e.Op == Delete {
			deleted = append(deleted, e.Text)
		}
	}
	for _, e := range res.Left {
		if e.Op == Insert {
			inserted = append(inserted, e.Text)
		}
	}
	assert.Equal(t, []string{"2"}, deleted)
	assert.Equal(t, []string{"3"}, inserted)
}

func TestDiffTimeout(t *testing.T) {
	blocking := func(ctx context.Context, v any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	engine := NewEngine(WithTimeout(50*time.Millisecond), WithRenderer(blocking))

	start := time.Now()
	res, err := engine.Compute(context.Background(), "a", "b")
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, res)
	assert.Less(t, elapsed, time.Second, "caller must get an answer shortly after the budget")
}

func TestDiffWorkerStopsAfterBudget(t *testing.T) {
	alternating := func(first, second int) []int {
		out := make([]int, 60000)
		for i := range out {
			if i%2 == 0 {
				out[i] = first
			} else {
				out[i] = second
			}
		}
		return out
	}

	tests := []struct {
		name     string
		expected any
		actual   any
	}{
		{
			name:     "long strings",
			expected: strings.Repeat("ab", 60000),
			actual:   strings.Repeat("ba", 60000),
		},
		{
			name:     "long slices",
			expected: alternating(0, 1),
			actual:   alternating(1, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)
			engine := NewEngine(WithTimeout(20 * time.Millisecond))

			start := time.Now()
			res, err := engine.Compute(context.Background(), tt.expected, tt.actual)
			elapsed := time.Since(start)

			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Nil(t, res)
			assert.Less(t, elapsed, time.Second)
		})
	}
}

func TestDiffAcrossMatchWindows(t *testing.T) {
	var expected, actual strings.Builder
	for i := 0; i < 40*matchWindow; i++ {
		expected.WriteByte(byte('a' + i%26))
		if i%97 == 0 {
			actual.WriteString("#")
			continue
		}
		actual.WriteByte(byte('a' + i%26))
	}

	res, err := NewEngine(WithTimeout(time.Minute)).Compute(context.Background(), expected.String(), actual.String())
	require.NoError(t, err)
	assert.True(t, res.HasChanges())
	assert.Equal(t, expected.String(), joined(res.Right))
	assert.Equal(t, actual.String(), joined(res.Left))
	for _, e := range res.Right {
		assert.NotEqual(t, Insert, e.Op)
	}
	for _, e := range res.Left {
		assert.NotEqual(t, Delete, e.Op)
	}
}

func TestDefaultRendererStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DefaultRenderer(ctx, []int{1, 2, 3})
	assert.ErrorIs(t, err, context.Canceled)

	// scalars render without a dump
	out, err := DefaultRenderer(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestTokenizeStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, scalar := range []bool{true, false} {
		_, err := tokenize(ctx, "some text", scalar)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestDefaultBudgetTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the full default budget")
	}
	blocking := func(ctx context.Context, v any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	engine := NewEngine(WithRenderer(blocking))

	start := time.Now()
	_, err := engine.Compute(context.Background(), 1, 2)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.GreaterOrEqual(t, elapsed, DefaultTimeout)
	assert.Less(t, elapsed, DefaultTimeout+500*time.Millisecond)
}

func TestRenderingHelpers(t *testing.T) {
	res, err := Diff("cat", "cut")
	require.NoError(t, err)

	assert.Equal(t, "expected: c[-a-]t\nactual:   c{+u+}t", res.Plain())
	assert.Contains(t, res.String(), "expected: c")
	assert.Contains(t, res.String(), "u")
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "equal", Equal.String())
	assert.Equal(t, "insert", Insert.String())
	assert.Equal(t, "delete", Delete.String())
	assert.Equal(t, "op(9)", Op(9).String())
}
