package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-bdd/suite"
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

func sampleSuites() []*suite.Scope {
	ok := func(*types.Env) (any, error) { return "ok", nil }
	broken := func(*types.Env) (any, error) { return nil, types.Fail("broken") }

	checkout := suite.Describe("checkout", func(s *suite.Scope) {
		s.It("accepts cards", ok)
		s.Context("with coupons", func(s *suite.Scope) {
			s.It("applies discount", broken)
			s.It("stacks coupons", nil)
		})
	})
	search := suite.Describe("search", func(s *suite.Scope) {
		s.It("finds items", ok)
	})
	return []*suite.Scope{checkout, search}
}

func TestNewRunner(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			name:        "no suites",
			cfg:         Config{},
			expectError: true,
		},
		{
			name:        "nil suite",
			cfg:         Config{Suites: []*suite.Scope{nil}},
			expectError: true,
		},
		{
			name: "defaults",
			cfg:  Config{Suites: sampleSuites()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRunner(tt.cfg)
			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, r)
		})
	}
}

func TestRunAll(t *testing.T) {
	reporter := &recordingReporter{}
	mocks := &countingMocks{}
	r, err := NewRunner(Config{
		Suites:   sampleSuites(),
		Reporter: reporter,
		Mocks:    mocks,
		Log:      log.NewLogger(log.DiscardHandler()),
	})
	require.NoError(t, err)

	result, err := r.RunAll(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, types.ExampleStatusFailure, result.Status)
	assert.Equal(t, 4, result.Stats.Total)
	assert.Equal(t, 2, result.Stats.Succeeded)
	assert.Equal(t, 1, result.Stats.Failed)
	assert.Equal(t, 1, result.Stats.Pending)
	assert.False(t, result.Stats.EndTime.Before(result.Stats.StartTime))

	require.Len(t, result.Suites, 2)
	assert.Equal(t, "checkout", result.Suites[0].ID)
	assert.Equal(t, types.ExampleStatusFailure, result.Suites[0].Status)
	assert.Equal(t, "search", result.Suites[1].ID)
	assert.Equal(t, types.ExampleStatusSuccess, result.Suites[1].Status)

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "checkout with coupons applies discount", failures[0].FullName())

	assert.Equal(t, 4, reporter.count())
	assert.Equal(t, 3, mocks.count(), "pending examples do not unload mocks")

	out := result.String()
	assert.Contains(t, out, "Total: 4, Succeeded: 2, Failed: 1, Pending: 1")
	assert.Contains(t, out, "Suite: checkout")
	assert.Contains(t, out, "Error: broken")
}

func TestRunAllFocus(t *testing.T) {
	tests := []struct {
		name     string
		focus    string
		expected int
	}{
		{name: "no focus", focus: "", expected: 4},
		{name: "by id", focus: "checkout/with coupons", expected: 2},
		{name: "by description", focus: "finds items", expected: 1},
		{name: "nothing matches", focus: "missing", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRunner(Config{
				Suites: sampleSuites(),
				Focus:  tt.focus,
				Log:    log.NewLogger(log.DiscardHandler()),
			})
			require.NoError(t, err)

			result, err := r.RunAll(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Stats.Total)
		})
	}
}

func TestRunAllStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errors.New("shutting down"))

	r, err := NewRunner(Config{
		Suites: sampleSuites(),
		Log:    log.NewLogger(log.DiscardHandler()),
	})
	require.NoError(t, err)

	result, err := r.RunAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutting down")
	require.NotNil(t, result)
	assert.Zero(t, result.Stats.Total)
	assert.Equal(t, types.ExampleStatusPending, result.Status)
}

func TestStatusDetermination(t *testing.T) {
	tests := []struct {
		name     string
		stats    ResultStats
		expected types.ExampleStatus
	}{
		{name: "empty", stats: ResultStats{}, expected: types.ExampleStatusPending},
		{name: "all pending", stats: ResultStats{Total: 2, Pending: 2}, expected: types.ExampleStatusPending},
		{name: "all succeeded", stats: ResultStats{Total: 2, Succeeded: 2}, expected: types.ExampleStatusSuccess},
		{name: "some pending", stats: ResultStats{Total: 2, Succeeded: 1, Pending: 1}, expected: types.ExampleStatusSuccess},
		{name: "any failure", stats: ResultStats{Total: 3, Succeeded: 1, Failed: 1, Pending: 1}, expected: types.ExampleStatusFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, determineStatusFromStats(tt.stats))
		})
	}
}
