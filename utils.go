package bdd

import (
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

// Helper function to convert bool to int
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// getResultString returns a short string representing an example status
func getResultString(status types.ExampleStatus) string {
	switch status {
	case types.ExampleStatusSuccess:
		return "✓ success"
	case types.ExampleStatusPending:
		return "- pending"
	case types.ExampleStatusNotRun:
		return "  not run"
	default:
		return "✗ failure"
	}
}
