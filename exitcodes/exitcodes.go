// Package exitcodes defines the exit codes of op-bdd.
package exitcodes

// Exit codes of a run:
//
// * Success (0): every example succeeded or is pending
// * ExampleFailure (1): one or more examples failed
// * RuntimeErr (2): the run itself could not complete, eg. an invalid manifest
const (
	Success        = 0
	ExampleFailure = 1
	RuntimeErr     = 2
)
