package runner

// Messages synthesized by the orchestrator
const (
	SkippedWithReasonFormat = "Temporarily skipped with: %s"
	SkippedWithoutReason    = "Temporarily skipped without a reason."
	PendingWithReasonFormat = "Pending with message: %s"
	PendingWithoutReason    = "Pending"
	ExitedFormat            = "Process exited with reason: %s"

	// GoexitReason is the exit reason of a unit that called runtime.Goexit
	GoexitReason = "goexit"

	// DefaultSuiteName labels metrics of examples declared outside a named scope
	DefaultSuiteName = "default"
)

// Phases of an example run, used in fault messages
const (
	phaseGlobalBefore  = "global before"
	phaseBefore        = "before"
	phaseLet           = "let"
	phaseBody          = "body"
	phaseFinally       = "finally"
	phaseGlobalFinally = "global finally"
)
