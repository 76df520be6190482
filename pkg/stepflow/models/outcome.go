package models

// Outcome tags the result of one step execution.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS" // step done, follow the SUCCESS transition
	OutcomeFailure Outcome = "FAILURE" // business failure, compensate or fail
	OutcomeRetry   Outcome = "RETRY"   // transient fault, re-run after backoff
	OutcomeSleep   Outcome = "SLEEP"   // park until a timer or external nudge
	OutcomeGoto    Outcome = "GOTO"    // jump to an explicit step, bypassing the table
)
