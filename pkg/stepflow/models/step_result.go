package models

import "time"

// StepResult is the value a step hands back to the engine to say what happened
// and what should happen next. Delay is only meaningful for RETRY and SLEEP,
// NextOverride only for GOTO. A fresh value is produced by every invocation.
type StepResult struct {
	Outcome      Outcome
	Detail       string        // optional human-readable note, recorded in history
	Delay        time.Duration // optional explicit delay for RETRY / SLEEP
	NextOverride string        // target step for GOTO
}

// Success advances along the SUCCESS transition, or completes the instance
// when none is defined.
func Success() StepResult {
	return StepResult{Outcome: OutcomeSuccess}
}

// Failure reports a business failure. The engine follows the FAILURE
// transition (compensation) when one is defined, otherwise the instance ends
// FAILED.
func Failure(detail string) StepResult {
	return StepResult{Outcome: OutcomeFailure, Detail: detail}
}

// Retry asks for the same step to be re-run after the engine's backoff.
func Retry(detail string) StepResult {
	return StepResult{Outcome: OutcomeRetry, Detail: detail}
}

// RetryAfter asks for the same step to be re-run after an explicit delay.
func RetryAfter(d time.Duration, detail string) StepResult {
	return StepResult{Outcome: OutcomeRetry, Delay: d, Detail: detail}
}

// Sleep parks the instance without touching the attempt counter. With a zero
// delay the engine's configured sleep interval applies. A sleeping instance
// can be woken early with Engine.ScheduleNow.
func Sleep(d time.Duration) StepResult {
	return StepResult{Outcome: OutcomeSleep, Delay: d}
}

// Goto moves the instance to step regardless of the transition table.
func Goto(step string) StepResult {
	return StepResult{Outcome: OutcomeGoto, NextOverride: step}
}
