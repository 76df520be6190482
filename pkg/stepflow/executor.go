package stepflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stepflowhq/stepflow/pkg/stepflow/core"
	"github.com/stepflowhq/stepflow/pkg/stepflow/domain"
	"github.com/stepflowhq/stepflow/pkg/stepflow/models"
)

// scheduling decision taken by a tick, applied only after the instance has
// been persisted so the next tick always observes the saved state.
type reschedule int

const (
	scheduleNone reschedule = iota
	scheduleImmediate
	scheduleDelayed
)

// tick executes one state transition for the instance: load, run the current
// step, interpret the StepResult, persist, reschedule. At most one tick per
// instance id runs at a time.
func (e *Engine) tick(ctx context.Context, id string, workerID int) {
	lock := e.instanceLock(id)
	lock.Lock()
	defer lock.Unlock()

	inst, err := e.store.Load(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Error loading instance", "instance_id", id, "error", err, "worker_id", workerID)
		return
	}
	// guards against duplicate or late ticks on a finished instance
	if inst.Status != domain.StatusRunning {
		slog.DebugContext(ctx, "Skipping tick for non-running instance", "instance_id", id, "status", inst.Status, "worker_id", workerID)
		return
	}

	def, ok := e.definition(inst.WorkflowName)
	if !ok {
		e.failConfiguration(ctx, inst, fmt.Sprintf("workflow not registered: %s", inst.WorkflowName))
		return
	}
	step, ok := def.StepByName(inst.CurrentStep)
	if !ok {
		e.failConfiguration(ctx, inst, fmt.Sprintf("unknown step: %s", inst.CurrentStep))
		return
	}

	slog.InfoContext(ctx, "Executing step", "instance_id", inst.ID, "workflow", inst.WorkflowName, "step", step.Name(), "worker_id", workerID)
	e.appendHistory(ctx, inst, "EXEC "+step.Name())

	vars := core.NewContext(inst.Vars)
	result, execErr := executeStep(ctx, step, vars)
	inst.Vars = vars.Snapshot()

	if execErr != nil {
		// errors and panics fold into the retry machinery so step authors do
		// not have to catch every transient fault themselves
		result = models.StepResult{Outcome: models.OutcomeRetry, Detail: execErr.Error()}
	}

	next, delay := e.applyResult(ctx, inst, def, step.Name(), result)

	inst.Modified = e.clock.Now()
	if err := e.store.Save(ctx, inst); err != nil {
		// re-run the whole tick after a backoff, steps are idempotent
		slog.ErrorContext(ctx, "Error saving instance, tick will be re-run", "instance_id", inst.ID, "error", err, "worker_id", workerID)
		e.ScheduleAfter(inst.ID, e.retry.RetryIntervalMin)
		return
	}

	switch next {
	case scheduleImmediate:
		e.ScheduleNow(inst.ID)
	case scheduleDelayed:
		e.ScheduleAfter(inst.ID, delay)
	case scheduleNone:
		e.releaseInstanceLock(inst.ID)
		slog.InfoContext(ctx, "Instance reached terminal status", "instance_id", inst.ID, "status", inst.Status, "step", inst.CurrentStep, "worker_id", workerID)
	}
}

// applyResult mutates the instance according to the outcome table and reports
// how the next tick should be scheduled.
func (e *Engine) applyResult(ctx context.Context, inst *domain.Instance, def *WorkflowDefinition, stepName string, result models.StepResult) (reschedule, time.Duration) {
	switch result.Outcome {
	case models.OutcomeSuccess:
		inst.Attempts = 0
		if target, ok := def.Next(stepName, models.OutcomeSuccess); ok {
			e.appendHistory(ctx, inst, "NEXT "+target)
			inst.CurrentStep = target
			return scheduleImmediate, 0
		}
		e.appendHistory(ctx, inst, "DONE")
		inst.Status = domain.StatusCompleted
		return scheduleNone, 0

	case models.OutcomeFailure:
		return e.failOrCompensate(ctx, inst, def, stepName, result.Detail), 0

	case models.OutcomeRetry:
		inst.Attempts++
		if inst.Attempts > e.retry.MaxRetryCount {
			e.appendHistory(ctx, inst, fmt.Sprintf("RETRIES EXHAUSTED after %d attempts", inst.Attempts))
			detail := result.Detail
			if detail == "" {
				detail = "retries exhausted"
			}
			return e.failOrCompensate(ctx, inst, def, stepName, detail), 0
		}
		delay := result.Delay
		if delay <= 0 {
			delay = e.retry.Backoff(inst.Attempts)
		}
		line := fmt.Sprintf("RETRY %d in %s", inst.Attempts, delay)
		if result.Detail != "" {
			line += ": " + result.Detail
		}
		e.appendHistory(ctx, inst, line)
		return scheduleDelayed, delay

	case models.OutcomeSleep:
		delay := result.Delay
		if delay <= 0 {
			delay = e.sleepInterval
		}
		e.appendHistory(ctx, inst, "SLEEP "+delay.String())
		return scheduleDelayed, delay

	case models.OutcomeGoto:
		if result.NextOverride == "" {
			return e.failOrCompensate(ctx, inst, def, stepName, "goto without a target step"), 0
		}
		inst.Attempts = 0
		e.appendHistory(ctx, inst, "GOTO "+result.NextOverride)
		inst.CurrentStep = result.NextOverride
		return scheduleImmediate, 0

	default:
		return e.failOrCompensate(ctx, inst, def, stepName, fmt.Sprintf("step returned unknown outcome %q", result.Outcome)), 0
	}
}

// failOrCompensate follows the (step, FAILURE) transition when the workflow
// author defined one, otherwise marks the instance FAILED where it stands.
func (e *Engine) failOrCompensate(ctx context.Context, inst *domain.Instance, def *WorkflowDefinition, stepName string, detail string) reschedule {
	if target, ok := def.Next(stepName, models.OutcomeFailure); ok {
		e.appendHistory(ctx, inst, "COMPENSATE "+target)
		inst.Attempts = 0
		inst.CurrentStep = target
		return scheduleImmediate
	}
	line := "FAILED"
	if detail != "" {
		line += " " + detail
	}
	e.appendHistory(ctx, inst, line)
	inst.Status = domain.StatusFailed
	return scheduleNone
}

// failConfiguration marks the instance FAILED with a diagnostic history line.
// Configuration faults discovered mid-tick cannot be reported to a caller, so
// they must never crash the worker.
func (e *Engine) failConfiguration(ctx context.Context, inst *domain.Instance, detail string) {
	slog.ErrorContext(ctx, "Configuration error during tick", "instance_id", inst.ID, "detail", detail)
	e.appendHistory(ctx, inst, "CONFIG ERROR "+detail)
	inst.Status = domain.StatusFailed
	inst.Modified = e.clock.Now()
	if err := e.store.Save(ctx, inst); err != nil {
		slog.ErrorContext(ctx, "Error saving failed instance", "instance_id", inst.ID, "error", err)
	}
	e.releaseInstanceLock(inst.ID)
}

// appendHistory records one timestamped line both on the in-memory instance
// and through the store.
func (e *Engine) appendHistory(ctx context.Context, inst *domain.Instance, line string) {
	entry := domain.HistoryEntry{DateTime: e.clock.Now(), Line: line}
	inst.History = append(inst.History, entry)
	if err := e.store.AppendHistory(ctx, inst.ID, entry); err != nil {
		slog.ErrorContext(ctx, "Error appending history", "instance_id", inst.ID, "line", line, "error", err)
	}
}

// executeStep invokes the step with panic recovery; a panic is reported as an
// error and folds into the retry machinery like any other step fault.
func executeStep(ctx context.Context, step core.Step, vars *core.Context) (result models.StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %s panicked: %v", step.Name(), r)
		}
	}()
	return step.Execute(ctx, vars)
}
