package core

import (
	"context"

	"github.com/stepflowhq/stepflow/pkg/stepflow/models"
)

// Step is a single pluggable unit of business logic within a workflow.
//
// Implementations must be idempotent: the engine may invoke Execute more than
// once for the same logical attempt if the process crashes between execution
// and persistence, so side effects have to be safe to repeat (for example by
// guarding them with an idempotency key stored in the instance vars).
type Step interface {
	// Name identifies the step inside its workflow definition.
	Name() string
	// Execute runs the step against the instance vars and reports what the
	// engine should do next. Returning an error is equivalent to returning
	// models.Retry(): the engine owns the retry policy.
	Execute(ctx context.Context, vars *Context) (models.StepResult, error)
}
