package stepflow

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/stepflowhq/stepflow/pkg/stepflow/core"
	"github.com/stepflowhq/stepflow/pkg/stepflow/models"
)

// WorkflowDefinition is the compiled, immutable step graph for one workflow
// type: the steps by name plus the (step, outcome) -> next step transition
// table. Built once through DefinitionBuilder, then shared read-only by every
// instance execution.
type WorkflowDefinition struct {
	name        string
	startStep   string
	description string
	steps       map[string]core.Step
	transitions map[string]map[models.Outcome]string
}

func (d *WorkflowDefinition) Name() string        { return d.name }
func (d *WorkflowDefinition) StartStep() string   { return d.startStep }
func (d *WorkflowDefinition) Description() string { return d.description }

// StepByName resolves a step, reporting whether it exists.
func (d *WorkflowDefinition) StepByName(name string) (core.Step, bool) {
	s, ok := d.steps[name]
	return s, ok
}

// StepNames returns all step names in sorted order.
func (d *WorkflowDefinition) StepNames() []string {
	names := make([]string, 0, len(d.steps))
	for n := range d.steps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Next is the pure transition lookup: the step to move to when stepName ends
// with outcome, and whether such a transition is defined. A missing SUCCESS
// entry means the branch completes; a missing FAILURE entry means the branch
// fails terminally.
func (d *WorkflowDefinition) Next(stepName string, outcome models.Outcome) (string, bool) {
	byOutcome, ok := d.transitions[stepName]
	if !ok {
		return "", false
	}
	next, ok := byOutcome[outcome]
	return next, ok
}

// DefinitionBuilder accumulates steps and transitions, then compiles them into
// an immutable WorkflowDefinition. Building is a one-time, non-concurrent
// operation performed before any instance runs.
type DefinitionBuilder struct {
	name        string
	startStep   string
	description string
	steps       []core.Step
	transitions []transitionRule
}

type transitionRule struct {
	from    string
	outcome models.Outcome
	to      string
}

// NewDefinition starts a builder for a workflow of the given name beginning at
// startStep.
func NewDefinition(name string, startStep string) *DefinitionBuilder {
	return &DefinitionBuilder{name: name, startStep: startStep}
}

// Describe attaches a human-readable description, shown by Engine.Definitions.
func (b *DefinitionBuilder) Describe(description string) *DefinitionBuilder {
	b.description = description
	return b
}

// Step adds a step implementation to the workflow.
func (b *DefinitionBuilder) Step(s core.Step) *DefinitionBuilder {
	b.steps = append(b.steps, s)
	return b
}

// On declares that when step from ends with outcome, the instance moves to
// step to.
func (b *DefinitionBuilder) On(from string, outcome models.Outcome, to string) *DefinitionBuilder {
	b.transitions = append(b.transitions, transitionRule{from: from, outcome: outcome, to: to})
	return b
}

// OnSuccess is shorthand for On(from, OutcomeSuccess, to).
func (b *DefinitionBuilder) OnSuccess(from, to string) *DefinitionBuilder {
	return b.On(from, models.OutcomeSuccess, to)
}

// OnFailure declares the compensation step to jump to when from reports a
// business failure or exhausts its retries.
func (b *DefinitionBuilder) OnFailure(from, to string) *DefinitionBuilder {
	return b.On(from, models.OutcomeFailure, to)
}

// Build validates the accumulated graph and compiles it. All problems are
// collected and returned together as a single *ConfigurationError.
func (b *DefinitionBuilder) Build() (*WorkflowDefinition, error) {
	var verr *multierror.Error

	if b.name == "" {
		verr = multierror.Append(verr, fmt.Errorf("workflow name must not be empty"))
	}

	steps := make(map[string]core.Step, len(b.steps))
	for _, s := range b.steps {
		if s == nil || s.Name() == "" {
			verr = multierror.Append(verr, fmt.Errorf("step with empty name"))
			continue
		}
		if _, dup := steps[s.Name()]; dup {
			verr = multierror.Append(verr, fmt.Errorf("duplicate step %q", s.Name()))
			continue
		}
		steps[s.Name()] = s
	}

	if b.startStep == "" {
		verr = multierror.Append(verr, fmt.Errorf("start step must not be empty"))
	} else if _, ok := steps[b.startStep]; !ok {
		verr = multierror.Append(verr, fmt.Errorf("start step %q is not a registered step", b.startStep))
	}

	transitions := make(map[string]map[models.Outcome]string)
	for _, t := range b.transitions {
		if _, ok := steps[t.from]; !ok {
			verr = multierror.Append(verr, fmt.Errorf("transition from unknown step %q", t.from))
		}
		if _, ok := steps[t.to]; !ok {
			verr = multierror.Append(verr, fmt.Errorf("transition (%s, %s) targets unknown step %q", t.from, t.outcome, t.to))
		}
		switch t.outcome {
		case models.OutcomeSuccess, models.OutcomeFailure:
		default:
			// RETRY, SLEEP and GOTO reschedule the same step or carry an
			// explicit override, a table entry for them can never fire.
			verr = multierror.Append(verr, fmt.Errorf("transition (%s, %s): only SUCCESS and FAILURE may appear in the table", t.from, t.outcome))
			continue
		}
		byOutcome, ok := transitions[t.from]
		if !ok {
			byOutcome = make(map[models.Outcome]string)
			transitions[t.from] = byOutcome
		}
		if prev, dup := byOutcome[t.outcome]; dup && prev != t.to {
			verr = multierror.Append(verr, fmt.Errorf("conflicting transition (%s, %s): %q vs %q", t.from, t.outcome, prev, t.to))
			continue
		}
		byOutcome[t.outcome] = t.to
	}

	if err := verr.ErrorOrNil(); err != nil {
		return nil, &ConfigurationError{Workflow: b.name, Err: err}
	}

	return &WorkflowDefinition{
		name:        b.name,
		startStep:   b.startStep,
		description: b.description,
		steps:       steps,
		transitions: transitions,
	}, nil
}
