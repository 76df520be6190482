package stepflow

import (
	"errors"
	"strings"
	"testing"

	"github.com/stepflowhq/stepflow/pkg/stepflow/models"
)

func TestDefinitionBuilder_Build(t *testing.T) {
	def := mustBuild(t, NewDefinition("Signup", "A").
		Step(scriptedStep{name: "A"}).
		Step(scriptedStep{name: "B"}).
		Step(scriptedStep{name: "Undo"}).
		OnSuccess("A", "B").
		OnFailure("B", "Undo"))

	if def.Name() != "Signup" || def.StartStep() != "A" {
		t.Errorf("Unexpected definition identity: %s / %s", def.Name(), def.StartStep())
	}
	if got := def.StepNames(); len(got) != 3 {
		t.Errorf("Expected 3 steps, got %v", got)
	}
}

func TestDefinitionBuilder_CollectsAllErrors(t *testing.T) {
	_, err := NewDefinition("Broken", "Missing").
		Step(scriptedStep{name: "A"}).
		Step(scriptedStep{name: "A"}).
		On("A", models.OutcomeSuccess, "Nowhere").
		On("Ghost", models.OutcomeFailure, "A").
		On("A", models.OutcomeRetry, "A").
		Build()
	if err == nil {
		t.Fatal("Expected Build to fail")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigurationError, got %T", err)
	}
	msg := err.Error()
	for _, want := range []string{
		"duplicate step",
		"start step \"Missing\"",
		"targets unknown step \"Nowhere\"",
		"transition from unknown step \"Ghost\"",
		"only SUCCESS and FAILURE",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected error to mention %q, got:\n%s", want, msg)
		}
	}
}

func TestDefinitionBuilder_ConflictingTransition(t *testing.T) {
	_, err := NewDefinition("Conflict", "A").
		Step(scriptedStep{name: "A"}).
		Step(scriptedStep{name: "B"}).
		Step(scriptedStep{name: "C"}).
		OnSuccess("A", "B").
		OnSuccess("A", "C").
		Build()
	if err == nil || !strings.Contains(err.Error(), "conflicting transition") {
		t.Errorf("Expected conflicting transition error, got %v", err)
	}
}

func TestDefinition_NextIsDeterministic(t *testing.T) {
	def := mustBuild(t, NewDefinition("Det", "A").
		Step(scriptedStep{name: "A"}).
		Step(scriptedStep{name: "B"}).
		OnSuccess("A", "B"))

	for i := 0; i < 100; i++ {
		next, ok := def.Next("A", models.OutcomeSuccess)
		if !ok || next != "B" {
			t.Fatalf("Lookup %d: expected (B, true), got (%s, %v)", i, next, ok)
		}
		if _, ok := def.Next("A", models.OutcomeFailure); ok {
			t.Fatalf("Lookup %d: expected no FAILURE transition", i)
		}
		if _, ok := def.Next("B", models.OutcomeSuccess); ok {
			t.Fatalf("Lookup %d: expected B to be terminal", i)
		}
	}
}
