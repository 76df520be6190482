package workflows

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stepflowhq/stepflow/internal/repository"
	"github.com/stepflowhq/stepflow/pkg/stepflow"
	"github.com/stepflowhq/stepflow/pkg/stepflow/models"
)

func newSignupEngine(t *testing.T) *stepflow.Engine {
	t.Helper()
	e := stepflow.NewEngine(repository.NewMemoryStore(),
		stepflow.WithRetryConfig(models.RetryConfig{
			MaxRetryCount:    3,
			RetryIntervalMin: 5 * time.Millisecond,
			RetryIntervalMax: 20 * time.Millisecond,
		}),
		stepflow.WithSleepInterval(10*time.Millisecond),
		stepflow.WithWorkerCount(2),
	)
	def, err := SignupDefinition()
	if err != nil {
		t.Fatalf("SignupDefinition returned error: %v", err)
	}
	if err := e.Register(def); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return e
}

func waitForStatus(t *testing.T, e *stepflow.Engine, id string, status string, timeout time.Duration) *models.InstanceDescription {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		desc, err := e.Describe(context.Background(), id)
		if err != nil {
			t.Fatalf("Describe returned error: %v", err)
		}
		if desc.Status == status {
			return desc
		}
		time.Sleep(5 * time.Millisecond)
	}
	desc, _ := e.Describe(context.Background(), id)
	t.Fatalf("Timed out waiting for status %s, instance is %s at %s", status, desc.Status, desc.CurrentStep)
	return nil
}

func hasHistoryLine(desc *models.InstanceDescription, prefix string) bool {
	for _, h := range desc.History {
		if strings.HasPrefix(h.Line, prefix) {
			return true
		}
	}
	return false
}

func TestSignup_HappyPathWithTransientFailure(t *testing.T) {
	e := newSignupEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.StartEngine(ctx)

	id, err := e.Start(ctx, SignupWorkflowName, map[string]string{
		"email":                    "ada@example.com",
		"simulateTransientFailure": "true",
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	desc := waitForStatus(t, e, id, "COMPLETED", 10*time.Second)

	if desc.CurrentStep != StepShipWelcomeKit {
		t.Errorf("Expected to finish at %s, got %s", StepShipWelcomeKit, desc.CurrentStep)
	}
	if desc.Vars["shipped"] != "true" {
		t.Errorf("Expected shipped=true, vars: %v", desc.Vars)
	}
	if desc.Vars["paymentId"] == "" {
		t.Error("Expected a paymentId after capture")
	}
	if !hasHistoryLine(desc, "SLEEP ") {
		t.Errorf("Expected a SLEEP line from email verification, history: %v", desc.History)
	}
	if !hasHistoryLine(desc, "RETRY 1 ") {
		t.Errorf("Expected a RETRY line from the simulated gateway timeout, history: %v", desc.History)
	}
}

func TestSignup_DeclinedCardCompensates(t *testing.T) {
	e := newSignupEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.StartEngine(ctx)

	id, err := e.Start(ctx, SignupWorkflowName, map[string]string{
		"email":        "ada@example.com",
		"cardDeclined": "true",
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	desc := waitForStatus(t, e, id, "FAILED", 10*time.Second)

	if desc.CurrentStep != StepReleasePayment {
		t.Errorf("Expected to fail at the compensation step, got %s", desc.CurrentStep)
	}
	if desc.Vars["paymentReleased"] != "true" {
		t.Errorf("Expected the reservation to be released, vars: %v", desc.Vars)
	}
	if !hasHistoryLine(desc, "COMPENSATE "+StepReleasePayment) {
		t.Errorf("Expected a COMPENSATE line, history: %v", desc.History)
	}
	if hasHistoryLine(desc, "EXEC "+StepShipWelcomeKit) {
		t.Error("Welcome kit must not ship after a declined card")
	}
}
