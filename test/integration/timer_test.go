package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stepflowhq/stepflow/internal/repository"
	"github.com/stepflowhq/stepflow/pkg/stepflow"
	"github.com/stepflowhq/stepflow/pkg/stepflow/core"
	"github.com/stepflowhq/stepflow/pkg/stepflow/models"
)

type parkOnceStep struct{}

func (parkOnceStep) Name() string { return "ParkOnce" }

func (parkOnceStep) Execute(ctx context.Context, vars *core.Context) (models.StepResult, error) {
	if vars.GetOr("parked", "") == "true" {
		return models.Success(), nil
	}
	vars.Set("parked", "true")
	return models.Sleep(10 * time.Second), nil
}

// A SLEEP result parks the instance behind a timer; advancing the clock past
// the deadline resumes it without any external nudge.
func TestSleepTimerResumesInstance(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	e := stepflow.NewEngine(repository.NewMemoryStore(),
		stepflow.WithClock(clock),
		stepflow.WithWorkerCount(1),
	)
	def, err := stepflow.NewDefinition("Park", "ParkOnce").Step(parkOnceStep{}).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if err := e.Register(def); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.StartEngine(ctx)

	id, err := e.Start(ctx, "Park", nil)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	// wait until the instance is parked
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		desc, err := e.Describe(ctx, id)
		if err != nil {
			t.Fatalf("Describe returned error: %v", err)
		}
		if desc.Vars["parked"] == "true" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	// fire the timer; advance repeatedly in case the waiter registers late
	deadline = time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		clock.Advance(11 * time.Second)
		desc, err := e.Describe(ctx, id)
		if err != nil {
			t.Fatalf("Describe returned error: %v", err)
		}
		if desc.Status == "COMPLETED" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for the timer to resume the instance")
}
