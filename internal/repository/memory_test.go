package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stepflowhq/stepflow/pkg/stepflow/domain"
)

func testInstance(id string) *domain.Instance {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Instance{
		ID:           id,
		WorkflowName: "UserSignup",
		CurrentStep:  "VerifyEmail",
		Status:       domain.StatusRunning,
		Vars:         map[string]string{"email": "ada@example.com"},
		Created:      now,
		Modified:     now,
	}
}

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	inst := testInstance("wf-1")
	if err := store.Save(ctx, inst); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := store.Load(ctx, "wf-1")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.WorkflowName != "UserSignup" || loaded.CurrentStep != "VerifyEmail" {
		t.Errorf("Unexpected instance: %+v", loaded)
	}

	// mutations on the loaded copy must not leak into the store
	loaded.Vars["email"] = "mallory@example.com"
	loaded.CurrentStep = "CreateAccount"

	again, _ := store.Load(ctx, "wf-1")
	if again.Vars["email"] != "ada@example.com" || again.CurrentStep != "VerifyEmail" {
		t.Errorf("Store leaked mutable state: %+v", again)
	}
}

func TestMemoryStore_LoadUnknown(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load(context.Background(), "nope")
	if !errors.Is(err, domain.ErrInstanceNotFound) {
		t.Errorf("Expected ErrInstanceNotFound, got %v", err)
	}
}

func TestMemoryStore_AppendHistory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.AppendHistory(ctx, "nope", domain.HistoryEntry{Line: "EXEC A"}); !errors.Is(err, domain.ErrInstanceNotFound) {
		t.Errorf("Expected ErrInstanceNotFound for unknown instance, got %v", err)
	}

	inst := testInstance("wf-1")
	_ = store.Save(ctx, inst)

	for _, line := range []string{"EXEC VerifyEmail", "NEXT CreateAccount"} {
		if err := store.AppendHistory(ctx, "wf-1", domain.HistoryEntry{DateTime: time.Now(), Line: line}); err != nil {
			t.Fatalf("AppendHistory returned error: %v", err)
		}
	}

	loaded, _ := store.Load(ctx, "wf-1")
	if len(loaded.History) != 2 || loaded.History[1].Line != "NEXT CreateAccount" {
		t.Errorf("Unexpected history: %+v", loaded.History)
	}
}

func TestMemoryStore_SavePreservesHistory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	inst := testInstance("wf-1")
	_ = store.Save(ctx, inst)
	_ = store.AppendHistory(ctx, "wf-1", domain.HistoryEntry{Line: "EXEC VerifyEmail"})

	// a later Save with an empty History slice must not wipe the stored lines
	inst.History = nil
	inst.CurrentStep = "CreateAccount"
	_ = store.Save(ctx, inst)

	loaded, _ := store.Load(ctx, "wf-1")
	if len(loaded.History) != 1 {
		t.Errorf("Save wiped history: %+v", loaded.History)
	}
	if loaded.CurrentStep != "CreateAccount" {
		t.Errorf("Save did not persist new step: %s", loaded.CurrentStep)
	}
}
