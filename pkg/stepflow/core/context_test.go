package core

import (
	"reflect"
	"testing"
)

func TestContext_GetSetDelete(t *testing.T) {
	vars := NewContext(map[string]string{"email": "ada@example.com"})

	if v, ok := vars.Get("email"); !ok || v != "ada@example.com" {
		t.Errorf("Get(email) = %q, %v", v, ok)
	}
	if v := vars.GetOr("missing", "fallback"); v != "fallback" {
		t.Errorf("GetOr(missing) = %q", v)
	}

	vars.Set("accountId", "acc-1")
	vars.Delete("email")

	if _, ok := vars.Get("email"); ok {
		t.Error("email should be deleted")
	}
	if got := vars.Keys(); !reflect.DeepEqual(got, []string{"accountId"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestContext_SnapshotIsIsolated(t *testing.T) {
	vars := NewContext(map[string]string{"a": "1"})
	snap := vars.Snapshot()

	vars.Set("a", "2")
	vars.Set("b", "3")

	if snap["a"] != "1" || len(snap) != 1 {
		t.Errorf("Snapshot must not observe later writes, got %v", snap)
	}
}

func TestContext_CopiesInitialMap(t *testing.T) {
	initial := map[string]string{"a": "1"}
	vars := NewContext(initial)
	vars.Set("a", "2")
	if initial["a"] != "1" {
		t.Errorf("NewContext must copy its input, initial map was mutated: %v", initial)
	}
}
