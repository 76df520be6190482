package domain

import (
	"errors"
	"time"
)

// ErrInstanceNotFound is returned by stores for an unknown instance id.
var ErrInstanceNotFound = errors.New("workflow instance not found")

// Status is the lifecycle state of an instance.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further ticks may run for this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// HistoryEntry is one timestamped line of an instance's append-only history.
type HistoryEntry struct {
	DateTime time.Time
	Line     string
}

// Instance is the mutable runtime record of one workflow execution. It is
// owned exclusively by the engine for the duration of a tick; between ticks it
// is passive data held by the Store.
type Instance struct {
	ID           string
	WorkflowName string
	CurrentStep  string
	Status       Status
	Attempts     int
	Vars         map[string]string
	History      []HistoryEntry
	Created      time.Time
	Modified     time.Time
}

// Clone returns a deep copy so stores can hand out instances without sharing
// mutable state with the engine.
func (i *Instance) Clone() *Instance {
	out := *i
	out.Vars = make(map[string]string, len(i.Vars))
	for k, v := range i.Vars {
		out.Vars[k] = v
	}
	out.History = make([]HistoryEntry, len(i.History))
	copy(out.History, i.History)
	return &out
}
