package models

import "time"

// HistoryLine is one timestamped entry of an instance's append-only history.
type HistoryLine struct {
	DateTime time.Time `json:"dateTime"`
	Line     string    `json:"line"`
}

// InstanceDescription is the read-only view of an instance returned by
// Engine.Describe, sufficient to diagnose a failure without replaying it.
type InstanceDescription struct {
	ID           string            `json:"id"`
	WorkflowName string            `json:"workflowName"`
	Status       string            `json:"status"`
	CurrentStep  string            `json:"currentStep"`
	Attempts     int               `json:"attempts"`
	Vars         map[string]string `json:"vars,omitempty"`
	History      []HistoryLine     `json:"history"`
	Created      time.Time         `json:"created"`
	Modified     time.Time         `json:"modified"`
}
