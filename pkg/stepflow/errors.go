package stepflow

import (
	"errors"
	"fmt"
)

// ErrUnknownWorkflow is returned by Engine.Start for a workflow name that was
// never registered.
var ErrUnknownWorkflow = errors.New("unknown workflow")

// ConfigurationError reports a malformed definition or registration: unknown
// step names, dangling transition targets, duplicate registrations. It is
// raised synchronously from Build, Register and Start, never from inside a
// scheduled tick.
type ConfigurationError struct {
	Workflow string
	Err      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("workflow %q: %v", e.Workflow, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
