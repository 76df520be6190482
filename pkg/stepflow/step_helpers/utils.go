package step_helpers

import (
	"encoding/json"
	"fmt"

	"github.com/stepflowhq/stepflow/pkg/stepflow/core"
)

// SaveStructToContext marshals data to JSON and stores it under key, so steps
// can pass structured values forward through the instance vars.
func SaveStructToContext[T any](vars *core.Context, key string, data T) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	vars.Set(key, string(bytes))
	return nil
}

// LoadStructFromContext reads the JSON value stored under key back into T.
func LoadStructFromContext[T any](vars *core.Context, key string) (*T, error) {
	data, ok := vars.Get(key)
	if !ok {
		return nil, fmt.Errorf("key %s not found in context", key)
	}
	var out T
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
