package stepflow

import (
	"context"

	"github.com/stepflowhq/stepflow/pkg/stepflow/domain"
)

// ErrInstanceNotFound is returned by Store.Load for an unknown instance id.
var ErrInstanceNotFound = domain.ErrInstanceNotFound

// Store is the persistence boundary for instances. Host applications may back
// it with memory, a relational table or a durable log.
//
// The one hard requirement: a Save must be durable before the next scheduled
// tick for the same instance runs. The engine serializes ticks per instance,
// so a Store only needs to support concurrent calls for different ids.
type Store interface {
	// Save persists the full instance record, including its vars. History is
	// written through AppendHistory; implementations may ignore the History
	// slice on Save.
	Save(ctx context.Context, instance *domain.Instance) error
	// Load returns the instance with all history, or ErrInstanceNotFound.
	Load(ctx context.Context, id string) (*domain.Instance, error)
	// AppendHistory durably appends one history line for the instance.
	AppendHistory(ctx context.Context, id string, entry domain.HistoryEntry) error
}
