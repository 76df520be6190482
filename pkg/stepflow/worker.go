package stepflow

import (
	"context"
	"log/slog"
)

// Worker drains the tick queue until the engine stops. Each queued instance
// id is one unit of work; per-instance serialization happens inside tick.
func Worker(ctx context.Context, id int, e *Engine) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case instanceID := <-e.queue:
			slog.DebugContext(ctx, "Worker picked up tick", "worker_id", id, "instance_id", instanceID)
			e.tick(ctx, instanceID, id)
		}
	}
}
