package repository

import "context"

// IEventEmitter publishes pipeline lifecycle events (track.completed,
// track.published) to the configured message sinks. Emission is best-effort:
// implementations log failures and never propagate them into the pipeline.
type IEventEmitter interface {
	Emit(ctx context.Context, eventType string, payload interface{})
}
