package events

import (
	"context"
	"encoding/json"
	"time"

	"trackpub/domain/repository"
	"trackpub/infrastructure/logger"
	"trackpub/infrastructure/pubsub"
	"trackpub/infrastructure/servicebus"
	"trackpub/infrastructure/utils"
)

// Emitter fans pipeline lifecycle events out to the configured message sinks.
// Both sinks are optional; emission is best-effort and never propagates
// errors into the pipeline.
type Emitter struct {
	pubSub     pubsub.IEventPubSub
	serviceBus servicebus.IEventServiceBus
	topic      string
	queue      string
}

func NewEmitter(pubSub pubsub.IEventPubSub, serviceBus servicebus.IEventServiceBus, topic, queue string) repository.IEventEmitter {
	if topic == "" {
		topic = "track-events"
	}
	if queue == "" {
		queue = "track-events"
	}
	return &Emitter{pubSub: pubSub, serviceBus: serviceBus, topic: topic, queue: queue}
}

type envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

func (e *Emitter) Emit(ctx context.Context, eventType string, payload interface{}) {
	body, err := json.Marshal(envelope{Type: eventType, OccurredAt: utils.GetCurrentTime(), Payload: payload})
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("event", eventType).Warn("Encoding event failed")
		return
	}
	if e.pubSub != nil {
		if _, err := e.pubSub.Publish(ctx, e.topic, body); err != nil {
			logger.GetLogger().WithField("error", err).WithField("event", eventType).Warn("PubSub emit failed")
		}
	}
	if e.serviceBus != nil {
		if err := e.serviceBus.SendMessage(ctx, e.queue, body); err != nil {
			logger.GetLogger().WithField("error", err).WithField("event", eventType).Warn("Service Bus emit failed")
		}
	}
}

// Ensure interface compliance (compile-time)
var _ repository.IEventEmitter = (*Emitter)(nil)
