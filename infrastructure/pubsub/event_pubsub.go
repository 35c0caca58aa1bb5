package pubsub

import (
	"context"

	"trackpub/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// NewPubSub creates the Google Pub/Sub client. Callers treat an error as
// "Pub/Sub features disabled" and pass a nil client downstream.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	return pubsub.NewClient(ctx, projectID)
}

type IEventPubSub interface {
	Publish(ctx context.Context, topicName string, payload []byte) (string, error)
	GetSubscription(subID string) (*pubsub.Subscription, error)
}

// EventPubSub publishes pipeline lifecycle events to a Pub/Sub topic,
// creating the topic on first use. A nil client drops events silently.
type EventPubSub struct {
	PubSubClient *pubsub.Client
}

func NewEventPubSub(pubSubClient *pubsub.Client) IEventPubSub {
	return &EventPubSub{
		PubSubClient: pubSubClient,
	}
}

func (e *EventPubSub) Publish(ctx context.Context, topicName string, payload []byte) (string, error) {
	if e.PubSubClient == nil {
		logger.GetLogger().Debug("PubSub client is nil - dropping event")
		return "", nil
	}

	topic := e.PubSubClient.Topic(topicName)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		logger.GetLogger().WithField("topic", topicName).Info("Topic doesn't exist - creating it")
		if _, err = e.PubSubClient.CreateTopic(ctx, topicName); err != nil {
			return "", err
		}
	}

	serverId, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", err
	}

	logger.GetLogger().WithField("server ID", serverId).Info("Message published")
	return serverId, nil
}

func (e *EventPubSub) GetSubscription(subID string) (*pubsub.Subscription, error) {
	if e.PubSubClient == nil {
		return nil, nil
	}
	logger.GetLogger().WithField("subID", subID).Info("PubSub starting...")
	return e.PubSubClient.Subscription(subID), nil
}
