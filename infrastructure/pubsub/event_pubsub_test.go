package pubsub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"trackpub/infrastructure/pubsub"
)

// TestNewEventPubSub tests the creation of a new EventPubSub
func TestNewEventPubSub(t *testing.T) {
	// We can't do much more without mocking the Google Cloud PubSub client
	eventPubSub := pubsub.NewEventPubSub(nil)
	assert.NotNil(t, eventPubSub)
}

// A nil client must drop events without erroring; lifecycle events are
// best-effort and never fail the pipeline.
func TestEventPubSub_NilClientDropsEvents(t *testing.T) {
	eventPubSub := pubsub.NewEventPubSub(nil)
	id, err := eventPubSub.Publish(context.Background(), "track-events", []byte(`{"type":"track.completed"}`))
	assert.NoError(t, err)
	assert.Empty(t, id)
}
