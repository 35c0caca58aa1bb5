package servicebus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"trackpub/infrastructure/servicebus"
)

// TestNewEventServiceBus tests the creation of a new EventServiceBus
func TestNewEventServiceBus(t *testing.T) {
	// We can't do much more without mocking the Azure Service Bus client
	eventServiceBus := servicebus.NewEventServiceBus(nil)
	assert.NotNil(t, eventServiceBus)
}

func TestEventServiceBus_NilClientDropsEvents(t *testing.T) {
	eventServiceBus := servicebus.NewEventServiceBus(nil)
	err := eventServiceBus.SendMessage(context.Background(), "track-events", []byte(`{"type":"track.published"}`))
	assert.NoError(t, err)
}
