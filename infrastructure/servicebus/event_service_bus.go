package servicebus

import (
	"context"

	"trackpub/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewServiceBus creates the Azure Service Bus client using the default
// credential chain. Callers treat an error as "Service Bus disabled".
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type IEventServiceBus interface {
	SendMessage(ctx context.Context, queue string, message []byte) error
}

// EventServiceBus mirrors pipeline lifecycle events onto an Azure Service Bus
// queue. A nil client drops events silently.
type EventServiceBus struct {
	AzservicebusClient *azservicebus.Client
}

func NewEventServiceBus(azServiceBusClient *azservicebus.Client) IEventServiceBus {
	return &EventServiceBus{AzservicebusClient: azServiceBusClient}
}

func (e *EventServiceBus) SendMessage(ctx context.Context, queue string, message []byte) error {
	if e.AzservicebusClient == nil {
		logger.GetLogger().Debug("Service Bus client is nil - dropping event")
		return nil
	}
	sender, err := e.AzservicebusClient.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, ctx)

	sbMessage := &azservicebus.Message{
		Body: message,
	}
	if err := sender.SendMessage(ctx, sbMessage, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}

	return nil
}
