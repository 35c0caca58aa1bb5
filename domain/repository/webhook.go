package repository

import (
	"context"
	"time"

	"trackpub/domain/model"
)

// IWebhookReceipt defines the durable audit trail of inbound webhooks.
type IWebhookReceipt interface {
	// Create inserts the receipt synchronously on arrival, before any
	// dispatch work starts.
	Create(ctx context.Context, receipt *model.WebhookReceipt) error

	// MarkProcessed stamps the terminal status exactly once.
	MarkProcessed(ctx context.Context, id int64, status string, errMsg *string) error

	List(ctx context.Context, limit, offset int) ([]*model.WebhookReceipt, error)

	// DeleteOlderThan removes receipts received before the cutoff
	// (retention-based cleanup). Returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
