package model

import "time"

// Webhook receipt statuses.
const (
	ReceiptStatusPending   = "pending"
	ReceiptStatusProcessed = "processed"
	ReceiptStatusFailed    = "failed"
)

// WebhookReceipt is the durable record of an inbound provider event. It is
// created synchronously on receipt, before any processing happens, so the
// audit trail survives a crash of the asynchronous processor. The status is
// updated exactly once by the processor.
type WebhookReceipt struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	Provider     string     `json:"provider"`
	Payload      string     `json:"payload"` // raw request body, stored as-is
	Status       string     `json:"status"`  // pending | processed | failed
	ErrorMessage *string    `json:"error_message,omitempty"`
	ReceivedAt   time.Time  `json:"received_at" gorm:"autoCreateTime;index"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}
