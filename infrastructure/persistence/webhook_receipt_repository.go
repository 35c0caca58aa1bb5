package persistence

import (
	"context"
	"database/sql"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
)

// WebhookReceiptRepository implements the durable webhook audit trail for
// PostgreSQL.
type WebhookReceiptRepository struct {
	db *sql.DB
}

func NewWebhookReceiptRepository(db *sql.DB) repository.IWebhookReceipt {
	return &WebhookReceiptRepository{db: db}
}

func (r *WebhookReceiptRepository) Create(ctx context.Context, receipt *model.WebhookReceipt) error {
	now := time.Now().UTC()
	if receipt.Status == "" {
		receipt.Status = model.ReceiptStatusPending
	}
	receipt.ReceivedAt = now
	q := `INSERT INTO webhook_receipts (provider, payload, status, received_at) VALUES ($1,$2,$3,$4) RETURNING id`
	return r.db.QueryRowContext(ctx, q, receipt.Provider, receipt.Payload, receipt.Status, now).Scan(&receipt.ID)
}

func (r *WebhookReceiptRepository) MarkProcessed(ctx context.Context, id int64, status string, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE webhook_receipts SET status=$1, error_message=$2, processed_at=$3 WHERE id=$4`,
		status, errMsg, time.Now().UTC(), id)
	return err
}

func (r *WebhookReceiptRepository) List(ctx context.Context, limit, offset int) ([]*model.WebhookReceipt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, provider, payload, status, error_message, received_at, processed_at
		FROM webhook_receipts ORDER BY received_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.WebhookReceipt
	for rows.Next() {
		rec := &model.WebhookReceipt{}
		var errMsg sql.NullString
		var processedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Provider, &rec.Payload, &rec.Status, &errMsg, &rec.ReceivedAt, &processedAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			rec.ErrorMessage = &errMsg.String
		}
		if processedAt.Valid {
			rec.ProcessedAt = &processedAt.Time
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *WebhookReceiptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM webhook_receipts WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ensure interface compliance (compile-time)
var _ repository.IWebhookReceipt = (*WebhookReceiptRepository)(nil)
