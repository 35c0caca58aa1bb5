package persistence

import (
	"context"
	"database/sql"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
)

// WebhookReceiptRepositoryMSSQL implements the webhook audit trail for SQL
// Server/Azure SQL.
type WebhookReceiptRepositoryMSSQL struct{ db *sql.DB }

func NewWebhookReceiptRepositoryMSSQL(db *sql.DB) repository.IWebhookReceipt {
	return &WebhookReceiptRepositoryMSSQL{db: db}
}

func (r *WebhookReceiptRepositoryMSSQL) Create(ctx context.Context, receipt *model.WebhookReceipt) error {
	now := time.Now().UTC()
	if receipt.Status == "" {
		receipt.Status = model.ReceiptStatusPending
	}
	receipt.ReceivedAt = now
	q := `INSERT INTO dbo.[webhook_receipts] (provider, payload, status, received_at)
OUTPUT INSERTED.id
VALUES (@p1,@p2,@p3,@p4)`
	return r.db.QueryRowContext(ctx, q, receipt.Provider, receipt.Payload, receipt.Status, now).Scan(&receipt.ID)
}

func (r *WebhookReceiptRepositoryMSSQL) MarkProcessed(ctx context.Context, id int64, status string, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[webhook_receipts] SET status=@p1, error_message=@p2, processed_at=@p3 WHERE id=@p4`,
		status, errMsg, time.Now().UTC(), id)
	return err
}

func (r *WebhookReceiptRepositoryMSSQL) List(ctx context.Context, limit, offset int) ([]*model.WebhookReceipt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, provider, payload, status, error_message, received_at, processed_at
FROM dbo.[webhook_receipts] ORDER BY received_at DESC OFFSET @p1 ROWS FETCH NEXT @p2 ROWS ONLY`, offset, limit)
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

func (r *WebhookReceiptRepositoryMSSQL) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[webhook_receipts] WHERE received_at < @p1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ensure interface compliance
var _ repository.IWebhookReceipt = (*WebhookReceiptRepositoryMSSQL)(nil)
