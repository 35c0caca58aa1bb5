package persistence

import (
	"context"
	"database/sql"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
)

// AccountRepositoryMSSQL implements publishing account persistence for SQL
// Server/Azure SQL using database/sql.
type AccountRepositoryMSSQL struct{ db *sql.DB }

func NewAccountRepositoryMSSQL(db *sql.DB) repository.IAccount { return &AccountRepositoryMSSQL{db: db} }

const accountColumnsMSSQL = `id, display_name, channel_id, access_token, refresh_token, token_expires_at, is_active, last_used_at, created_at, updated_at`

func (r *AccountRepositoryMSSQL) Create(ctx context.Context, account *model.Account) error {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	// Use MERGE for upsert keyed on channel_id
	q := `MERGE dbo.[accounts] AS target
USING (VALUES (@p1)) AS src(channel_id)
ON target.channel_id = src.channel_id
WHEN MATCHED THEN UPDATE SET
  display_name = @p2,
  access_token = @p3,
  refresh_token = @p4,
  token_expires_at = @p5,
  updated_at = @p7
WHEN NOT MATCHED THEN
  INSERT (display_name, channel_id, access_token, refresh_token, token_expires_at, is_active, created_at, updated_at)
  VALUES (@p2, src.channel_id, @p3, @p4, @p5, @p6, @p7, @p7)
OUTPUT INSERTED.id;`
	return r.db.QueryRowContext(ctx, q, account.ChannelID, account.DisplayName, account.AccessToken,
		account.RefreshToken, account.TokenExpiresAt, account.IsActive, now).Scan(&account.ID)
}

func (r *AccountRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumnsMSSQL+` FROM dbo.[accounts] WHERE id=@p1`, id)
	return scanAccount(row)
}

func (r *AccountRepositoryMSSQL) GetByChannelID(ctx context.Context, channelID string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumnsMSSQL+` FROM dbo.[accounts] WHERE channel_id=@p1`, channelID)
	return scanAccount(row)
}

func (r *AccountRepositoryMSSQL) List(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumnsMSSQL+` FROM dbo.[accounts] ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *AccountRepositoryMSSQL) GetActive(ctx context.Context) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT TOP (1) `+accountColumnsMSSQL+` FROM dbo.[accounts] WHERE is_active=1`)
	return scanAccount(row)
}

func (r *AccountRepositoryMSSQL) MarkActive(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE dbo.[accounts] SET is_active=0, updated_at=@p1 WHERE is_active=1`, now); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, `UPDATE dbo.[accounts] SET is_active=1, last_used_at=@p1, updated_at=@p1 WHERE id=@p2`, now, id)
	if err != nil {
		return err
	}
	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return err
	}
	if n == 0 {
		err = sql.ErrNoRows
		return err
	}
	err = tx.Commit()
	return err
}

func (r *AccountRepositoryMSSQL) UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[accounts] SET access_token=@p1, refresh_token=@p2, token_expires_at=@p3, updated_at=@p4 WHERE id=@p5`,
		accessToken, refreshToken, expiresAt, time.Now().UTC(), id)
	return err
}

func (r *AccountRepositoryMSSQL) TouchLastUsed(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[accounts] SET last_used_at=@p1, updated_at=@p1 WHERE id=@p2`, now, id)
	return err
}

// Ensure interface compliance
var _ repository.IAccount = (*AccountRepositoryMSSQL)(nil)
