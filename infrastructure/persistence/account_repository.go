package persistence

import (
	"context"
	"database/sql"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
)

// AccountRepository implements publishing account persistence for PostgreSQL.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) repository.IAccount { return &AccountRepository{db: db} }

const accountColumns = `id, display_name, channel_id, access_token, refresh_token, token_expires_at, is_active, last_used_at, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*model.Account, error) {
	a := &model.Account{}
	var expiresAt, lastUsedAt sql.NullTime
	err := row.Scan(&a.ID, &a.DisplayName, &a.ChannelID, &a.AccessToken, &a.RefreshToken,
		&expiresAt, &a.IsActive, &lastUsedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		a.TokenExpiresAt = &expiresAt.Time
	}
	if lastUsedAt.Valid {
		a.LastUsedAt = &lastUsedAt.Time
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	q := `INSERT INTO accounts (display_name, channel_id, access_token, refresh_token, token_expires_at, is_active, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
	      ON CONFLICT (channel_id) DO UPDATE SET
	        display_name=EXCLUDED.display_name,
	        access_token=EXCLUDED.access_token,
	        refresh_token=EXCLUDED.refresh_token,
	        token_expires_at=EXCLUDED.token_expires_at,
	        updated_at=EXCLUDED.updated_at
	      RETURNING id`
	return r.db.QueryRowContext(ctx, q, account.DisplayName, account.ChannelID, account.AccessToken,
		account.RefreshToken, account.TokenExpiresAt, account.IsActive, now).Scan(&account.ID)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	return scanAccount(row)
}

func (r *AccountRepository) GetByChannelID(ctx context.Context, channelID string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE channel_id=$1`, channelID)
	return scanAccount(row)
}

func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at ASC`)
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

func (r *AccountRepository) GetActive(ctx context.Context) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE is_active=TRUE LIMIT 1`)
	return scanAccount(row)
}

// MarkActive deactivates every account and activates the requested one inside
// a single transaction, preserving the at-most-one-active invariant even
// under concurrent switches.
func (r *AccountRepository) MarkActive(ctx context.Context, id int64) error {
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
	if _, err = tx.ExecContext(ctx, `UPDATE accounts SET is_active=FALSE, updated_at=$1 WHERE is_active=TRUE`, now); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, `UPDATE accounts SET is_active=TRUE, last_used_at=$1, updated_at=$1 WHERE id=$2`, now, id)
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

func (r *AccountRepository) UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET access_token=$1, refresh_token=$2, token_expires_at=$3, updated_at=$4 WHERE id=$5`,
		accessToken, refreshToken, expiresAt, time.Now().UTC(), id)
	return err
}

func (r *AccountRepository) TouchLastUsed(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET last_used_at=$1, updated_at=$1 WHERE id=$2`, now, id)
	return err
}

// Ensure interface compliance (compile-time)
var _ repository.IAccount = (*AccountRepository)(nil)
