package repository

import (
	"context"
	"time"

	"trackpub/domain/model"
)

// IAccount defines persistence operations for managed publishing accounts.
type IAccount interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByChannelID(ctx context.Context, channelID string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)

	// GetActive returns the single active account, or sql.ErrNoRows when no
	// account is active.
	GetActive(ctx context.Context) (*model.Account, error)

	// MarkActive deactivates every account and activates the target inside
	// one transaction. The transaction is the serialization point for the
	// single-active invariant.
	MarkActive(ctx context.Context, id int64) error

	// UpdateToken persists a refreshed token set onto the account.
	UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error

	// TouchLastUsed stamps last_used_at after a publish.
	TouchLastUsed(ctx context.Context, id int64) error
}
