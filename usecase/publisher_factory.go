package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/clients/studio"
	"trackpub/infrastructure/clients/youtube"
	"trackpub/infrastructure/logger"
)

// OAuthPublisherFactory builds OAuth upload clients bound to the currently
// active account. Refreshed tokens are written back onto the account row so
// the next client starts from a fresh token set.
func OAuthPublisherFactory(accountRepo repository.IAccount, clientID, clientSecret, redirectURL string) PublisherFactory {
	return func(ctx context.Context) (repository.IPublisher, *model.Account, error) {
		account, err := accountRepo.GetActive(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, fmt.Errorf("no active account; connect and activate one first")
			}
			return nil, nil, fmt.Errorf("resolving active account: %w", err)
		}

		client, err := youtube.NewClientForAccount(ctx, clientID, clientSecret, redirectURL, account)
		if err != nil {
			return nil, nil, err
		}
		accountID := account.ID
		client.OnTokenRefresh(func(accessToken, refreshToken string, expiry time.Time) {
			if err := accountRepo.UpdateToken(context.Background(), accountID, accessToken, refreshToken, &expiry); err != nil {
				logger.GetLogger().WithField("account_id", accountID).WithField("error", err).Error("Persisting refreshed token failed")
			}
		})
		return client, account, nil
	}
}

// SessionPublisherFactory builds the credential-based studio client. No
// account row is involved.
func SessionPublisherFactory(host, username, password string) PublisherFactory {
	client := studio.NewClient(host, username, password)
	return func(ctx context.Context) (repository.IPublisher, *model.Account, error) {
		return client, nil, nil
	}
}
