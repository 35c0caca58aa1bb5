package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"trackpub/domain/dto"
	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/clients/youtube"
	"trackpub/infrastructure/logger"
)

type IAccountUsecase interface {
	List(ctx context.Context) ([]*model.Account, error)
	GetActive(ctx context.Context) (*model.Account, error)

	// Activate makes the account the single active one.
	Activate(ctx context.Context, id int64) error

	// ConnectURL returns the OAuth consent URL for connecting a channel.
	ConnectURL(state string) string

	// HandleCallback exchanges the OAuth code, resolves the channel identity
	// and stores the account.
	HandleCallback(ctx context.Context, code string) (*model.Account, error)

	// ConnectManual stores tokens obtained out-of-band.
	ConnectManual(ctx context.Context, req *dto.AccountConnectRequest) (*model.Account, error)
}

type accountUsecase struct {
	accountRepo repository.IAccount
	oauth       *oauth2.Config
}

func NewAccountUsecase(accountRepo repository.IAccount, oauth *oauth2.Config) IAccountUsecase {
	return &accountUsecase{accountRepo: accountRepo, oauth: oauth}
}

func (u *accountUsecase) List(ctx context.Context) ([]*model.Account, error) {
	return u.accountRepo.List(ctx)
}

func (u *accountUsecase) GetActive(ctx context.Context) (*model.Account, error) {
	return u.accountRepo.GetActive(ctx)
}

func (u *accountUsecase) Activate(ctx context.Context, id int64) error {
	if err := u.accountRepo.MarkActive(ctx, id); err != nil {
		return fmt.Errorf("activating account %d: %w", id, err)
	}
	logger.GetLogger().WithField("account_id", id).Info("Account activated")
	return nil
}

func (u *accountUsecase) ConnectURL(state string) string {
	return u.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (u *accountUsecase) HandleCallback(ctx context.Context, code string) (*model.Account, error) {
	token, err := u.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	client, err := youtube.NewClient(ctx, &youtube.Config{
		ClientID:     u.oauth.ClientID,
		ClientSecret: u.oauth.ClientSecret,
		RedirectURL:  u.oauth.RedirectURL,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	})
	if err != nil {
		return nil, err
	}
	channelID, channelTitle, err := client.GetMyChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving channel identity: %w", err)
	}

	expiry := token.Expiry
	account := &model.Account{
		DisplayName:    channelTitle,
		ChannelID:      channelID,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: &expiry,
	}
	if err := u.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("storing account for channel %s: %w", channelID, err)
	}
	logger.GetLogger().WithField("account_id", account.ID).WithField("channel", channelTitle).Info("Account connected")
	return account, nil
}

func (u *accountUsecase) ConnectManual(ctx context.Context, req *dto.AccountConnectRequest) (*model.Account, error) {
	account := &model.Account{
		DisplayName:  req.DisplayName,
		ChannelID:    req.ChannelID,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	}
	if req.ExpiresIn > 0 {
		expiry := time.Now().UTC().Add(time.Duration(req.ExpiresIn) * time.Second)
		account.TokenExpiresAt = &expiry
	}
	if err := u.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("storing account: %w", err)
	}
	return account, nil
}
