package youtube

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"trackpub/domain/dto"
	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Client is the OAuth upload strategy: it talks to the platform Data API on
// behalf of one connected account.
type Client struct {
	service     *youtube.Service
	channelID   string
	oauthConfig *oauth2.Config
	token       *oauth2.Token
	ctx         context.Context

	// onTokenRefresh is invoked after a successful refresh so the caller can
	// persist the new token set onto the account row.
	onTokenRefresh func(accessToken, refreshToken string, expiry time.Time)
}

// Config represents the OAuth client configuration plus one account's tokens.
type Config struct {
	ClientID     string     `json:"client_id"`
	ClientSecret string     `json:"client_secret"`
	RedirectURL  string     `json:"redirect_url"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`
	ChannelID    string     `json:"channel_id"`
}

// OAuthConfig builds the oauth2.Config used both by the client and by the
// account connect flow (auth URL + code exchange).
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			youtube.YoutubeScope,
			youtube.YoutubeUploadScope,
			youtube.YoutubeForceSslScope,
		},
		Endpoint: google.Endpoint,
	}
}

// NewClient creates the OAuth upload client for one account's token set.
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	if config.AccessToken == "" && config.RefreshToken == "" {
		return nil, fmt.Errorf("account has no tokens; connect it through the OAuth flow first")
	}

	oauth2Config := OAuthConfig(config.ClientID, config.ClientSecret, config.RedirectURL)
	token := &oauth2.Token{
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       initialTokenExpiry(config.TokenExpiry, time.Now()),
	}

	httpClient := oauth2Config.Client(ctx, token)
	service, err := youtube.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service:     service,
		channelID:   config.ChannelID,
		oauthConfig: oauth2Config,
		token:       token,
		ctx:         ctx,
	}, nil
}

// NewClientForAccount builds a client from a stored account row. A token the
// account still holds as valid keeps its stored expiry, so the first API call
// does not burn a refresh round-trip.
func NewClientForAccount(ctx context.Context, clientID, clientSecret, redirectURL string, account *model.Account) (*Client, error) {
	cfg := &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		ChannelID:    account.ChannelID,
	}
	if !account.IsTokenExpired(time.Now()) {
		cfg.TokenExpiry = account.TokenExpiresAt
	}
	return NewClient(ctx, cfg)
}

// initialTokenExpiry seeds the oauth token's expiry. A stored expiry still in
// the future is trusted as-is; anything else is back-dated so the first API
// call refreshes before use.
func initialTokenExpiry(stored *time.Time, now time.Time) time.Time {
	if stored != nil && stored.After(now) {
		return *stored
	}
	return now.Add(-1 * time.Minute)
}

// OnTokenRefresh registers a persistence callback for refreshed tokens.
func (c *Client) OnTokenRefresh(fn func(accessToken, refreshToken string, expiry time.Time)) {
	c.onTokenRefresh = fn
}

func (c *Client) Name() string { return "oauth" }

// Upload pushes the rendered video with snippet and status parts and returns
// the platform video id. A response without an id is an UploadError: the
// upload cannot be confirmed and must not be recorded as published.
func (c *Client) Upload(ctx context.Context, params *dto.UploadParams) (string, error) {
	if err := c.refreshTokenIfNeeded(); err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: err}
	}

	file, err := os.Open(params.VideoPath)
	if err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: fmt.Errorf("failed to open video file: %w", err)}
	}
	defer file.Close()

	title := params.Title
	if params.IsShort && !strings.Contains(strings.ToLower(title), "#shorts") {
		title = title + " #Shorts"
	}
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: params.Description,
			Tags:        params.Tags,
			CategoryId:  params.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           params.PrivacyStatus,
			MadeForKids:             params.MadeForKids,
			SelfDeclaredMadeForKids: params.MadeForKids,
		},
	}

	call := c.service.Videos.Insert([]string{"snippet", "status"}, video).Media(file)
	response, err := call.Context(ctx).Do()
	if err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: err}
	}
	if response.Id == "" {
		return "", &model.UploadError{Strategy: c.Name(), Err: fmt.Errorf("upload response carried no video id")}
	}
	logger.GetLogger().WithField("videoId", response.Id).Info("Video uploaded")
	return response.Id, nil
}

// EnsurePlaylist returns the id of the caller's playlist with the given
// title, creating it when absent.
func (c *Client) EnsurePlaylist(ctx context.Context, title string) (string, error) {
	if err := c.refreshTokenIfNeeded(); err != nil {
		return "", err
	}

	list, err := c.service.Playlists.List([]string{"id", "snippet"}).Mine(true).MaxResults(50).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to list playlists: %w", err)
	}
	for _, p := range list.Items {
		if strings.EqualFold(p.Snippet.Title, title) {
			return p.Id, nil
		}
	}

	created, err := c.service.Playlists.Insert([]string{"snippet", "status"}, &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{Title: title},
		Status:  &youtube.PlaylistStatus{PrivacyStatus: "public"},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create playlist %q: %w", title, err)
	}
	logger.GetLogger().WithField("playlistId", created.Id).WithField("title", title).Info("Playlist created")
	return created.Id, nil
}

// AddVideoToPlaylist appends the video to the playlist.
func (c *Client) AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) error {
	if err := c.refreshTokenIfNeeded(); err != nil {
		return err
	}
	_, err := c.service.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add video %s to playlist %s: %w", videoID, playlistID, err)
	}
	return nil
}

// GetVideoStats fetches the current statistics counters for a video.
func (c *Client) GetVideoStats(ctx context.Context, videoID string) (int64, int64, int64, error) {
	if err := c.refreshTokenIfNeeded(); err != nil {
		return 0, 0, 0, err
	}
	response, err := c.service.Videos.List([]string{"statistics"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get video statistics: %w", err)
	}
	if len(response.Items) == 0 {
		return 0, 0, 0, fmt.Errorf("video not found: %s", videoID)
	}
	stats := response.Items[0].Statistics
	if stats == nil {
		return 0, 0, 0, nil
	}
	return int64(stats.ViewCount), int64(stats.LikeCount), int64(stats.CommentCount), nil
}

// GetMyChannel resolves the connected account's channel identity, used when
// persisting a freshly connected account.
func (c *Client) GetMyChannel(ctx context.Context) (id, title string, err error) {
	if err := c.refreshTokenIfNeeded(); err != nil {
		return "", "", err
	}
	response, err := c.service.Channels.List([]string{"id", "snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to get my channel: %w", err)
	}
	if len(response.Items) == 0 {
		return "", "", fmt.Errorf("no channel found for authenticated user")
	}
	return response.Items[0].Id, response.Items[0].Snippet.Title, nil
}

// refreshTokenIfNeeded checks if the token is expired and refreshes it automatically
func (c *Client) refreshTokenIfNeeded() error {
	if c.oauthConfig == nil || c.token == nil {
		return nil
	}
	if c.token.Expiry.IsZero() || time.Until(c.token.Expiry) < 5*time.Minute {
		newToken, err := c.oauthConfig.TokenSource(c.ctx, c.token).Token()
		if err != nil {
			return fmt.Errorf("failed to refresh token: %w", err)
		}
		c.token = newToken
		httpClient := c.oauthConfig.Client(c.ctx, newToken)
		service, err := youtube.NewService(c.ctx, option.WithHTTPClient(httpClient))
		if err != nil {
			return fmt.Errorf("failed to recreate YouTube service with refreshed token: %w", err)
		}
		c.service = service
		if c.onTokenRefresh != nil {
			refresh := newToken.RefreshToken
			if refresh == "" {
				refresh = c.token.RefreshToken
			}
			c.onTokenRefresh(newToken.AccessToken, refresh, newToken.Expiry)
		}
		logger.GetLogger().WithField("expiry", newToken.Expiry).Debug("Token refreshed")
	}
	return nil
}

// Ensure interface compliance (compile-time)
var _ repository.IPlaylistPublisher = (*Client)(nil)
