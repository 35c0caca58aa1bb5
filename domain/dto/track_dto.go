package dto

// TrackCreateRequest is the boundary payload for registering a new track.
type TrackCreateRequest struct {
	Title             string   `json:"title" binding:"required"`
	Genres            []string `json:"genres"`
	AudioSourceURL    string   `json:"audio_source_url" binding:"required"`
	ImageSourceURL    string   `json:"image_source_url" binding:"required"`
	PublishingEnabled *bool    `json:"publishing_enabled"`
}

// TrackUpdateRequest carries the editable boundary fields of a track.
type TrackUpdateRequest struct {
	Title             *string  `json:"title"`
	Genres            []string `json:"genres"`
	PublishingEnabled *bool    `json:"publishing_enabled"`
}

// AccountConnectRequest persists tokens obtained out-of-band for a channel.
type AccountConnectRequest struct {
	DisplayName  string `json:"display_name" binding:"required"`
	ChannelID    string `json:"channel_id"`
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}
