package model

import "time"

// Account stores platform OAuth credentials for a managed publishing channel.
// At most one account is active at any time; the active flag is switched via
// a single transaction in the repository (deactivate all, then activate one).
type Account struct {
	ID             int64      `json:"id" gorm:"primaryKey"`
	DisplayName    string     `json:"display_name"`
	ChannelID      string     `json:"channel_id"`
	AccessToken    string     `json:"-"`
	RefreshToken   string     `json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsTokenExpired reports whether the access token must be refreshed before
// use. An unset expiry counts as expired: we never trust a token of unknown
// age.
func (a *Account) IsTokenExpired(now time.Time) bool {
	if a.TokenExpiresAt == nil {
		return true
	}
	return !a.TokenExpiresAt.After(now)
}
