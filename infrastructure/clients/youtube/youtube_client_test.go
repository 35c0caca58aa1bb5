package youtube

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestInitialTokenExpiry: a stored expiry still in the future seeds the token
// as-is so the first call skips the refresh round-trip; an unknown or stale
// expiry is back-dated so the refresh happens before the token is used.
func TestInitialTokenExpiry(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	future := now.Add(30 * time.Minute)
	assert.Equal(t, future, initialTokenExpiry(&future, now))

	past := now.Add(-time.Hour)
	assert.True(t, initialTokenExpiry(&past, now).Before(now))
	assert.True(t, initialTokenExpiry(nil, now).Before(now))
	assert.True(t, initialTokenExpiry(&now, now).Before(now))
}

func TestOAuthConfig_Scopes(t *testing.T) {
	cfg := OAuthConfig("id", "secret", "http://localhost/callback")
	assert.Len(t, cfg.Scopes, 3)
	assert.Equal(t, "http://localhost/callback", cfg.RedirectURL)
}
