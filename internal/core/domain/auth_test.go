package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestOAuthToken_IsExpired tests expiry detection
func TestOAuthToken_IsExpired(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"zero expiry never expires", time.Time{}, false},
		{"future expiry", time.Now().Add(time.Hour), false},
		{"past expiry", time.Now().Add(-time.Hour), true},
		{"far past expiry", time.Now().AddDate(-1, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &OAuthToken{AccessToken: "test-token", Expiry: tt.expiry}
			assert.Equal(t, tt.want, token.IsExpired())
		})
	}
}

// TestOAuthToken_ExpiresWithin tests the refresh buffer check
func TestOAuthToken_ExpiresWithin(t *testing.T) {
	token := &OAuthToken{Expiry: time.Now().Add(3 * time.Minute)}

	assert.True(t, token.ExpiresWithin(5*time.Minute))
	assert.False(t, token.ExpiresWithin(time.Minute))
	assert.False(t, (&OAuthToken{}).ExpiresWithin(time.Hour), "zero expiry is never within a window")
}

// TestStoredSession_CanRestore tests silent restore eligibility
func TestStoredSession_CanRestore(t *testing.T) {
	var nilSession *StoredSession

	assert.False(t, nilSession.CanRestore())
	assert.False(t, (&StoredSession{Token: OAuthToken{AccessToken: "a"}}).CanRestore())
	assert.True(t, (&StoredSession{Token: OAuthToken{RefreshToken: "r"}}).CanRestore())
}
