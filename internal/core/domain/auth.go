package domain

import "time"

// OAuthToken represents the OAuth credentials held by a provider session.
type OAuthToken struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// IDToken is the OpenID Connect identity token, if one was issued.
	IDToken string `json:"id_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`
	// Scope is the space-separated scope list the token endpoint reported.
	Scope string `json:"scope,omitempty"`
	// ServerCode is the one-time server auth code returned with an
	// exchange. It is never persisted.
	ServerCode string `json:"-"`
}

// IsExpired returns true if the token has expired.
func (t *OAuthToken) IsExpired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry)
}

// ExpiresWithin returns true if the token expires before d has elapsed.
func (t *OAuthToken) ExpiresWithin(d time.Duration) bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Until(t.Expiry) < d
}

// StoredSession is the provider's own session cache record. It is what a
// silent restore starts from.
type StoredSession struct {
	// ClientID is the OAuth client the session was issued to.
	ClientID string `json:"client_id"`
	// UserID is the stable Google account identifier (the "sub" claim).
	UserID string `json:"user_id"`
	// Token holds the OAuth credentials.
	Token OAuthToken `json:"token"`
	// GrantedScopes lists every scope granted to this session so far.
	GrantedScopes []string `json:"granted_scopes"`
	// Profile is the last known profile, nil if none was resolved.
	Profile *Profile `json:"profile,omitempty"`
	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// CanRestore returns true if the session holds enough to re-authenticate
// without user interaction.
func (s *StoredSession) CanRestore() bool {
	return s != nil && s.Token.RefreshToken != ""
}
