package google

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSourceAdapter adapts the provider's session to oauth2.TokenSource.
// Google API clients built on it always see the current access token,
// refreshed through the provider when it is about to expire.
type TokenSourceAdapter struct {
	provider *Provider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource backed by the provider's
// current session. The returned TokenSource can be used with
// option.WithTokenSource() when creating Google API services.
func NewTokenSource(ctx context.Context, provider *Provider) oauth2.TokenSource {
	return &TokenSourceAdapter{
		provider: provider,
		ctx:      ctx,
	}
}

// Token implements oauth2.TokenSource interface.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	session, err := t.provider.freshSession(t.ctx)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: session.Token.AccessToken,
		TokenType:   "Bearer",
		Expiry:      session.Token.Expiry,
	}, nil
}
