package driven

import (
	"context"
	"net/url"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// Presenter hosts an interactive consent flow. It is the anchor the
// identity provider presents its consent screen on.
type Presenter interface {
	// Present shows the consent page at authURL to the user.
	Present(ctx context.Context, authURL string) error
}

// Consent is an interactive authorization that has been presented and is
// waiting for the user to finish it.
type Consent interface {
	// Await blocks until the user finishes the consent, it times out, or ctx
	// is done. It may block for minutes.
	Await(ctx context.Context) error
}

// IdentityProvider is the native sign-in SDK the session controller drives.
// Calls may block on the network; the controller only invokes them from its
// serial dispatcher. Waiting for the user happens in Consent.Await, which is
// called off the dispatcher.
type IdentityProvider interface {
	// HasPreviousSignIn reports whether a cached session can be restored.
	HasPreviousSignIn(ctx context.Context) bool

	// RestorePreviousSignIn re-establishes the cached session without user interaction.
	RestorePreviousSignIn(ctx context.Context) (*domain.User, error)

	// BeginSignIn presents the interactive consent flow for cfg on presenter
	// and returns without waiting for the user.
	BeginSignIn(ctx context.Context, cfg domain.EffectiveConfig, presenter Presenter) (Consent, error)

	// BeginAddScopes presents an additive grant of scopes for the current user
	// and returns without waiting for the user.
	BeginAddScopes(ctx context.Context, scopes []string, presenter Presenter) (Consent, error)

	// Complete finishes a consent whose Await returned nil and establishes
	// the resulting session.
	Complete(ctx context.Context, consent Consent) (*domain.User, error)

	// CurrentUser returns the signed-in user, or nil.
	CurrentUser() *domain.User

	// FreshTokens returns valid tokens for the current user, refreshing
	// them first if they are expired or about to expire.
	FreshTokens(ctx context.Context) (*domain.Authentication, error)

	// SignOut clears the current user and the cached session.
	SignOut(ctx context.Context)

	// HandleURL offers a redirect URL to the provider. Returns true if the
	// URL belonged to a flow in progress.
	HandleURL(u *url.URL) bool
}

// SessionCache is the identity provider's own session persistence.
type SessionCache interface {
	// Load returns the cached session. Returns domain.ErrNotFound if there is none.
	Load(ctx context.Context) (*domain.StoredSession, error)

	// Save replaces the cached session.
	Save(ctx context.Context, session domain.StoredSession) error

	// Clear removes the cached session. Clearing an empty cache is not an error.
	Clear(ctx context.Context) error
}
