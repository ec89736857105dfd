package driving

import (
	"context"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// SessionService is the sign-in surface exposed to the host application.
// Every operation returns without waiting for the identity provider;
// results are delivered through the returned handle.
type SessionService interface {
	// Initialize replaces the effective configuration with a runtime override.
	Initialize(ctx context.Context, opts domain.InitializeOptions) error

	// SignIn restores the previous session or runs an interactive sign-in.
	// Rejections carry a *domain.CallError.
	SignIn(ctx context.Context) *domain.Call[domain.SessionResult]

	// Restore silently restores the previous session. It never presents a
	// consent page. Rejections carry a *domain.CallError; code -4 means
	// there is no previous session.
	Restore(ctx context.Context) *domain.Call[domain.SessionResult]

	// Refresh returns fresh tokens for the signed-in user.
	// Rejections carry a *domain.CallError.
	Refresh(ctx context.Context) *domain.Call[domain.AuthTokens]

	// SignOut clears the provider session. It resolves immediately; the
	// returned channel is closed once the clear has actually run.
	SignOut(ctx context.Context) <-chan struct{}

	// Status reports the current lifecycle state.
	Status() domain.SessionStatus
}

// RedirectHandler consumes platform redirect notifications.
type RedirectHandler interface {
	// HandleOpenURL forwards the notification's url to the identity provider.
	// Malformed notifications are logged and ignored.
	HandleOpenURL(n domain.Notification) bool
}
