package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
	"github.com/custodia-labs/gsignin/internal/core/ports/driving"
	"github.com/custodia-labs/gsignin/internal/logger"
)

// Ensure RedirectBridge implements the interface.
var _ driving.RedirectHandler = (*RedirectBridge)(nil)

// RedirectBridge forwards platform redirect notifications to the identity
// provider's URL handler.
type RedirectBridge struct {
	provider driven.IdentityProvider
}

// NewRedirectBridge creates a redirect bridge for provider.
func NewRedirectBridge(provider driven.IdentityProvider) *RedirectBridge {
	return &RedirectBridge{provider: provider}
}

// Malformed redirect notifications. The messages are part of the host's
// log contract.
var (
	errNoRedirectObject = fmt.Errorf("%w: There is no object on handleOpenUrl", domain.ErrMalformedRedirect)
	errNoRedirectURL    = fmt.Errorf("%w: There is no url on handleOpenUrl", domain.ErrMalformedRedirect)
)

// HandleOpenURL extracts the url carried by n and hands it to the provider.
// A notification without a payload or url is logged and ignored.
func (b *RedirectBridge) HandleOpenURL(n domain.Notification) bool {
	u, err := NotificationURL(n)
	if err != nil {
		logger.Warn("%v", err)
		return false
	}
	handled := b.provider.HandleURL(u)
	logger.Debug("redirect %s handled=%t", u.Path, handled)
	return handled
}

// NotificationURL returns the redirect url carried by n. It fails with an
// error wrapping domain.ErrMalformedRedirect when there is none.
func NotificationURL(n domain.Notification) (*url.URL, error) {
	object, ok := n.Object.(map[string]any)
	if !ok {
		return nil, errNoRedirectObject
	}
	u, ok := redirectURL(object["url"])
	if !ok {
		return nil, errNoRedirectURL
	}
	return u, nil
}

// Observe consumes notifications until ctx is done or ch is closed.
// Notifications with a name other than domain.NotificationOpenURL are skipped.
func (b *RedirectBridge) Observe(ctx context.Context, ch <-chan domain.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if n.Name != domain.NotificationOpenURL {
				continue
			}
			handled := b.HandleOpenURL(n)
			if n.Reply != nil {
				select {
				case n.Reply <- handled:
				default:
				}
			}
		}
	}
}

func redirectURL(v any) (*url.URL, bool) {
	switch u := v.(type) {
	case *url.URL:
		return u, u != nil
	case url.URL:
		return &u, true
	case string:
		if u == "" {
			return nil, false
		}
		parsed, err := url.Parse(u)
		if err != nil {
			logger.Warn("redirect url %q: %v", u, err)
			return nil, false
		}
		return parsed, true
	default:
		return nil, false
	}
}
