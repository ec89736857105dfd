package google

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
	"github.com/custodia-labs/gsignin/internal/logger"
)

// Ensure consent implements the interface.
var _ driven.Consent = (*consent)(nil)

// flow is an authorization request waiting for its redirect.
type flow struct {
	verifier string
	result   chan flowResult
}

type flowResult struct {
	code string
	err  error
}

// consentKind tells Complete what a consent was for.
type consentKind int

const (
	consentSignIn consentKind = iota
	consentAddScopes
)

// consent is a presented authorization request. Await receives its
// redirect; Complete exchanges the code.
type consent struct {
	provider *Provider
	kind     consentKind
	state    string
	flow     *flow
	conf     *oauth2.Config
	deadline time.Time

	// cfg is the configuration of a sign-in.
	cfg domain.EffectiveConfig
	// current and missing describe a scope grant.
	current *domain.StoredSession
	missing []string

	mu      sync.Mutex
	awaited bool
	code    string
	err     error
}

// present registers a flow for conf and shows its consent page. It returns
// as soon as the presenter does.
func (p *Provider) present(
	ctx context.Context,
	kind consentKind,
	conf *oauth2.Config,
	presenter driven.Presenter,
	opts ...oauth2.AuthCodeOption,
) (*consent, error) {
	if presenter == nil {
		return nil, domain.NewProviderError(domain.CodeUnknown, "no presenter to show the consent page", nil)
	}

	c := &consent{
		provider: p,
		kind:     kind,
		state:    oauth2.GenerateVerifier(),
		flow: &flow{
			verifier: oauth2.GenerateVerifier(),
			result:   make(chan flowResult, 1),
		},
		conf: conf,
	}

	p.mu.Lock()
	p.flows[c.state] = c.flow
	p.mu.Unlock()

	opts = append(opts, oauth2.S256ChallengeOption(c.flow.verifier))
	authURL := conf.AuthCodeURL(c.state, opts...)
	logger.Debug("presenting consent page for scopes %v", conf.Scopes)

	if err := presenter.Present(ctx, authURL); err != nil {
		p.forget(c.state)
		var perr *domain.ProviderError
		if errors.As(err, &perr) {
			return nil, perr
		}
		return nil, domain.NewProviderError(domain.CodeUnknown, "", err)
	}
	c.deadline = p.opts.Now().Add(p.opts.CallbackTimeout)
	return c, nil
}

// Await blocks until the redirect for c arrives through HandleURL, the
// callback timeout elapses, or ctx is done. Later calls return the first
// outcome.
func (c *consent) Await(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.awaited {
		return c.err
	}
	defer c.provider.forget(c.state)

	timer := time.NewTimer(time.Until(c.deadline))
	defer timer.Stop()

	select {
	case res := <-c.flow.result:
		c.code, c.err = res.code, res.err
	case <-timer.C:
		// The user walked away from the consent page.
		c.err = domain.NewProviderError(domain.CodeCanceled, msgCallbackTimeout, nil)
	case <-ctx.Done():
		c.err = domain.NewProviderError(domain.CodeCanceled, msgCanceled, ctx.Err())
	}
	c.awaited = true
	return c.err
}

// result returns the authorization code once Await has succeeded.
func (c *consent) result() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.awaited {
		return "", domain.NewProviderError(domain.CodeUnknown, msgNotAwaited, nil)
	}
	return c.code, c.err
}

func (p *Provider) forget(state string) {
	p.mu.Lock()
	delete(p.flows, state)
	p.mu.Unlock()
}

// HandleURL completes the authorization request the redirect u belongs to.
// Returns false if u carries no state of a request in progress.
func (p *Provider) HandleURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	query := u.Query()
	state := query.Get("state")
	if state == "" {
		return false
	}

	p.mu.Lock()
	f, ok := p.flows[state]
	if ok {
		delete(p.flows, state)
	}
	p.mu.Unlock()
	if !ok {
		logger.Debug("redirect with unknown state ignored")
		return false
	}

	var res flowResult
	switch {
	case query.Get("error") != "":
		res.err = authorizationError(query.Get("error"), query.Get("error_description"))
	case query.Get("code") == "":
		res.err = domain.NewProviderError(domain.CodeUnknown, msgNoCode, nil)
	default:
		res.code = query.Get("code")
	}

	select {
	case f.result <- res:
	default:
	}
	return true
}
