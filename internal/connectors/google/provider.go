package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
	"github.com/custodia-labs/gsignin/internal/logger"
)

// Ensure Provider implements the interface.
var _ driven.IdentityProvider = (*Provider)(nil)

// Default provider settings.
const (
	DefaultCallbackTimeout = 5 * time.Minute
	DefaultRefreshBuffer   = 5 * time.Minute
)

// Options configures a Provider.
type Options struct {
	// RedirectURL is the loopback URL the consent page redirects to.
	RedirectURL string
	// ClientSecret is sent with token requests. Installed-app clients of
	// type "Desktop" are issued one; iOS clients are not.
	ClientSecret string
	// Endpoint overrides Google's OAuth endpoints.
	Endpoint oauth2.Endpoint
	// APIEndpoint overrides the base URL of the userinfo API.
	APIEndpoint string
	// HTTPClient is used for every request. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// CallbackTimeout bounds the wait for the consent redirect.
	CallbackTimeout time.Duration
	// RefreshBuffer refreshes access tokens this long before they expire.
	RefreshBuffer time.Duration
	// TokenRate and TokenBurst throttle token endpoint requests.
	// Zero values use DefaultTokenRate and DefaultTokenBurst.
	TokenRate  rate.Limit
	TokenBurst int
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Provider is the Google identity provider.
//
// Methods that perform network calls are expected to be called one at a
// time. CurrentUser, HandleURL and the Await of a presented consent may be
// called concurrently with them.
type Provider struct {
	opts    Options
	cache   driven.SessionCache
	limiter *tokenLimiter

	mu      sync.Mutex
	session *domain.StoredSession
	user    *domain.User
	flows   map[string]*flow
}

// NewProvider creates a Google identity provider that persists sessions in cache.
func NewProvider(cache driven.SessionCache, opts Options) *Provider {
	if opts.Endpoint.AuthURL == "" {
		opts.Endpoint = googleoauth.Endpoint
	}
	if opts.Endpoint.AuthStyle == oauth2.AuthStyleAutoDetect {
		opts.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
	if opts.CallbackTimeout <= 0 {
		opts.CallbackTimeout = DefaultCallbackTimeout
	}
	if opts.RefreshBuffer <= 0 {
		opts.RefreshBuffer = DefaultRefreshBuffer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Provider{
		opts:    opts,
		cache:   cache,
		limiter: newTokenLimiter(opts.TokenRate, opts.TokenBurst, opts.Now),
		flows:   make(map[string]*flow),
	}
}

// SetRedirectURL sets the loopback redirect URL. It must be called before
// any interactive flow if the callback server was started after NewProvider.
func (p *Provider) SetRedirectURL(redirectURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts.RedirectURL = redirectURL
}

func (p *Provider) oauthConfig(clientID string, scopes []string) *oauth2.Config {
	p.mu.Lock()
	redirectURL := p.opts.RedirectURL
	p.mu.Unlock()

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: p.opts.ClientSecret,
		Endpoint:     p.opts.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}
}

func (p *Provider) httpContext(ctx context.Context) context.Context {
	if p.opts.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.opts.HTTPClient)
}

// HasPreviousSignIn reports whether a restorable session is cached.
func (p *Provider) HasPreviousSignIn(ctx context.Context) bool {
	p.mu.Lock()
	session := p.session
	p.mu.Unlock()
	if session.CanRestore() {
		return true
	}

	stored, err := p.cache.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("session cache: %v", err)
		}
		return false
	}
	return stored.CanRestore()
}

// RestorePreviousSignIn restores the cached session, refreshing its access
// token when needed.
func (p *Provider) RestorePreviousSignIn(ctx context.Context) (*domain.User, error) {
	stored, err := p.cache.Load(ctx)
	if err != nil {
		return nil, cacheError(err)
	}
	if !stored.CanRestore() {
		return nil, domain.NewProviderError(domain.CodeHasNoAuthInKeychain, msgHasNoAuth, nil)
	}

	p.mu.Lock()
	p.session = stored
	p.mu.Unlock()

	fresh, err := p.freshSession(ctx)
	if err != nil {
		p.clear()
		return nil, err
	}

	session := *fresh
	if session.Profile == nil {
		if err := p.resolveProfile(ctx, &session, NewTokenSource(ctx, p)); IsUnauthorized(err) {
			// The access token was revoked outside of this client.
			p.clear()
			return nil, domain.NewProviderError(domain.CodeHasNoAuthInKeychain, msgHasNoAuth, err)
		} else if err != nil {
			logger.Warn("restore: %v", err)
		} else if err := p.save(ctx, &session); err != nil {
			return nil, err
		}
	}

	user := userFromSession(&session, "")
	p.mu.Lock()
	p.session = &session
	p.user = user
	p.mu.Unlock()
	logger.Info("restored session for %s", session.UserID)
	return cloneUser(user), nil
}

// BeginSignIn presents the consent page for the default-granted scopes.
func (p *Provider) BeginSignIn(
	ctx context.Context,
	cfg domain.EffectiveConfig,
	presenter driven.Presenter,
) (driven.Consent, error) {
	if cfg.ClientID == "" {
		return nil, domain.NewProviderError(domain.CodeUnknown, "", domain.ErrNotConfigured)
	}

	conf := p.oauthConfig(cfg.ClientID, signInScopes())
	authOpts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if cfg.ForceAuthCode {
		authOpts = append(authOpts, oauth2.ApprovalForce)
	}

	c, err := p.present(ctx, consentSignIn, conf, presenter, authOpts...)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return c, nil
}

// BeginAddScopes presents the consent page for the scopes the current user
// has not granted yet.
func (p *Provider) BeginAddScopes(
	ctx context.Context,
	scopes []string,
	presenter driven.Presenter,
) (driven.Consent, error) {
	p.mu.Lock()
	current := p.session
	p.mu.Unlock()
	if current == nil {
		return nil, domain.NewProviderError(domain.CodeUnknown, msgNoCurrentUser, domain.ErrNotSignedIn)
	}

	missing := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if !slices.Contains(current.GrantedScopes, scope) && !slices.Contains(missing, scope) {
			missing = append(missing, scope)
		}
	}
	if len(missing) == 0 {
		return nil, domain.NewProviderError(domain.CodeScopesAlreadyGranted, msgScopesAlreadyGranted, nil)
	}

	conf := p.oauthConfig(current.ClientID, missing)
	authOpts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	}
	if current.Profile != nil && current.Profile.Email != "" {
		authOpts = append(authOpts, oauth2.SetAuthURLParam("login_hint", current.Profile.Email))
	}

	c, err := p.present(ctx, consentAddScopes, conf, presenter, authOpts...)
	if err != nil {
		return nil, err
	}
	c.current = current
	c.missing = missing
	return c, nil
}

// Complete exchanges the authorization code of an awaited consent and
// establishes the resulting session.
func (p *Provider) Complete(ctx context.Context, dc driven.Consent) (*domain.User, error) {
	c, ok := dc.(*consent)
	if !ok || c.provider != p {
		return nil, domain.NewProviderError(domain.CodeUnknown, msgUnknownConsent, nil)
	}
	code, err := c.result()
	if err != nil {
		return nil, err
	}
	if c.kind == consentAddScopes {
		return p.completeAddScopes(ctx, c, code)
	}
	return p.completeSignIn(ctx, c, code)
}

func (p *Provider) completeSignIn(ctx context.Context, c *consent, code string) (*domain.User, error) {
	token, err := p.exchange(ctx, c.conf, code, c.flow.verifier, c.cfg.ServerClientID)
	if err != nil {
		return nil, err
	}

	session := &domain.StoredSession{
		ClientID:      c.cfg.ClientID,
		Token:         token,
		GrantedScopes: grantedScopes(token, c.conf.Scopes),
	}
	if err := p.resolveProfile(ctx, session, oauth2.StaticTokenSource(oauthToken(token))); err != nil {
		logger.Warn("sign in: %v", err)
	}
	if err := p.save(ctx, session); err != nil {
		return nil, err
	}

	user := userFromSession(session, token.ServerCode)
	p.mu.Lock()
	p.session = session
	p.user = user
	p.mu.Unlock()
	logger.Info("signed in %s", session.UserID)
	return cloneUser(user), nil
}

func (p *Provider) completeAddScopes(ctx context.Context, c *consent, code string) (*domain.User, error) {
	current := c.current
	token, err := p.exchange(ctx, c.conf, code, c.flow.verifier, "")
	if err != nil {
		return nil, err
	}

	if idToken := token.IDToken; idToken != "" && current.UserID != "" {
		if claims, err := parseIDToken(idToken); err == nil && claims.Subject != current.UserID {
			return nil, domain.NewProviderError(domain.CodeMismatchWithCurrentUser, msgMismatch, nil)
		}
	}

	session := *current
	if token.RefreshToken == "" {
		token.RefreshToken = current.Token.RefreshToken
	}
	if token.IDToken == "" {
		token.IDToken = current.Token.IDToken
	}
	session.Token = token
	session.GrantedScopes = mergeScopes(current.GrantedScopes, grantedScopes(token, c.missing))
	if err := p.save(ctx, &session); err != nil {
		return nil, err
	}

	user := userFromSession(&session, "")
	p.mu.Lock()
	p.session = &session
	p.user = user
	p.mu.Unlock()
	logger.Info("granted %d additional scopes", len(c.missing))
	return cloneUser(user), nil
}

// CurrentUser returns the signed-in user, or nil.
func (p *Provider) CurrentUser() *domain.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneUser(p.user)
}

// FreshTokens returns the current user's tokens, refreshing them first if
// they expire within the refresh buffer.
func (p *Provider) FreshTokens(ctx context.Context) (*domain.Authentication, error) {
	session, err := p.freshSession(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.user != nil {
		p.user.Authentication = authentication(session.Token)
	}
	p.mu.Unlock()

	auth := authentication(session.Token)
	return &auth, nil
}

// freshSession returns the current session with an access token that is
// valid for at least the refresh buffer.
func (p *Provider) freshSession(ctx context.Context) (*domain.StoredSession, error) {
	p.mu.Lock()
	current := p.session
	p.mu.Unlock()
	if current == nil {
		return nil, domain.ErrNotSignedIn
	}

	if current.Token.AccessToken != "" && !p.expiresSoon(current.Token) {
		return current, nil
	}
	if current.Token.RefreshToken == "" {
		return nil, domain.NewProviderError(domain.CodeHasNoAuthInKeychain, msgHasNoAuth, nil)
	}

	token, err := p.refresh(ctx, current)
	if err != nil {
		return nil, err
	}

	session := *current
	session.Token = token
	if err := p.save(ctx, &session); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.session = &session
	p.mu.Unlock()
	return &session, nil
}

func (p *Provider) expiresSoon(token domain.OAuthToken) bool {
	if token.Expiry.IsZero() {
		return false
	}
	return token.Expiry.Sub(p.opts.Now()) < p.opts.RefreshBuffer
}

func (p *Provider) refresh(ctx context.Context, session *domain.StoredSession) (domain.OAuthToken, error) {
	if err := p.limiter.wait(ctx); err != nil {
		return domain.OAuthToken{}, domain.NewProviderError(domain.CodeUnknown, "", err)
	}

	conf := p.oauthConfig(session.ClientID, nil)
	// Without an access token the source always goes to the token endpoint.
	expired := &oauth2.Token{RefreshToken: session.Token.RefreshToken}
	tok, err := conf.TokenSource(p.httpContext(ctx), expired).Token()
	if err != nil {
		p.limiter.observe(err)
		return domain.OAuthToken{}, refreshError(err)
	}
	logger.Debug("refreshed access token, expires %s", tok.Expiry.Format(time.RFC3339))

	token := fromOAuthToken(tok)
	if token.RefreshToken == "" {
		token.RefreshToken = session.Token.RefreshToken
	}
	if token.IDToken == "" {
		token.IDToken = session.Token.IDToken
	}
	return token, nil
}

func (p *Provider) exchange(
	ctx context.Context,
	conf *oauth2.Config,
	code, verifier, serverClientID string,
) (domain.OAuthToken, error) {
	if err := p.limiter.wait(ctx); err != nil {
		return domain.OAuthToken{}, domain.NewProviderError(domain.CodeUnknown, "", err)
	}

	opts := []oauth2.AuthCodeOption{oauth2.VerifierOption(verifier)}
	if serverClientID != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", serverClientID))
	}
	tok, err := conf.Exchange(p.httpContext(ctx), code, opts...)
	if err != nil {
		p.limiter.observe(err)
		return domain.OAuthToken{}, tokenError(err)
	}
	return fromOAuthToken(tok), nil
}

// resolveProfile fills the session's user id and profile from the id_token,
// falling back to the userinfo API.
func (p *Provider) resolveProfile(ctx context.Context, session *domain.StoredSession, ts oauth2.TokenSource) error {
	if session.Token.IDToken != "" {
		claims, err := parseIDToken(session.Token.IDToken)
		if err == nil {
			session.UserID = claims.Subject
			if profile := claims.profile(); profile != nil {
				session.Profile = profile
				return nil
			}
		} else {
			logger.Debug("%v", err)
		}
	}

	svc, err := NewUserInfoService(ctx, ts, p.opts.APIEndpoint, p.opts.HTTPClient)
	if err != nil {
		return fmt.Errorf("create userinfo service: %w", err)
	}
	userID, profile, err := GetUserInfo(ctx, svc)
	if err != nil {
		return err
	}
	if session.UserID == "" {
		session.UserID = userID
	}
	session.Profile = profile
	return nil
}

func (p *Provider) save(ctx context.Context, session *domain.StoredSession) error {
	session.UpdatedAt = p.opts.Now()
	if err := p.cache.Save(ctx, *session); err != nil {
		return cacheError(err)
	}
	return nil
}

// SignOut forgets the current user and clears the cached session.
func (p *Provider) SignOut(ctx context.Context) {
	p.clear()
	if err := p.cache.Clear(ctx); err != nil {
		logger.Warn("clear session cache: %v", err)
	}
	logger.Info("signed out")
}

func (p *Provider) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = nil
	p.user = nil
}

// signInScopes are the scopes of an interactive sign-in.
func signInScopes() []string {
	return slices.Clone(domain.DefaultGrantedScopes)
}

// grantedScopes returns the scopes the token response reports, or
// requested if it reports none.
func grantedScopes(token domain.OAuthToken, requested []string) []string {
	if token.Scope == "" {
		return slices.Clone(requested)
	}
	return normaliseScopes(strings.Fields(token.Scope))
}

// normaliseScopes maps the userinfo scope URLs Google echoes back to the
// short names they were requested with.
func normaliseScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		switch scope {
		case "https://www.googleapis.com/auth/userinfo.email":
			scope = "email"
		case "https://www.googleapis.com/auth/userinfo.profile":
			scope = "profile"
		}
		if !slices.Contains(out, scope) {
			out = append(out, scope)
		}
	}
	return out
}

func mergeScopes(a, b []string) []string {
	out := slices.Clone(a)
	for _, scope := range b {
		if !slices.Contains(out, scope) {
			out = append(out, scope)
		}
	}
	return out
}

func fromOAuthToken(tok *oauth2.Token) domain.OAuthToken {
	token := domain.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		token.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		token.Scope = scope
	}
	if code, ok := tok.Extra("server_code").(string); ok {
		token.ServerCode = code
	}
	return token
}

func oauthToken(token domain.OAuthToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
}

func authentication(token domain.OAuthToken) domain.Authentication {
	return domain.Authentication{
		AccessToken:  token.AccessToken,
		IDToken:      token.IDToken,
		RefreshToken: token.RefreshToken,
	}
}

func userFromSession(session *domain.StoredSession, serverAuthCode string) *domain.User {
	user := &domain.User{
		UserID:         session.UserID,
		ServerAuthCode: serverAuthCode,
		GrantedScopes:  slices.Clone(session.GrantedScopes),
		Authentication: authentication(session.Token),
	}
	if session.Profile != nil {
		profile := *session.Profile
		user.Profile = &profile
	}
	return user
}

func cloneUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clone := *user
	clone.GrantedScopes = slices.Clone(user.GrantedScopes)
	if user.Profile != nil {
		profile := *user.Profile
		clone.Profile = &profile
	}
	return &clone
}
