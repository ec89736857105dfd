package services

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
	"github.com/custodia-labs/gsignin/internal/core/ports/driving"
	"github.com/custodia-labs/gsignin/internal/logger"
)

// Ensure SessionController implements the interface.
var _ driving.SessionService = (*SessionController)(nil)

// SessionController drives the credential/session lifecycle: silent
// restore or interactive sign-in, scope escalation, refresh and sign-out.
//
// All provider interaction runs on the dispatcher. Public methods return
// immediately with a handle that settles when the dispatched work is done.
// Only the wait for a consent redirect runs off the dispatcher, so Refresh
// and SignOut are served while the user is on the consent page. That wait
// ends with the provider's callback timeout or when the controller closes.
type SessionController struct {
	resolver   *ConfigResolver
	provider   driven.IdentityProvider
	presenter  driven.Presenter
	dispatcher *Dispatcher
	mapper     *ResultMapper
	newID      func() string

	// closing is canceled by Close to end consent waits.
	closing context.Context
	stop    context.CancelFunc
	waits   sync.WaitGroup

	mu               sync.Mutex
	config           *domain.EffectiveConfig
	additionalScopes []string
	overridden       bool
	closed           bool
	state            domain.SessionState
	pending          *domain.Call[domain.SessionResult]
}

// NewSessionController creates a session controller. Call Load to resolve
// the static configuration before use.
func NewSessionController(
	resolver *ConfigResolver,
	provider driven.IdentityProvider,
	presenter driven.Presenter,
	dispatcher *Dispatcher,
) *SessionController {
	closing, stop := context.WithCancel(context.Background())
	return &SessionController{
		closing:          closing,
		stop:             stop,
		resolver:         resolver,
		provider:         provider,
		presenter:        presenter,
		dispatcher:       dispatcher,
		mapper:           NewResultMapper(),
		newID:            uuid.NewString,
		additionalScopes: []string{},
		state:            domain.StateUnconfigured,
	}
}

// Load resolves the static configuration. When no client id can be
// resolved the controller stays unconfigured and sign-in calls fail fast;
// the returned domain.ErrNoClientID is informational.
func (c *SessionController) Load() error {
	cfg, err := c.resolver.ResolveStatic()
	if err != nil {
		if errors.Is(err, domain.ErrNoClientID) {
			logger.Error("No client id found in config")
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(cfg)
	logger.Debug("static config loaded: client=%s scopes=%v", cfg.ClientID, cfg.RequestedScopes)
	return nil
}

// ReloadStatic re-resolves the static configuration unless an initialize
// override is active. Returns false if the reload was skipped.
func (c *SessionController) ReloadStatic() (bool, error) {
	c.mu.Lock()
	overridden := c.overridden
	c.mu.Unlock()
	if overridden {
		logger.Debug("static config changed; keeping initialize override")
		return false, nil
	}
	return true, c.Load()
}

// Initialize replaces the effective configuration with a runtime override.
func (c *SessionController) Initialize(_ context.Context, opts domain.InitializeOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := c.resolver.ApplyOverride(c.config, opts)
	c.applyLocked(cfg)
	c.overridden = true
	logger.Debug("initialize: client=%s additional=%v force=%t",
		cfg.ClientID, c.additionalScopes, cfg.ForceAuthCode)
	return nil
}

func (c *SessionController) applyLocked(cfg domain.EffectiveConfig) {
	c.config = &cfg
	c.additionalScopes = c.resolver.AdditionalScopes(cfg.RequestedScopes)
	if c.state == domain.StateUnconfigured && cfg.ClientID != "" {
		c.state = domain.StateIdle
	}
}

func (c *SessionController) configuredLocked() bool {
	return c.config != nil && c.config.ClientID != ""
}

// SignIn restores the previous session, or runs an interactive sign-in
// followed by scope escalation when additional scopes are configured.
//
// The configuration is captured when SignIn is called. Each call gets its
// own handle, so concurrent sign-ins never settle each other's handles.
func (c *SessionController) SignIn(ctx context.Context) *domain.Call[domain.SessionResult] {
	call := domain.NewCall[domain.SessionResult](c.newID())

	c.mu.Lock()
	if !c.configuredLocked() {
		c.mu.Unlock()
		call.Reject(c.mapper.Reject(domain.ErrNotConfigured, false))
		return call
	}
	cfg := c.config.Clone()
	additional := slices.Clone(c.additionalScopes)
	if c.pending != nil && !c.pending.Settled() {
		logger.Warn("sign-in %s superseded by %s", c.pending.ID(), call.ID())
	}
	c.pending = call
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if !c.dispatcher.Async(func() { c.runSignIn(ctx, call, cfg, additional) }) {
		c.reject(call, domain.ErrClosed, false)
	}
	return call
}

func (c *SessionController) runSignIn(
	ctx context.Context,
	call *domain.Call[domain.SessionResult],
	cfg domain.EffectiveConfig,
	additional []string,
) {
	logger.Section("Sign In")
	if c.closing.Err() != nil {
		c.reject(call, domain.ErrClosed, false)
		return
	}
	c.setState(domain.StateSigningIn)

	if c.provider.HasPreviousSignIn(ctx) && !cfg.ForceAuthCode {
		logger.Debug("restoring previous sign-in")
		user, err := c.provider.RestorePreviousSignIn(ctx)
		if err != nil {
			c.reject(call, err, false)
			return
		}
		c.resolve(call, user)
		return
	}

	logger.Debug("presenting interactive sign-in")
	consent, err := c.provider.BeginSignIn(ctx, cfg, c.presenter)
	if err != nil {
		c.reject(call, err, true)
		return
	}
	c.awaitConsent(ctx, call, consent, true, func() {
		user, err := c.provider.Complete(ctx, consent)
		if err != nil {
			c.reject(call, err, true)
			return
		}
		if len(additional) == 0 {
			c.resolve(call, user)
			return
		}
		c.escalate(ctx, call, additional)
	})
}

// escalate requests the additional scopes. They can only be requested once
// the user is signed in.
func (c *SessionController) escalate(ctx context.Context, call *domain.Call[domain.SessionResult], additional []string) {
	logger.Info("requesting %d additional scopes", len(additional))
	c.setState(domain.StateScopeEscalating)

	consent, err := c.provider.BeginAddScopes(ctx, additional, c.presenter)
	if err != nil {
		c.reject(call, err, false)
		return
	}
	c.awaitConsent(ctx, call, consent, false, func() {
		user, err := c.provider.Complete(ctx, consent)
		if err != nil {
			c.reject(call, err, false)
			return
		}
		c.resolve(call, user)
	})
}

// awaitConsent waits for consent off the dispatcher, then runs next on the
// dispatcher. A failed wait rejects call instead.
func (c *SessionController) awaitConsent(
	ctx context.Context,
	call *domain.Call[domain.SessionResult],
	consent driven.Consent,
	withCode bool,
	next func(),
) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.reject(call, domain.ErrClosed, false)
		return
	}
	c.waits.Add(1)
	c.mu.Unlock()

	waitCtx, cancel := context.WithCancel(ctx)
	stopAfter := context.AfterFunc(c.closing, cancel)

	go func() {
		defer c.waits.Done()
		defer stopAfter()
		defer cancel()

		err := consent.Await(waitCtx)
		ok := c.dispatcher.Async(func() {
			if err != nil {
				c.reject(call, err, withCode)
				return
			}
			next()
		})
		if !ok {
			c.reject(call, domain.ErrClosed, false)
		}
	}()
}

// Restore silently restores the previous session without ever presenting
// a consent page. It rejects with code -4 when there is nothing to restore.
func (c *SessionController) Restore(ctx context.Context) *domain.Call[domain.SessionResult] {
	call := domain.NewCall[domain.SessionResult](c.newID())

	c.mu.Lock()
	configured := c.configuredLocked()
	c.mu.Unlock()
	if !configured {
		call.Reject(c.mapper.Reject(domain.ErrNotConfigured, false))
		return call
	}

	ctx = context.WithoutCancel(ctx)
	ok := c.dispatcher.Async(func() {
		user, err := c.provider.RestorePreviousSignIn(ctx)
		if err != nil {
			c.reject(call, err, true)
			return
		}
		c.resolve(call, user)
	})
	if !ok {
		c.reject(call, domain.ErrClosed, false)
	}
	return call
}

func (c *SessionController) resolve(call *domain.Call[domain.SessionResult], user *domain.User) {
	if user == nil {
		c.reject(call, domain.NewProviderError(domain.CodeUnknown, "", nil), false)
		return
	}
	result := c.mapper.MapUser(user)
	c.settle(call)
	call.Resolve(result)
}

func (c *SessionController) reject(call *domain.Call[domain.SessionResult], err error, withCode bool) {
	logger.Debug("sign-in %s rejected: %v", call.ID(), err)
	c.settle(call)
	call.Reject(c.mapper.Reject(err, withCode))
}

// settle updates the lifecycle state once a sign-in attempt has finished.
func (c *SessionController) settle(call *domain.Call[domain.SessionResult]) {
	signedIn := c.provider.CurrentUser() != nil

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == call {
		c.pending = nil
	}
	if !c.configuredLocked() {
		return
	}
	if signedIn {
		c.state = domain.StateSignedIn
	} else {
		c.state = domain.StateIdle
	}
}

func (c *SessionController) setState(state domain.SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configuredLocked() {
		c.state = state
	}
}

// Refresh returns fresh tokens for the signed-in user. It rejects with
// "User not logged in." when there is no current user.
func (c *SessionController) Refresh(ctx context.Context) *domain.Call[domain.AuthTokens] {
	call := domain.NewCall[domain.AuthTokens](c.newID())
	ctx = context.WithoutCancel(ctx)

	ok := c.dispatcher.Async(func() {
		if c.provider.CurrentUser() == nil {
			call.Reject(c.mapper.Reject(domain.ErrNotSignedIn, false))
			return
		}
		auth, err := c.provider.FreshTokens(ctx)
		if err != nil || auth == nil {
			call.Reject(c.mapper.Reject(err, false))
			return
		}
		call.Resolve(c.mapper.MapAuthentication(*auth))
	})
	if !ok {
		call.Reject(c.mapper.Reject(domain.ErrClosed, false))
	}
	return call
}

// SignOut clears the provider session. The clear is dispatched and SignOut
// returns without waiting for it, so provider state is only eventually
// consistent with the caller's view. The returned channel is closed once
// the clear has run.
func (c *SessionController) SignOut(ctx context.Context) <-chan struct{} {
	cleared := make(chan struct{})
	ctx = context.WithoutCancel(ctx)

	ok := c.dispatcher.Async(func() {
		defer close(cleared)
		c.provider.SignOut(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.configuredLocked() {
			c.state = domain.StateIdle
		}
	})
	if !ok {
		close(cleared)
	}
	return cleared
}

// Status reports the current lifecycle state.
func (c *SessionController) Status() domain.SessionStatus {
	signedIn := c.provider.CurrentUser() != nil

	c.mu.Lock()
	defer c.mu.Unlock()
	status := domain.SessionStatus{
		State:            c.state,
		AdditionalScopes: slices.Clone(c.additionalScopes),
		SignedIn:         signedIn,
	}
	if c.config != nil {
		cfg := c.config.Clone()
		status.Config = &cfg
	}
	if c.pending != nil {
		status.PendingSignIn = c.pending.ID()
	}
	return status
}

// AdditionalScopes returns the scopes requested after sign-in.
func (c *SessionController) AdditionalScopes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.additionalScopes)
}

// Close ends consent waits, which reject with code -5, and stops the
// dispatcher after queued work has finished.
func (c *SessionController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.stop()
	c.waits.Wait()
	c.dispatcher.Close()
}
