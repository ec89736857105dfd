package services

import (
	"context"
	"net/url"
	"slices"
	"sync"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
)

var _ driven.IdentityProvider = (*mockProvider)(nil)

// mockProvider is a scriptable identity provider that records calls.
type mockProvider struct {
	mu sync.Mutex

	hasPrevious bool
	current     *domain.User

	restoreUser *domain.User
	restoreErr  error
	signInUser  *domain.User
	signInErr   error
	scopesUser  *domain.User
	scopesErr   error
	tokens      *domain.Authentication
	tokensErr   error

	// beginErr fails BeginSignIn; awaitErr fails the sign-in consent wait.
	beginErr error
	awaitErr error

	// signInGate, when set, holds the sign-in consent until it is closed.
	signInGate chan struct{}
	// signOutGate, when set, blocks SignOut until it is closed.
	signOutGate chan struct{}

	calls        []string
	signInConfig domain.EffectiveConfig
	addedScopes  []string
	presenters   []driven.Presenter
	handledURLs  []*url.URL
}

func (m *mockProvider) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockProvider) called(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.calls, name)
}

func (m *mockProvider) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockProvider) HasPreviousSignIn(_ context.Context) bool {
	m.record("HasPreviousSignIn")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasPrevious
}

func (m *mockProvider) RestorePreviousSignIn(_ context.Context) (*domain.User, error) {
	m.record("RestorePreviousSignIn")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.restoreErr != nil {
		return nil, m.restoreErr
	}
	m.current = m.restoreUser
	return m.restoreUser, nil
}

func (m *mockProvider) BeginSignIn(
	_ context.Context,
	cfg domain.EffectiveConfig,
	presenter driven.Presenter,
) (driven.Consent, error) {
	m.record("SignIn")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signInConfig = cfg
	m.presenters = append(m.presenters, presenter)
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &mockConsent{kind: "SignIn", gate: m.signInGate, err: m.awaitErr}, nil
}

func (m *mockProvider) BeginAddScopes(
	_ context.Context,
	scopes []string,
	presenter driven.Presenter,
) (driven.Consent, error) {
	m.record("AddScopes")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addedScopes = slices.Clone(scopes)
	m.presenters = append(m.presenters, presenter)
	return &mockConsent{kind: "AddScopes"}, nil
}

func (m *mockProvider) Complete(_ context.Context, consent driven.Consent) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if consent.(*mockConsent).kind == "AddScopes" {
		if m.scopesErr != nil {
			return nil, m.scopesErr
		}
		m.current = m.scopesUser
		return m.scopesUser, nil
	}
	if m.signInErr != nil {
		return nil, m.signInErr
	}
	m.current = m.signInUser
	return m.signInUser, nil
}

// mockConsent is a consent whose redirect arrives when gate closes.
type mockConsent struct {
	kind string
	gate chan struct{}
	err  error
}

func (c *mockConsent) Await(ctx context.Context) error {
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return domain.NewProviderError(domain.CodeCanceled, "canceled", ctx.Err())
		}
	}
	return c.err
}

func (m *mockProvider) CurrentUser() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *mockProvider) FreshTokens(_ context.Context) (*domain.Authentication, error) {
	m.record("FreshTokens")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, m.tokensErr
}

func (m *mockProvider) SignOut(_ context.Context) {
	m.mu.Lock()
	gate := m.signOutGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}
	m.record("SignOut")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.hasPrevious = false
}

func (m *mockProvider) HandleURL(u *url.URL) bool {
	m.record("HandleURL")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handledURLs = append(m.handledURLs, u)
	return true
}

// mockPresenter satisfies driven.Presenter.
type mockPresenter struct{}

func (mockPresenter) Present(context.Context, string) error { return nil }

// mockDescriptor satisfies driven.DescriptorReader.
type mockDescriptor struct {
	clientID string
	err      error
}

func (d mockDescriptor) ClientID() (string, error) {
	return d.clientID, d.err
}

func testUser() *domain.User {
	return &domain.User{
		UserID:         "1234567890",
		ServerAuthCode: "4/server-code",
		Profile: &domain.Profile{
			Email:      "user@example.com",
			Name:       "Ada Lovelace",
			GivenName:  "Ada",
			FamilyName: "Lovelace",
			PictureURL: "https://lh3.googleusercontent.com/a/photo=s96-c",
		},
		GrantedScopes: []string{"openid", "email", "profile"},
		Authentication: domain.Authentication{
			AccessToken:  "access-token",
			IDToken:      "id-token",
			RefreshToken: "refresh-token",
		},
	}
}
