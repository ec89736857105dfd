package mcp

import (
	"context"
	"sync"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	mu sync.Mutex

	initOpts *domain.InitializeOptions
	initErr  error

	signIn   *domain.Call[domain.SessionResult]
	refresh  *domain.Call[domain.AuthTokens]
	signOuts int
	status   domain.SessionStatus
}

func (m *mockSessionService) Initialize(_ context.Context, opts domain.InitializeOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initOpts = &opts
	return m.initErr
}

func (m *mockSessionService) SignIn(_ context.Context) *domain.Call[domain.SessionResult] {
	return m.signIn
}

func (m *mockSessionService) Restore(_ context.Context) *domain.Call[domain.SessionResult] {
	return rejectedSignIn(&domain.CallError{Message: "nothing to restore", Code: "-4"})
}

func (m *mockSessionService) Refresh(_ context.Context) *domain.Call[domain.AuthTokens] {
	return m.refresh
}

func (m *mockSessionService) SignOut(_ context.Context) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOuts++
	done := make(chan struct{})
	close(done)
	return done
}

func (m *mockSessionService) Status() domain.SessionStatus {
	return m.status
}

func resolvedSignIn(result domain.SessionResult) *domain.Call[domain.SessionResult] {
	call := domain.NewCall[domain.SessionResult]("sign-in")
	call.Resolve(result)
	return call
}

func rejectedSignIn(err error) *domain.Call[domain.SessionResult] {
	call := domain.NewCall[domain.SessionResult]("sign-in")
	call.Reject(err)
	return call
}
