package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/pflag"

	"github.com/custodia-labs/gsignin/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	initOpts *domain.InitializeOptions
	initErr  error

	signIn *domain.Call[domain.SessionResult]
	// restore defaults to a rejection with code -4.
	restore  *domain.Call[domain.SessionResult]
	restores int
	refresh  *domain.Call[domain.AuthTokens]
	signOuts int
	status   domain.SessionStatus
}

func (m *mockSessionService) Initialize(_ context.Context, opts domain.InitializeOptions) error {
	m.initOpts = &opts
	return m.initErr
}

func (m *mockSessionService) SignIn(_ context.Context) *domain.Call[domain.SessionResult] {
	return m.signIn
}

func (m *mockSessionService) Restore(_ context.Context) *domain.Call[domain.SessionResult] {
	m.restores++
	if m.restore != nil {
		return m.restore
	}
	call := domain.NewCall[domain.SessionResult]("restore")
	call.Reject(&domain.CallError{Message: "nothing to restore", Code: "-4"})
	return call
}

func (m *mockSessionService) Refresh(_ context.Context) *domain.Call[domain.AuthTokens] {
	return m.refresh
}

func (m *mockSessionService) SignOut(_ context.Context) <-chan struct{} {
	m.signOuts++
	done := make(chan struct{})
	close(done)
	return done
}

func (m *mockSessionService) Status() domain.SessionStatus {
	return m.status
}

// runCLI executes the root command with the given services and returns
// everything written to stdout and stderr.
func runCLI(t *testing.T, session *mockSessionService, store *memory.ConfigStore, args ...string) (string, error) {
	t.Helper()

	var sessionPort = session
	if sessionPort == nil {
		sessionPort = &mockSessionService{}
	}
	if store == nil {
		store = memory.NewConfigStore()
	}
	SetServices(sessionPort, store)
	originalTerminal := interactiveTerminal
	interactiveTerminal = func() bool { return false }

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		SetServices(nil, nil)
		interactiveTerminal = originalTerminal
		resetFlags()
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags clears flag state that cobra keeps between executions.
func resetFlags() {
	signInClientID, signInIOSClientID, signInServerClientID = "", "", ""
	signInScopes = nil
	signInForce = false
	statusJSON = false
	signInCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	statusCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
}

func ptr[T any](v T) *T {
	return &v
}
