package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func newTestServer(t *testing.T, session *mockSessionService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Session: session})
	require.NoError(t, err)
	return server
}

func TestServer_handleInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("passes options through", func(t *testing.T) {
		session := &mockSessionService{}
		server := newTestServer(t, session)
		force := true

		_, output, err := server.handleInitialize(ctx, nil, InitializeInput{
			ClientID:                 strPtr("web"),
			IOSClientID:              strPtr("ios"),
			Scopes:                   []string{"email", "custom"},
			ForceCodeForRefreshToken: &force,
		})

		require.NoError(t, err)
		assert.NotNil(t, output.Result)
		assert.Nil(t, output.Error)
		require.NotNil(t, session.initOpts)
		assert.Equal(t, "web", *session.initOpts.ClientID)
		assert.Equal(t, "ios", *session.initOpts.IOSClientID)
		assert.Nil(t, session.initOpts.ServerClientID)
		assert.Equal(t, []string{"email", "custom"}, session.initOpts.Scopes)
		assert.True(t, *session.initOpts.ForceCodeForRefreshToken)
	})

	t.Run("reports failure as error output", func(t *testing.T) {
		server := newTestServer(t, &mockSessionService{initErr: errors.New("bad config")})

		_, output, err := server.handleInitialize(ctx, nil, InitializeInput{})

		require.NoError(t, err)
		assert.Nil(t, output.Result)
		require.NotNil(t, output.Error)
		assert.Equal(t, "bad config", output.Error.Message)
	})
}

func TestServer_handleSignIn(t *testing.T) {
	ctx := context.Background()
	email := "user@example.com"

	t.Run("returns result", func(t *testing.T) {
		server := newTestServer(t, &mockSessionService{
			signIn: resolvedSignIn(domain.SessionResult{
				Authentication: domain.AuthTokens{AccessToken: "at"},
				Email:          &email,
			}),
		})

		_, output, err := server.handleSignIn(ctx, nil, NoInput{})

		require.NoError(t, err)
		assert.Nil(t, output.Error)
		require.NotNil(t, output.Result)
		assert.Equal(t, "at", output.Result.Authentication.AccessToken)
		assert.Equal(t, &email, output.Result.Email)
	})

	t.Run("keeps call error code", func(t *testing.T) {
		server := newTestServer(t, &mockSessionService{
			signIn: rejectedSignIn(&domain.CallError{Message: "The user canceled the sign-in flow.", Code: "-5"}),
		})

		_, output, err := server.handleSignIn(ctx, nil, NoInput{})

		require.NoError(t, err)
		assert.Nil(t, output.Result)
		assert.Equal(t, &domain.CallError{Message: "The user canceled the sign-in flow.", Code: "-5"}, output.Error)
	})

	t.Run("plain error has no code", func(t *testing.T) {
		server := newTestServer(t, &mockSessionService{signIn: rejectedSignIn(errors.New("boom"))})

		_, output, err := server.handleSignIn(ctx, nil, NoInput{})

		require.NoError(t, err)
		assert.Equal(t, &domain.CallError{Message: "boom"}, output.Error)
	})

	t.Run("request cancelled stops waiting", func(t *testing.T) {
		server := newTestServer(t, &mockSessionService{
			signIn: domain.NewCall[domain.SessionResult]("pending"),
		})
		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()

		_, _, err := server.handleSignIn(cctx, nil, NoInput{})

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestServer_handleRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("returns tokens", func(t *testing.T) {
		call := domain.NewCall[domain.AuthTokens]("refresh")
		call.Resolve(domain.AuthTokens{AccessToken: "fresh", RefreshToken: "rt"})
		server := newTestServer(t, &mockSessionService{refresh: call})

		_, output, err := server.handleRefresh(ctx, nil, NoInput{})

		require.NoError(t, err)
		require.NotNil(t, output.Result)
		assert.Equal(t, "fresh", output.Result.AccessToken)
		assert.Nil(t, output.Result.IDToken)
	})

	t.Run("not signed in", func(t *testing.T) {
		call := domain.NewCall[domain.AuthTokens]("refresh")
		call.Reject(&domain.CallError{Message: "User not logged in."})
		server := newTestServer(t, &mockSessionService{refresh: call})

		_, output, err := server.handleRefresh(ctx, nil, NoInput{})

		require.NoError(t, err)
		assert.Nil(t, output.Result)
		assert.Equal(t, "User not logged in.", output.Error.Message)
		assert.Empty(t, output.Error.Code)
	})
}

func TestServer_handleSignOut(t *testing.T) {
	session := &mockSessionService{}
	server := newTestServer(t, session)

	_, output, err := server.handleSignOut(context.Background(), nil, NoInput{})

	require.NoError(t, err)
	assert.NotNil(t, output.Result)
	assert.Equal(t, 1, session.signOuts)
}

func TestServer_handleStatus(t *testing.T) {
	status := domain.SessionStatus{State: domain.StateSignedIn, SignedIn: true, AdditionalScopes: []string{}}
	server := newTestServer(t, &mockSessionService{status: status})

	_, output, err := server.handleStatus(context.Background(), nil, NoInput{})

	require.NoError(t, err)
	assert.Equal(t, status, output)
}

func TestServer_handleStatusResource(t *testing.T) {
	server := newTestServer(t, &mockSessionService{
		status: domain.SessionStatus{State: domain.StateIdle, AdditionalScopes: []string{"custom"}},
	})

	result, err := server.handleStatusResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "gsignin://status"},
	})

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "gsignin://status", result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.JSONEq(t, `{"state":"idle","additionalScopes":["custom"],"signedIn":false}`, result.Contents[0].Text)
}

func TestSignInOutput_JSON(t *testing.T) {
	data, err := json.Marshal(SignInOutput{Error: &domain.CallError{Message: "m", Code: "-1"}})
	require.NoError(t, err)

	assert.JSONEq(t, `{"error":{"message":"m","code":"-1"}}`, string(data))
}
