package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// InitializeInput is the input schema for the initialize tool.
type InitializeInput struct {
	ClientID                 *string  `json:"clientId,omitempty" jsonschema:"OAuth client id"`
	IOSClientID              *string  `json:"iosClientId,omitempty" jsonschema:"OAuth client id; wins over clientId"`
	ServerClientID           *string  `json:"serverClientId,omitempty" jsonschema:"backend client a server auth code is issued for"`
	Scopes                   []string `json:"scopes,omitempty" jsonschema:"requested scopes"`
	ForceCodeForRefreshToken *bool    `json:"forceCodeForRefreshToken,omitempty" jsonschema:"skip silent restore and always issue a new auth code"`
}

// NoInput is the input schema of tools without arguments.
type NoInput struct{}

// Empty is the result of operations that carry no data.
type Empty struct{}

// SignInOutput is the output schema for the signIn tool. Exactly one of
// Result and Error is set.
type SignInOutput struct {
	Result *domain.SessionResult `json:"result,omitempty"`
	Error  *domain.CallError     `json:"error,omitempty"`
}

// RefreshOutput is the output schema for the refresh tool.
type RefreshOutput struct {
	Result *domain.AuthTokens `json:"result,omitempty"`
	Error  *domain.CallError  `json:"error,omitempty"`
}

// EmptyOutput is the output schema for initialize and signOut.
type EmptyOutput struct {
	Result *Empty            `json:"result,omitempty"`
	Error  *domain.CallError `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "initialize",
		Description: "Replace the sign-in configuration. Omitted scopes and force flag reset to their defaults.",
	}, s.handleInitialize)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "signIn",
		Description: "Restore the previous Google session or sign in interactively in the browser",
	}, s.handleSignIn)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "refresh",
		Description: "Return fresh tokens for the signed-in user",
	}, s.handleRefresh)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "signOut",
		Description: "Sign out and clear the cached session",
	}, s.handleSignOut)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report the sign-in state and effective configuration",
	}, s.handleStatus)
}

func (s *Server) handleInitialize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InitializeInput,
) (*mcp.CallToolResult, EmptyOutput, error) {
	opts := domain.InitializeOptions{
		ClientID:                 input.ClientID,
		IOSClientID:              input.IOSClientID,
		ServerClientID:           input.ServerClientID,
		Scopes:                   input.Scopes,
		ForceCodeForRefreshToken: input.ForceCodeForRefreshToken,
	}
	if err := s.ports.Session.Initialize(ctx, opts); err != nil {
		return nil, EmptyOutput{Error: callError(err)}, nil
	}
	return nil, EmptyOutput{Result: &Empty{}}, nil
}

// handleSignIn waits for the sign-in handle. If the request is cancelled
// the wait stops, but the sign-in itself keeps running.
func (s *Server) handleSignIn(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, SignInOutput, error) {
	result, err := s.ports.Session.SignIn(ctx).Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, SignInOutput{}, err
		}
		return nil, SignInOutput{Error: callError(err)}, nil
	}
	return nil, SignInOutput{Result: &result}, nil
}

func (s *Server) handleRefresh(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, RefreshOutput, error) {
	tokens, err := s.ports.Session.Refresh(ctx).Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, RefreshOutput{}, err
		}
		return nil, RefreshOutput{Error: callError(err)}, nil
	}
	return nil, RefreshOutput{Result: &tokens}, nil
}

// handleSignOut resolves as soon as the clear is dispatched.
func (s *Server) handleSignOut(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, EmptyOutput, error) {
	s.ports.Session.SignOut(ctx)
	return nil, EmptyOutput{Result: &Empty{}}, nil
}

func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, domain.SessionStatus, error) {
	return nil, s.ports.Session.Status(), nil
}

func callError(err error) *domain.CallError {
	var cerr *domain.CallError
	if errors.As(err, &cerr) {
		return cerr
	}
	return &domain.CallError{Message: err.Error()}
}
