// Package mcp provides an MCP (Model Context Protocol) server adapter for gsignin.
// It exposes the sign-in bridge operations as tools so a host application can
// drive Google sign-in over stdio or HTTP.
package mcp

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("mcp: session service is required")
