// Package domain defines the core entities for gsignin.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - EffectiveConfig: The client configuration a session runs with
//   - User: A signed-in Google account as seen by the identity provider
//   - SessionResult / AuthTokens: The stable records handed back to the host
//   - Call: A request-scoped result handle for asynchronous operations
//   - Notification: A redirect event delivered by the host platform
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
