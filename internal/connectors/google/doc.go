// Package google implements the identity provider for Google sign-in.
//
// The provider runs the OAuth 2.0 authorization code flow for installed
// applications: it presents Google's consent page, waits for the loopback
// redirect to be handed back through HandleURL, and exchanges the code with
// PKCE. It then keeps the resulting session in a driven.SessionCache so that
// later runs can restore it silently.
//
// # Scopes
//
// An interactive sign-in only asks for the default-granted scopes:
//   - openid
//   - email
//   - profile
//
// Anything else is requested afterwards with AddScopes, which performs an
// incremental grant (include_granted_scopes=true) for the current account.
//
// # Server auth codes
//
// When a server client id is configured, the code exchange carries an
// audience parameter and Google returns a one-time server_code that the
// host can pass to its backend.
//
// # Profiles
//
// Profile fields come from the id_token claims when present. The claims are
// read without signature verification and are only used for display.
// Otherwise the userinfo API is queried.
package google
