package domain

import "slices"

// Static configuration keys read at load time.
const (
	ConfigKeyClientID       = "clientId"
	ConfigKeyIOSClientID    = "iosClientId"
	ConfigKeyServerClientID = "serverClientId"
	ConfigKeyScopes         = "scopes"
	ConfigKeyForceAuthCode  = "forceCodeForRefreshToken"
)

// Adapter configuration keys. These never reach EffectiveConfig.
const (
	// ConfigKeyClientSecret is the installed-app client secret sent to the token endpoint.
	ConfigKeyClientSecret = "clientSecret"
	// ConfigKeyDescriptor is the path of the provider-services descriptor file.
	ConfigKeyDescriptor = "descriptor"
)

// DescriptorClientIDKey is the client id field of a bundled provider-services descriptor.
const DescriptorClientIDKey = "CLIENT_ID"

// DefaultGrantedScopes are granted by every interactive sign-in and never
// need a separate escalation step.
var DefaultGrantedScopes = []string{"email", "profile", "openid"}

// EffectiveConfig is the configuration a session runs with after all
// override rules have been applied.
type EffectiveConfig struct {
	// ClientID is the OAuth client used for sign-in. Always set on a resolved config.
	ClientID string `json:"clientId" toml:"clientId"`
	// ServerClientID is the backend client that server auth codes are minted for.
	// Empty means absent.
	ServerClientID string `json:"serverClientId,omitempty" toml:"serverClientId,omitempty"`
	// RequestedScopes is the scope list as configured, in order.
	RequestedScopes []string `json:"scopes" toml:"scopes"`
	// ForceAuthCode skips silent restore so a fresh auth code is always issued.
	ForceAuthCode bool `json:"forceCodeForRefreshToken" toml:"forceCodeForRefreshToken"`
}

// HasServerClientID reports whether a backend client is configured.
func (c EffectiveConfig) HasServerClientID() bool {
	return c.ServerClientID != ""
}

// Clone returns a copy that shares no slices with c.
func (c EffectiveConfig) Clone() EffectiveConfig {
	c.RequestedScopes = slices.Clone(c.RequestedScopes)
	return c
}

// InitializeOptions carries a runtime override. Nil pointers mean the
// option was not supplied in the call.
type InitializeOptions struct {
	ClientID                 *string  `json:"clientId,omitempty"`
	IOSClientID              *string  `json:"iosClientId,omitempty"`
	ServerClientID           *string  `json:"serverClientId,omitempty"`
	Scopes                   []string `json:"scopes,omitempty"`
	ForceCodeForRefreshToken *bool    `json:"forceCodeForRefreshToken,omitempty"`
}
