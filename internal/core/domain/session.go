package domain

// SessionState is a state of the session lifecycle.
type SessionState string

const (
	// StateUnconfigured means no client id is known. Sign-in fails fast.
	StateUnconfigured SessionState = "unconfigured"
	// StateIdle means the module is configured but nobody is signed in.
	StateIdle SessionState = "idle"
	// StateSigningIn means a restore or an interactive sign-in is running.
	StateSigningIn SessionState = "signing_in"
	// StateScopeEscalating means additional scopes are being requested.
	StateScopeEscalating SessionState = "scope_escalating"
	// StateSignedIn means a user session is established.
	StateSignedIn SessionState = "signed_in"
)

// AuthTokens is the token record handed back to the host. It is also the
// result of a refresh call.
type AuthTokens struct {
	AccessToken string `json:"accessToken"`
	// IDToken is serialised as null when the provider issued none.
	IDToken      *string `json:"idToken"`
	RefreshToken string  `json:"refreshToken"`
}

// SessionResult is the record produced by every successful sign-in or
// restore. It is never cached.
//
// Nullable fields serialise as an explicit null. ImageURL is the one field
// that is omitted entirely when unavailable.
type SessionResult struct {
	Authentication AuthTokens `json:"authentication"`
	ServerAuthCode *string    `json:"serverAuthCode"`
	Email          *string    `json:"email"`
	FamilyName     *string    `json:"familyName"`
	GivenName      *string    `json:"givenName"`
	ID             *string    `json:"id"`
	Name           *string    `json:"name"`
	ImageURL       string     `json:"imageUrl,omitempty"`
}

// SessionStatus is a point-in-time view of the session controller.
type SessionStatus struct {
	State            SessionState     `json:"state"`
	Config           *EffectiveConfig `json:"config,omitempty"`
	AdditionalScopes []string         `json:"additionalScopes"`
	SignedIn         bool             `json:"signedIn"`
	// PendingSignIn is the id of the newest sign-in call still outstanding.
	PendingSignIn string `json:"pendingSignIn,omitempty"`
}
