package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Profile holds the basic profile of a signed-in account.
// Empty fields were not provided by the identity provider.
type Profile struct {
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	// PictureURL is the provider's avatar URL as returned, without sizing.
	PictureURL string `json:"picture,omitempty"`
}

// sizeSuffix matches the sizing directive Google appends to avatar URLs
// (for example "=s96-c").
var sizeSuffix = regexp.MustCompile(`=[swh]\d+[^/]*$`)

// ImageURL returns the avatar URL requested at a square dimension.
// The second return value is false when the profile has no image.
func (p *Profile) ImageURL(dimension int) (string, bool) {
	if p == nil || p.PictureURL == "" {
		return "", false
	}
	u, err := url.Parse(p.PictureURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	base := sizeSuffix.ReplaceAllString(u.Path, "")
	if strings.HasSuffix(base, "/photo.jpg") {
		// Legacy avatar URLs carry sizing as a query parameter.
		q := u.Query()
		q.Set("sz", fmt.Sprint(dimension))
		u.RawQuery = q.Encode()
		return u.String(), true
	}
	u.Path = fmt.Sprintf("%s=s%d", base, dimension)
	u.RawPath = ""
	return u.String(), true
}

// Authentication is the token set of the current session.
type Authentication struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
}

// User is a signed-in account as reported by the identity provider.
type User struct {
	// UserID is the stable account identifier. Empty if unknown.
	UserID string
	// ServerAuthCode is a one-time code for the configured server client.
	// Empty unless a server client id was configured.
	ServerAuthCode string
	// Profile is nil when the provider returned no profile data.
	Profile *Profile
	// GrantedScopes are the scopes the account has consented to.
	GrantedScopes []string
	// Authentication holds the current tokens.
	Authentication Authentication
}
