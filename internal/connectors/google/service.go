package google

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// idTokenClaims are the OpenID Connect claims Google puts in an id_token.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// parseIDToken reads the claims of an id_token without verifying its
// signature. The claims are only used to display profile data.
func parseIDToken(raw string) (*idTokenClaims, error) {
	claims := &idTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parse id token: %w", err)
	}
	return claims, nil
}

// profile returns the profile carried by the claims, or nil if the token
// was issued without the profile and email scopes.
func (c *idTokenClaims) profile() *domain.Profile {
	if c.Email == "" && c.Name == "" {
		return nil
	}
	return &domain.Profile{
		Email:      c.Email,
		Name:       c.Name,
		GivenName:  c.GivenName,
		FamilyName: c.FamilyName,
		PictureURL: c.Picture,
	}
}

// NewUserInfoService creates an OAuth2 API service using the provided
// TokenSource. endpoint overrides the API base URL when not empty.
// httpClient, when not nil, is used as the transport under the token source.
func NewUserInfoService(
	ctx context.Context,
	ts oauth2.TokenSource,
	endpoint string,
	httpClient *http.Client,
) (*oauth2api.Service, error) {
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		opts = []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return oauth2api.NewService(ctx, opts...)
}

// GetUserInfo fetches the account id and profile of the token's owner.
func GetUserInfo(ctx context.Context, svc *oauth2api.Service) (string, *domain.Profile, error) {
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("fetch user info: %w", err)
	}

	return info.Id, &domain.Profile{
		Email:      info.Email,
		Name:       info.Name,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		PictureURL: info.Picture,
	}, nil
}
