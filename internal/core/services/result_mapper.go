package services

import (
	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// ProfileImageDimension is the square size, in pixels, avatar URLs are requested at.
const ProfileImageDimension = 100

// ResultMapper converts provider objects and errors into the records sent
// to the host.
type ResultMapper struct{}

// NewResultMapper creates a result mapper.
func NewResultMapper() *ResultMapper {
	return &ResultMapper{}
}

// MapUser builds the sign-in result for user.
func (m *ResultMapper) MapUser(user *domain.User) domain.SessionResult {
	result := domain.SessionResult{
		Authentication: m.MapAuthentication(user.Authentication),
		ServerAuthCode: nullable(user.ServerAuthCode),
		ID:             nullable(user.UserID),
	}
	if p := user.Profile; p != nil {
		result.Email = nullable(p.Email)
		result.FamilyName = nullable(p.FamilyName)
		result.GivenName = nullable(p.GivenName)
		result.Name = nullable(p.Name)
		if imageURL, ok := p.ImageURL(ProfileImageDimension); ok {
			result.ImageURL = imageURL
		}
	}
	return result
}

// MapAuthentication builds the token record for auth.
func (m *ResultMapper) MapAuthentication(auth domain.Authentication) domain.AuthTokens {
	return domain.AuthTokens{
		AccessToken:  auth.AccessToken,
		IDToken:      nullable(auth.IDToken),
		RefreshToken: auth.RefreshToken,
	}
}

// Reject converts err into the host rejection payload. The provider code
// is included only when withCode is set.
func (m *ResultMapper) Reject(err error, withCode bool) *domain.CallError {
	message := domain.FallbackErrorMessage
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	callErr := &domain.CallError{Message: message}
	if withCode {
		callErr.Code = domain.ErrorCodeOf(err).String()
	}
	return callErr
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
