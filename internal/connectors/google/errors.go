package google

import (
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// Descriptions reported with provider errors.
const (
	msgCanceled             = "The user canceled the sign-in flow."
	msgHasNoAuth            = "The user has never signed in before, or they have since signed out."
	msgSessionCache         = "A problem reading or writing to the session cache."
	msgEMM                  = "Sign-in was blocked by an enterprise policy."
	msgScopesAlreadyGranted = "The requested scopes have already been granted to the current user."
	msgMismatch             = "The requested user does not match the current user."
	msgNoCurrentUser        = "There is no signed-in user."
	msgCallbackTimeout      = "Timed out waiting for the sign-in redirect."
	msgNoCode               = "No authorization code was received."
	msgNotAwaited           = "The sign-in has not finished yet."
	msgUnknownConsent       = "The sign-in request does not belong to this provider."
)

// OAuth error codes Google reports on the redirect or the token endpoint.
const (
	errAccessDenied        = "access_denied"
	errAdminPolicy         = "admin_policy_enforced"
	errOrgInternal         = "org_internal"
	errInvalidGrant        = "invalid_grant"
	errRateLimitedEndpoint = "rate_limit_exceeded"
)

// ErrRateLimited indicates Google rejected a request with 429.
var ErrRateLimited = errors.New("google: rate limit exceeded")

// IsInvalidGrant returns true if a token request failed because the grant
// (authorization code or refresh token) is invalid, expired or revoked.
func IsInvalidGrant(err error) bool {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return rerr.ErrorCode == errInvalidGrant
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.ErrorCode == errRateLimitedEndpoint {
			return true
		}
		return rerr.Response != nil && rerr.Response.StatusCode == http.StatusTooManyRequests
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}

// IsUnauthorized returns true if an API call was rejected for invalid credentials.
func IsUnauthorized(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized
	}
	return false
}

// retryAfter returns the Retry-After seconds of a rate limited token
// response, or 0 when unknown.
func retryAfter(err error) int {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) || rerr.Response == nil {
		return 0
	}
	seconds, convErr := strconv.Atoi(rerr.Response.Header.Get("Retry-After"))
	if convErr != nil {
		return 0
	}
	return seconds
}

// authorizationError converts an error reported on the redirect into a
// provider error.
func authorizationError(code, description string) *domain.ProviderError {
	switch code {
	case errAccessDenied:
		return domain.NewProviderError(domain.CodeCanceled, msgCanceled, nil)
	case errAdminPolicy, errOrgInternal:
		return domain.NewProviderError(domain.CodeEMM, msgEMM, nil)
	}
	if description == "" {
		description = code
	}
	return domain.NewProviderError(domain.CodeUnknown, description, nil)
}

// tokenError converts a token endpoint failure into a provider error.
func tokenError(err error) *domain.ProviderError {
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return perr
	}

	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return domain.NewProviderError(domain.CodeUnknown, "", err)
	}
	switch rerr.ErrorCode {
	case errAdminPolicy, errOrgInternal:
		return domain.NewProviderError(domain.CodeEMM, msgEMM, err)
	}
	return domain.NewProviderError(domain.CodeUnknown, rerr.ErrorDescription, err)
}

// refreshError converts a failed refresh into a provider error. A rejected
// refresh token means the cached session can no longer be used.
func refreshError(err error) *domain.ProviderError {
	if IsInvalidGrant(err) {
		return domain.NewProviderError(domain.CodeHasNoAuthInKeychain, msgHasNoAuth, err)
	}
	return tokenError(err)
}

// cacheError converts a session cache failure into a provider error.
func cacheError(err error) *domain.ProviderError {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewProviderError(domain.CodeHasNoAuthInKeychain, msgHasNoAuth, err)
	}
	return domain.NewProviderError(domain.CodeKeychain, msgSessionCache, err)
}
