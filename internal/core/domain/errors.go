package domain

import (
	"errors"
	"strconv"
)

// Domain errors represent session lifecycle failures.
// These are distinct from provider errors.
var (
	// ErrNoClientID indicates no client id could be resolved from any static source.
	ErrNoClientID = errors.New("no client id found in config")

	// ErrNotConfigured indicates an operation was attempted before a client id was known.
	ErrNotConfigured = errors.New("sign-in is not configured: no client id")

	// ErrNotSignedIn indicates an operation needs a signed-in user.
	// The message is part of the host contract.
	ErrNotSignedIn = errors.New("User not logged in.")

	// ErrMalformedRedirect indicates a redirect notification without a usable url.
	ErrMalformedRedirect = errors.New("malformed redirect notification")

	// ErrClosed indicates the session controller has been shut down.
	ErrClosed = errors.New("session controller closed")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// FallbackErrorMessage is used when a provider failure carries no description.
const FallbackErrorMessage = "Something went wrong."

// ProviderErrorCode mirrors the error codes a native sign-in SDK reports.
type ProviderErrorCode int

const (
	// CodeUnknown is an unclassified failure.
	CodeUnknown ProviderErrorCode = -1
	// CodeKeychain indicates the session cache could not be read or written.
	CodeKeychain ProviderErrorCode = -2
	// CodeHasNoAuthInKeychain indicates there is no previous session to restore.
	CodeHasNoAuthInKeychain ProviderErrorCode = -4
	// CodeCanceled indicates the user cancelled the consent flow.
	CodeCanceled ProviderErrorCode = -5
	// CodeEMM indicates an enterprise policy error.
	CodeEMM ProviderErrorCode = -6
	// CodeScopesAlreadyGranted indicates every requested scope was already granted.
	CodeScopesAlreadyGranted ProviderErrorCode = -8
	// CodeMismatchWithCurrentUser indicates the account that consented differs from the current one.
	CodeMismatchWithCurrentUser ProviderErrorCode = -9
)

// String returns the decimal code as sent to the host.
func (c ProviderErrorCode) String() string {
	return strconv.Itoa(int(c))
}

// ProviderError is a failure reported by the identity provider.
type ProviderError struct {
	Code        ProviderErrorCode
	Description string
	Err         error
}

// NewProviderError creates a provider error wrapping an optional cause.
func NewProviderError(code ProviderErrorCode, description string, cause error) *ProviderError {
	return &ProviderError{Code: code, Description: description, Err: cause}
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return FallbackErrorMessage
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrorCodeOf returns the provider code carried by err, or CodeUnknown.
// A CallError carries the code in its decimal form.
func ErrorCodeOf(err error) ProviderErrorCode {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Code
	}
	var cerr *CallError
	if errors.As(err, &cerr) && cerr.Code != "" {
		if code, convErr := strconv.Atoi(cerr.Code); convErr == nil {
			return ProviderErrorCode(code)
		}
	}
	return CodeUnknown
}

// IsCanceled returns true if err reports a user-cancelled consent flow.
func IsCanceled(err error) bool {
	return ErrorCodeOf(err) == CodeCanceled
}

// CallError is the rejection payload sent to the host.
type CallError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *CallError) Error() string {
	if e.Code != "" {
		return e.Message + " (code " + e.Code + ")"
	}
	return e.Message
}
