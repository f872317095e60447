package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeValidation marks local validation failures raised before any
	// network call.
	TextCodeValidation = "AUTH_VALIDATION"
	// TextCodeNotAuthenticated marks operations that require a session.
	TextCodeNotAuthenticated = "NOT_AUTHENTICATED"
	// TextCodeUnauthorized marks remote rejections of the bearer token.
	TextCodeUnauthorized = "UNAUTHORIZED"
	// TextCodeGatewayFailure marks remote failures other than 401s.
	TextCodeGatewayFailure = "GATEWAY_FAILURE"
)

// ErrNotAuthenticated is returned by operations that require an active session.
var ErrNotAuthenticated = goerrors.New("no active session", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmptyCredentials is returned when login is attempted with a blank email
// or password.
var ErrEmptyCredentials = goerrors.New("email and password are required", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordMismatch is returned when password and confirmation differ.
var ErrPasswordMismatch = goerrors.New("password and confirmation do not match", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordTooShort is returned when a new password is under the minimum
// length.
var ErrPasswordTooShort = goerrors.New("password must be at least 8 characters", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidUserRecord is returned when the backend user payload cannot be
// mapped into a Session.
var ErrInvalidUserRecord = goerrors.New("user record is missing required fields", goerrors.CategoryBadInput).
	WithTextCode("INVALID_USER_RECORD")

// validationError wraps an ozzo-validation result into the local validation
// tier so callers can branch with IsValidationError.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid input").
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest)
}

// IsValidationError reports whether err belongs to the local validation tier
// (raised before any network call, always rendered inline).
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryValidation
	}
	return false
}

// IsNotAuthenticated reports whether err means the operation needed a session
// that does not exist.
func IsNotAuthenticated(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == TextCodeNotAuthenticated
	}
	return false
}

// IsUnauthorized reports whether err is a remote rejection of the bearer
// token; the manager treats these as "the token is no longer valid".
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == TextCodeUnauthorized
	}
	return false
}
