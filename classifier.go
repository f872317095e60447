package auth

import (
	"errors"
	"strings"
)

// Classification is the fixed taxonomy for remote auth failures. Every raw
// backend message resolves to exactly one entry, with ClassificationGeneric
// as the default.
type Classification string

const (
	ClassificationBadCredentials        Classification = "bad_credentials"
	ClassificationAccountDeactivated    Classification = "account_deactivated"
	ClassificationEmailUnverified       Classification = "email_unverified"
	ClassificationAdminOnlyRegistration Classification = "admin_only_registration"
	ClassificationDuplicateAccount      Classification = "duplicate_account"
	ClassificationGeneric               Classification = "generic"
)

// RecoveryActionID names a recovery path the UI can offer.
type RecoveryActionID string

const (
	RecoveryRetry              RecoveryActionID = "retry"
	RecoveryForgotPassword     RecoveryActionID = "forgot_password"
	RecoveryResendVerification RecoveryActionID = "resend_verification"
	RecoveryRetryLogin         RecoveryActionID = "retry_login"
	RecoveryGoToLogin          RecoveryActionID = "go_to_login"
	RecoveryDifferentEmail     RecoveryActionID = "use_different_email"
	RecoveryContactSupport     RecoveryActionID = "contact_support"
	RecoveryNone               RecoveryActionID = ""
)

// Presentation hints how the UI should surface the failure. The classifier
// returns data; the presentation layer decides the actual rendering.
type Presentation string

const (
	PresentInline Presentation = "inline"
	PresentDialog Presentation = "dialog"
)

// Recovery is the suggested recovery path attached to a classification.
type Recovery struct {
	Primary      RecoveryActionID
	Secondary    RecoveryActionID
	Presentation Presentation
}

// ClassifiedError wraps a raw gateway failure with its taxonomy entry so the
// caller keeps the error chain and never string-matches the message itself.
type ClassifiedError struct {
	Classification Classification
	Recovery       Recovery
	Message        string
	cause          error
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// classifierPatterns is evaluated in order; first substring hit wins.
var classifierPatterns = []struct {
	needle string
	class  Classification
}{
	{"invalid credentials", ClassificationBadCredentials},
	{"account is deactivated", ClassificationAccountDeactivated},
	{"email not verified", ClassificationEmailUnverified},
	{"admin privileges required", ClassificationAdminOnlyRegistration},
	{"user already exists", ClassificationDuplicateAccount},
}

// recoveries maps each taxonomy entry to its suggested recovery path.
var recoveries = map[Classification]Recovery{
	ClassificationBadCredentials: {
		Primary:      RecoveryRetry,
		Secondary:    RecoveryForgotPassword,
		Presentation: PresentDialog,
	},
	ClassificationAccountDeactivated: {
		Primary:      RecoveryContactSupport,
		Presentation: PresentDialog,
	},
	ClassificationEmailUnverified: {
		Primary:      RecoveryResendVerification,
		Secondary:    RecoveryRetryLogin,
		Presentation: PresentDialog,
	},
	ClassificationAdminOnlyRegistration: {
		Primary:      RecoveryNone,
		Presentation: PresentDialog,
	},
	ClassificationDuplicateAccount: {
		Primary:      RecoveryGoToLogin,
		Secondary:    RecoveryDifferentEmail,
		Presentation: PresentDialog,
	},
	ClassificationGeneric: {
		Primary:      RecoveryNone,
		Presentation: PresentInline,
	},
}

// Classify maps a raw backend message onto the taxonomy. It is pure and
// total: unknown messages fall through to ClassificationGeneric.
func Classify(message string) Classification {
	lowered := strings.ToLower(message)
	for _, p := range classifierPatterns {
		if strings.Contains(lowered, p.needle) {
			return p.class
		}
	}
	return ClassificationGeneric
}

// RecoveryFor returns the suggested recovery path for a classification.
func RecoveryFor(c Classification) Recovery {
	if r, ok := recoveries[c]; ok {
		return r
	}
	return recoveries[ClassificationGeneric]
}

// ClassifyError runs a remote failure through the taxonomy once, preserving
// the cause chain. Nil in, nil out.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return err
	}

	class := Classify(err.Error())
	return &ClassifiedError{
		Classification: class,
		Recovery:       RecoveryFor(class),
		Message:        err.Error(),
		cause:          err,
	}
}
