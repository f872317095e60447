package auth

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/nyaruka/phonenumbers"
)

// LoginInput is the login form payload. RememberMe controls the remembered
// email only; the password is never persisted in any form.
type LoginInput struct {
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

// Validate runs the local validation tier: both fields non-empty. Anything
// further (does the account exist, is the password right) is the backend's
// verdict.
func (r LoginInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterInput is the registration form payload. Phone is optional; when
// set it must parse as a real number.
type RegisterInput struct {
	FirstName       string `json:"first_name" form:"first_name"`
	LastName        string `json:"last_name" form:"last_name"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone_number,omitempty" form:"phone_number"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Validate enforces the preconditions that never reach the gateway:
// required fields, a well-formed email, password of at least 8 characters,
// and a byte-equal confirmation.
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.By(optionalPhone)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 200)),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.By(r.confirmMatches)),
	)
}

func (r RegisterInput) confirmMatches(value any) error {
	confirm, _ := value.(string)
	if confirm != r.Password {
		return ErrPasswordMismatch
	}
	return nil
}

func optionalPhone(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	parsed, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return err
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return validation.NewError("validation_phone", "must be a valid phone number")
	}
	return nil
}

// wirePayload strips the confirmation before the payload goes on the wire;
// the backend only ever sees one password.
func (r RegisterInput) wirePayload() map[string]any {
	payload := map[string]any{
		"first_name": r.FirstName,
		"last_name":  r.LastName,
		"email":      r.Email,
		"password":   r.Password,
	}
	if r.Phone != "" {
		payload["phone_number"] = r.Phone
	}
	return payload
}

// ChangePasswordInput is the password change payload for a logged-in user.
type ChangePasswordInput struct {
	Current string `json:"current_password" form:"current_password"`
	Next    string `json:"new_password" form:"new_password"`
}

// Validate requires both values and the minimum length on the new password.
func (r ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Current, validation.Required),
		validation.Field(&r.Next, validation.Required, validation.Length(8, 200)),
	)
}

// ResetPasswordInput finalizes a forgot-password flow.
type ResetPasswordInput struct {
	Token       string `json:"token" form:"token"`
	NewPassword string `json:"password" form:"password"`
}

// Validate requires the reset token and the minimum password length.
func (r ResetPasswordInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 200)),
	)
}
