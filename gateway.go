package auth

import (
	"context"
)

// AuthResult is the normalized payload of credential exchanges. Token is only
// present on login and on the registration bootstrap path, where the backend
// decided to auto-verify the account. The condition behind that decision is
// the backend's policy; the client never infers it.
type AuthResult struct {
	User  UserRecord `json:"user"`
	Token string     `json:"token,omitempty"`
}

// UserPatch is the shallow profile update shape. Nil fields are left
// untouched by the backend. The password pair rides the same operation the
// way the profile form does.
type UserPatch struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Avatar          *string `json:"avatar,omitempty"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
}

// Gateway is the only caller of the backend auth operations. Implementations
// return normalized results or rich errors carrying the backend's
// human-readable message for the classifier.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	GetMe(ctx context.Context) (*UserRecord, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*UserRecord, error)
}
