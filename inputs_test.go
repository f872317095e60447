package auth_test

import (
	"testing"

	auth "github.com/filevault/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestLoginInputValidate(t *testing.T) {
	assert.NoError(t, auth.LoginInput{Email: "a@b.com", Password: "pw"}.Validate())
	assert.Error(t, auth.LoginInput{Password: "pw"}.Validate())
	assert.Error(t, auth.LoginInput{Email: "a@b.com"}.Validate())
	assert.Error(t, auth.LoginInput{}.Validate())
}

func TestRegisterInputValidate(t *testing.T) {
	valid := auth.RegisterInput{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Password:        "long-enough-password",
		ConfirmPassword: "long-enough-password",
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("bad email", func(t *testing.T) {
		input := valid
		input.Email = "not-an-email"
		assert.Error(t, input.Validate())
	})

	t.Run("short password", func(t *testing.T) {
		input := valid
		input.Password = "seven77"
		input.ConfirmPassword = "seven77"
		assert.Error(t, input.Validate())
	})

	t.Run("eight characters is enough", func(t *testing.T) {
		input := valid
		input.Password = "eight888"
		input.ConfirmPassword = "eight888"
		assert.NoError(t, input.Validate())
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		input := valid
		input.ConfirmPassword = "different-password"
		assert.Error(t, input.Validate())
	})

	t.Run("optional phone", func(t *testing.T) {
		input := valid
		input.Phone = "+12125551234"
		assert.NoError(t, input.Validate())

		input.Phone = "not a number"
		assert.Error(t, input.Validate())
	})
}

func TestChangePasswordInputValidate(t *testing.T) {
	assert.NoError(t, auth.ChangePasswordInput{Current: "old-password", Next: "new-password"}.Validate())
	assert.Error(t, auth.ChangePasswordInput{Next: "new-password"}.Validate())
	assert.Error(t, auth.ChangePasswordInput{Current: "old-password", Next: "short"}.Validate())
}

func TestResetPasswordInputValidate(t *testing.T) {
	assert.NoError(t, auth.ResetPasswordInput{Token: "t", NewPassword: "long-enough"}.Validate())
	assert.Error(t, auth.ResetPasswordInput{NewPassword: "long-enough"}.Validate())
	assert.Error(t, auth.ResetPasswordInput{Token: "t", NewPassword: "short"}.Validate())
}
