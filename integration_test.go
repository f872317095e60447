package auth_test

import (
	"context"
	"net"
	"testing"
	"time"

	auth "github.com/filevault/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs the full lifecycle against the in-process dev backend over a real
// listener: bootstrap registration, logout, login with remember-me, silent
// restore in a fresh manager, profile update, password change.
func TestFullLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	server := auth.NewDevServer()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = server.Serve(ln)
	}()
	defer server.Shutdown()

	store := auth.NewMemoryCredentialStore()
	gateway := auth.NewHTTPGateway(
		"http://"+ln.Addr().String(),
		auth.WithTokenProvider(store),
	)
	manager := auth.NewManager(gateway, store)

	require.NoError(t, manager.Restore(ctx))
	require.Equal(t, auth.ScreenLogin, auth.SelectScreen(manager.State(), "/"))

	// bootstrap registration authenticates immediately
	session, err := manager.Register(ctx, auth.RegisterInput{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Password:        "correct-horse-battery",
		ConfirmPassword: "correct-horse-battery",
	})
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, auth.RoleSuperAdmin, session.Role)
	assert.True(t, manager.HasPermission(auth.PermissionDeleteUsers))
	assert.Equal(t, auth.ScreenShell, auth.SelectScreen(manager.State(), "/files"))

	// a second registration is pending verification
	pending, err := manager.Register(ctx, auth.RegisterInput{
		FirstName:       "Grace",
		LastName:        "Hopper",
		Email:           "grace@example.com",
		Password:        "long-enough-password",
		ConfirmPassword: "long-enough-password",
	})
	require.NoError(t, err)
	assert.Nil(t, pending)

	require.NoError(t, manager.Logout(ctx))
	assert.False(t, manager.IsAuthenticated())

	// wrong password classifies as bad credentials
	_, err = manager.Login(ctx, auth.LoginInput{Email: "ada@example.com", Password: "wrong-password"})
	var classified *auth.ClassifiedError
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, auth.ClassificationBadCredentials, classified.Classification)

	// unverified account classifies as email unverified
	_, err = manager.Login(ctx, auth.LoginInput{Email: "grace@example.com", Password: "long-enough-password"})
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, auth.ClassificationEmailUnverified, classified.Classification)

	_, err = manager.Login(ctx, auth.LoginInput{
		Email:      "ada@example.com",
		Password:   "correct-horse-battery",
		RememberMe: true,
	})
	require.NoError(t, err)

	remembered, err := manager.RememberedEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", remembered)

	// a fresh manager over the same store restores silently
	fresh := auth.NewManager(gateway, store)
	require.NoError(t, fresh.Restore(ctx))
	require.True(t, fresh.IsAuthenticated())
	assert.Equal(t, "ada@example.com", fresh.Session().Email)

	name := "Ada King"
	updated, err := fresh.UpdateProfile(ctx, auth.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "King", updated.LastName)

	require.NoError(t, fresh.ChangePassword(ctx, auth.ChangePasswordInput{
		Current: "correct-horse-battery",
		Next:    "even-better-password",
	}))

	require.NoError(t, fresh.Logout(ctx))
	_, err = fresh.Login(ctx, auth.LoginInput{Email: "ada@example.com", Password: "even-better-password"})
	require.NoError(t, err)
}
