package auth_test

import (
	"testing"

	auth "github.com/filevault/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestSelectScreen(t *testing.T) {
	loggingIn := auth.AuthState{Phase: auth.PhaseUnauthenticated, Mode: auth.ModeLoggingIn}
	registering := auth.AuthState{Phase: auth.PhaseUnauthenticated, Mode: auth.ModeRegistering}
	recovering := auth.AuthState{Phase: auth.PhaseUnauthenticated, Mode: auth.ModeRecoveringPassword}
	authenticated := auth.AuthState{Phase: auth.PhaseAuthenticated}
	initializing := auth.InitialAuthState()

	tests := []struct {
		name     string
		state    auth.AuthState
		path     string
		expected auth.Screen
	}{
		{"verification path wins over everything", authenticated, "/verify-email", auth.ScreenVerifyEmail},
		{"verification path wins while initializing", initializing, "/verify-email", auth.ScreenVerifyEmail},
		{"verification path tolerates trailing slash", loggingIn, "/verify-email/", auth.ScreenVerifyEmail},
		{"initializing shows loading", initializing, "/", auth.ScreenLoading},
		{"authenticated shows the shell", authenticated, "/files", auth.ScreenShell},
		{"logging in shows login", loggingIn, "/", auth.ScreenLogin},
		{"registering shows register", registering, "/", auth.ScreenRegister},
		{"recovering shows forgot password", recovering, "/", auth.ScreenForgotPassword},
		{"empty path is not the verification path", loggingIn, "", auth.ScreenLogin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, auth.SelectScreen(tc.state, tc.path))
		})
	}
}

func TestScreenRoutesCustomPath(t *testing.T) {
	routes := &auth.ScreenRoutes{VerifyEmail: "/account/confirm"}

	state := auth.AuthState{Phase: auth.PhaseAuthenticated}
	assert.Equal(t, auth.ScreenVerifyEmail, routes.Select(state, "/account/confirm"))
	assert.Equal(t, auth.ScreenShell, routes.Select(state, "/verify-email"))
}
