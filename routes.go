package auth

import "strings"

// Screen identifies which top-level screen the dashboard shell should mount.
type Screen string

const (
	ScreenLoading        Screen = "loading"
	ScreenVerifyEmail    Screen = "verify-email"
	ScreenLogin          Screen = "login"
	ScreenRegister       Screen = "register"
	ScreenForgotPassword Screen = "forgot-password"
	ScreenShell          Screen = "app-shell"
)

// ScreenRoutes holds the URL paths with routing significance. Only the email
// verification path matters to screen selection; everything else follows
// AuthState.
type ScreenRoutes struct {
	VerifyEmail string
}

// DefaultScreenRoutes returns the paths the vault backend links in its
// verification emails.
func DefaultScreenRoutes() *ScreenRoutes {
	return &ScreenRoutes{
		VerifyEmail: "/verify-email",
	}
}

// Select is a pure function from (AuthState, currentPath) to a screen.
// Precedence: the email verification path always wins, even while
// authenticated; then the initializing indicator; then the app shell; else
// the entry screen the sub-mode names.
func (r *ScreenRoutes) Select(state AuthState, path string) Screen {
	if normalizePath(path) == normalizePath(r.VerifyEmail) {
		return ScreenVerifyEmail
	}

	switch state.Phase {
	case PhaseInitializing:
		return ScreenLoading
	case PhaseAuthenticated:
		return ScreenShell
	}

	switch state.Mode {
	case ModeRegistering:
		return ScreenRegister
	case ModeRecoveringPassword:
		return ScreenForgotPassword
	default:
		return ScreenLogin
	}
}

// SelectScreen applies the default routes.
func SelectScreen(state AuthState, path string) Screen {
	return DefaultScreenRoutes().Select(state, path)
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
