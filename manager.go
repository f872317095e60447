package auth

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// Manager is the single authority for the current AuthState and Session. The
// client runs it from a single UI event loop; state reads are still guarded
// so telemetry and tests may observe it from other goroutines. The one
// deliberately concurrent path is Restore, which shares a single in-flight
// round trip between simultaneous callers.
type Manager struct {
	gateway Gateway
	creds   CredentialStore
	logger  Logger
	sink    ActivitySink
	now     Clock
	debug   bool

	mu      sync.RWMutex
	machine *stateMachine
	session *Session

	restoreMu   sync.Mutex
	restoreDone chan struct{}
	restoreErr  error
}

// ManagerOption customizes manager construction.
type ManagerOption func(*Manager)

// WithLogger overrides the logger.
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithActivitySink sets the sink receiving lifecycle events.
func WithActivitySink(sink ActivitySink) ManagerOption {
	return func(m *Manager) {
		m.sink = normalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock Clock) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithDebug enables verbose payload logging.
func WithDebug(debug bool) ManagerOption {
	return func(m *Manager) {
		m.debug = debug
	}
}

// NewManager wires the session manager over a gateway and a credential
// store. The manager starts in PhaseInitializing; call Restore once at
// startup to leave it.
func NewManager(gateway Gateway, creds CredentialStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		gateway: gateway,
		creds:   creds,
		logger:  defLogger{},
		sink:    noopActivitySink{},
		now:     time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	m.machine = newStateMachine(m.logger, m.sink, m.now)

	return m
}

// State returns the current AuthState snapshot.
func (m *Manager) State() AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.machine.current()
}

// Session returns a copy of the current session, or nil while
// unauthenticated.
func (m *Manager) Session() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	copied := *m.session
	return &copied
}

// IsAuthenticated reports whether a valid session is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.machine.current().Phase == PhaseAuthenticated && m.session != nil
}

// HasPermission checks the current session's role against the permission
// table. No session means no permissions.
func (m *Manager) HasPermission(permission Permission) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return false
	}
	return RoleHasPermission(m.session.Role, permission)
}

// Navigate switches between the login, registration, and forgot-password
// entry screens. Explicitly user-initiated; only valid while
// unauthenticated.
func (m *Manager) Navigate(ctx context.Context, mode ScreenMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.machine.navigate(ctx, mode, "user navigation")
}

// Restore attempts silent session restoration from the stored token. It runs
// the underlying round trip at most once per manager: concurrent and repeat
// callers share the first call's result. A failed restoration is not an
// error from the user's point of view; it lands in the login screen and is
// only logged.
func (m *Manager) Restore(ctx context.Context) error {
	m.restoreMu.Lock()
	if m.restoreDone != nil {
		done := m.restoreDone
		m.restoreMu.Unlock()
		select {
		case <-done:
			return m.restoreErr
		case <-ctx.Done():
			return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled while waiting for restore")
		}
	}
	done := make(chan struct{})
	m.restoreDone = done
	m.restoreMu.Unlock()

	m.restoreErr = m.restore(ctx)
	close(done)
	return m.restoreErr
}

func (m *Manager) restore(ctx context.Context) error {
	token, err := m.creds.Token(ctx)
	if err != nil {
		m.logger.Warn("restore could not read stored token: %v", err)
	}

	if token == "" {
		m.logger.Debug("restore found no stored token")
		return m.toUnauthenticated(ctx, "no stored token")
	}

	m.peekTokenExpiry(token)

	m.recordGatewayCall(ctx, "getMe", nil)
	rec, err := m.gateway.GetMe(ctx)
	m.recordGatewayResult(ctx, "getMe", err)
	if err != nil {
		// indistinguishable from never having logged in; log only
		m.logger.Info("restore rejected stored token: %v", err)
		if clearErr := m.creds.ClearToken(ctx); clearErr != nil {
			m.logger.Warn("restore could not clear token: %v", clearErr)
		}
		m.emit(ctx, ActivityEvent{
			EventType: ActivityEventRestoreFailure,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return m.toUnauthenticated(ctx, "token rejected")
	}

	session, err := SessionFromRecord(*rec)
	if err != nil {
		m.logger.Error("restore could not decode user record: %v", err)
		if clearErr := m.creds.ClearToken(ctx); clearErr != nil {
			m.logger.Warn("restore could not clear token: %v", clearErr)
		}
		m.emit(ctx, ActivityEvent{
			EventType: ActivityEventRestoreFailure,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return m.toUnauthenticated(ctx, "invalid user record")
	}

	m.setAuthenticated(ctx, session, "restored session")
	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventRestoreSuccess,
		UserID:    session.ID,
		Email:     session.Email,
	})

	return nil
}

// Login exchanges credentials for a token and a session. On success the
// token is persisted and the state moves to authenticated; on remote
// failure the state does not change and the classified error propagates so
// the caller can render the matching recovery UI. The remembered email is
// written or cleared on behalf of the login surface, strictly by the
// RememberMe toggle; the password is never persisted.
func (m *Manager) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrEmptyCredentials
	}
	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}

	if m.debug {
		m.logger.Debug("login attempt\n%s", print.MaybePrettyJSON(map[string]any{
			"email":       input.Email,
			"remember_me": input.RememberMe,
		}))
	}

	m.recordGatewayCall(ctx, "login", map[string]any{"email": input.Email})
	res, err := m.gateway.Login(ctx, input.Email, input.Password)
	m.recordGatewayResult(ctx, "login", err)
	if err != nil {
		m.emit(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Email:     input.Email,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return nil, ClassifyError(err)
	}

	session, err := m.adoptAuthResult(ctx, res, "login")
	if err != nil {
		return nil, err
	}

	if input.RememberMe {
		if err := m.creds.Set(ctx, credKeyRememberedEmail, input.Email); err != nil {
			m.logger.Warn("could not persist remembered email: %v", err)
		}
	} else {
		if err := m.creds.Remove(ctx, credKeyRememberedEmail); err != nil {
			m.logger.Warn("could not clear remembered email: %v", err)
		}
	}

	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    session.ID,
		Email:     session.Email,
	})

	return session, nil
}

// Register creates an account. The local validation tier (byte-equal
// confirmation, minimum length) rejects before any network call. When the
// backend includes a token in the response it has auto-verified the account
// and the manager authenticates immediately; when it does not, the state
// stays unauthenticated and a nil session signals "check your email".
func (m *Manager) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}

	m.recordGatewayCall(ctx, "register", map[string]any{"email": input.Email})
	res, err := m.gateway.Register(ctx, input)
	m.recordGatewayResult(ctx, "register", err)
	if err != nil {
		m.emit(ctx, ActivityEvent{
			EventType: ActivityEventRegisterFailure,
			Email:     input.Email,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return nil, ClassifyError(err)
	}

	if res.Token == "" {
		// account pending email verification; no state transition
		m.emit(ctx, ActivityEvent{
			EventType: ActivityEventRegisterSuccess,
			Email:     input.Email,
			Metadata:  map[string]any{"pending_verification": true},
		})
		return nil, nil
	}

	session, err := m.adoptAuthResult(ctx, res, "registration bootstrap")
	if err != nil {
		return nil, err
	}

	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		UserID:    session.ID,
		Email:     session.Email,
	})

	return session, nil
}

// Logout ends the session. The backend call is best effort; local logout
// always succeeds and is idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	m.recordGatewayCall(ctx, "logout", nil)
	err := m.gateway.Logout(ctx)
	m.recordGatewayResult(ctx, "logout", err)
	if err != nil {
		m.logger.Warn("logout request failed, proceeding locally: %v", err)
	}

	m.clearSession(ctx, "logout")

	m.emit(ctx, ActivityEvent{EventType: ActivityEventLogout})
	return nil
}

// UpdateProfile shallow-merges the backend's response into the current
// session and refreshes the cached profile copy. AuthState does not change.
func (m *Manager) UpdateProfile(ctx context.Context, patch UserPatch) (*Session, error) {
	current := m.Session()
	if current == nil {
		return nil, ErrNotAuthenticated
	}

	m.recordGatewayCall(ctx, "updateUser", map[string]any{"id": current.ID})
	rec, err := m.gateway.UpdateUser(ctx, current.ID, patch)
	m.recordGatewayResult(ctx, "updateUser", err)
	if err != nil {
		return nil, m.handleRemoteError(ctx, err)
	}

	merged := current.Merge(*rec)

	m.mu.Lock()
	m.session = merged
	m.mu.Unlock()

	m.cacheProfile(ctx, merged)

	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		UserID:    merged.ID,
		Email:     merged.Email,
	})

	copied := *merged
	return &copied, nil
}

// ChangePassword delegates to the user-update operation with the password
// pair. Neither AuthState nor the session change on success.
func (m *Manager) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	current := m.Session()
	if current == nil {
		return ErrNotAuthenticated
	}

	if err := input.Validate(); err != nil {
		return validationError(err)
	}

	patch := UserPatch{
		CurrentPassword: &input.Current,
		NewPassword:     &input.Next,
	}

	m.recordGatewayCall(ctx, "updateUser", map[string]any{"id": current.ID, "password_change": true})
	_, err := m.gateway.UpdateUser(ctx, current.ID, patch)
	m.recordGatewayResult(ctx, "updateUser", err)
	if err != nil {
		return m.handleRemoteError(ctx, err)
	}

	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventPasswordChanged,
		UserID:    current.ID,
		Email:     current.Email,
	})

	return nil
}

// ForgotPassword is stateless with respect to AuthState; it proxies to the
// gateway.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmptyCredentials
	}

	m.recordGatewayCall(ctx, "forgotPassword", map[string]any{"email": email})
	err := m.gateway.ForgotPassword(ctx, email)
	m.recordGatewayResult(ctx, "forgotPassword", err)
	if err != nil {
		return ClassifyError(err)
	}

	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventPasswordResetStart,
		Email:     email,
	})

	return nil
}

// ResetPassword finalizes a forgot-password flow; stateless with respect to
// AuthState.
func (m *Manager) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := input.Validate(); err != nil {
		return validationError(err)
	}

	m.recordGatewayCall(ctx, "resetPassword", nil)
	err := m.gateway.ResetPassword(ctx, input.Token, input.NewPassword)
	m.recordGatewayResult(ctx, "resetPassword", err)
	if err != nil {
		return ClassifyError(err)
	}

	return nil
}

// VerifyEmail proxies the verification token to the gateway.
func (m *Manager) VerifyEmail(ctx context.Context, token string) error {
	m.recordGatewayCall(ctx, "verifyEmail", nil)
	err := m.gateway.VerifyEmail(ctx, token)
	m.recordGatewayResult(ctx, "verifyEmail", err)
	if err != nil {
		return ClassifyError(err)
	}
	return nil
}

// ResendVerification asks the backend for a fresh verification email; it
// backs the EmailUnverified recovery action.
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmptyCredentials
	}

	m.recordGatewayCall(ctx, "resendVerification", map[string]any{"email": email})
	err := m.gateway.ResendVerification(ctx, email)
	m.recordGatewayResult(ctx, "resendVerification", err)
	if err != nil {
		return ClassifyError(err)
	}
	return nil
}

// RememberedEmail returns the persisted remember-me email, if any. Restore
// never consults this value.
func (m *Manager) RememberedEmail(ctx context.Context) (string, error) {
	return m.creds.Get(ctx, credKeyRememberedEmail)
}

// adoptAuthResult persists the token, decodes the session, and enters the
// authenticated phase.
func (m *Manager) adoptAuthResult(ctx context.Context, res *AuthResult, reason string) (*Session, error) {
	session, err := SessionFromRecord(res.User)
	if err != nil {
		return nil, err
	}

	if err := m.creds.SetToken(ctx, res.Token); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not persist token")
	}

	m.setAuthenticated(ctx, session, reason)
	return session, nil
}

func (m *Manager) setAuthenticated(ctx context.Context, session *Session, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session
	if err := m.machine.transition(ctx, PhaseAuthenticated, "", reason); err != nil {
		m.logger.Error("unexpected transition failure: %v", err)
	}
}

// clearSession discards the in-memory session, clears the stored token, and
// lands on the login screen. Safe to call from any phase.
func (m *Manager) clearSession(ctx context.Context, reason string) {
	if err := m.creds.ClearToken(ctx); err != nil {
		m.logger.Warn("could not clear stored token: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	if m.machine.current().Phase == PhaseAuthenticated || m.machine.current().Phase == PhaseInitializing {
		if err := m.machine.transition(ctx, PhaseUnauthenticated, ModeLoggingIn, reason); err != nil {
			m.logger.Error("unexpected transition failure: %v", err)
		}
	}
}

func (m *Manager) toUnauthenticated(ctx context.Context, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	if m.machine.current().Phase != PhaseUnauthenticated {
		if err := m.machine.transition(ctx, PhaseUnauthenticated, ModeLoggingIn, reason); err != nil {
			m.logger.Error("unexpected transition failure: %v", err)
		}
	}
	return nil
}

// handleRemoteError classifies a failure from an authenticated operation,
// first checking whether the backend told us the token is no longer valid.
func (m *Manager) handleRemoteError(ctx context.Context, err error) error {
	if IsUnauthorized(err) {
		m.logger.Info("token no longer valid, logging out locally")
		m.clearSession(ctx, "token invalidated")
	}
	return ClassifyError(err)
}

// cacheProfile persists the merged session copy under the user's profile
// cache key.
func (m *Manager) cacheProfile(ctx context.Context, session *Session) {
	raw, err := json.Marshal(RecordFromSession(session))
	if err != nil {
		m.logger.Warn("could not encode profile cache: %v", err)
		return
	}
	if err := m.creds.Set(ctx, ProfileCacheKey(session.Email), string(raw)); err != nil {
		m.logger.Warn("could not persist profile cache: %v", err)
	}
}

// peekTokenExpiry decodes the stored token without verifying, purely to log
// a useful reason before a doomed round trip. Opaque non-JWT tokens skip the
// peek.
func (m *Manager) peekTokenExpiry(token string) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if exp.Time.Before(m.now()) {
		m.logger.Debug("stored token expired at %s", exp.Time.Format(time.RFC3339))
	}
}

func (m *Manager) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}
	if err := m.sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}

func (m *Manager) recordGatewayCall(ctx context.Context, operation string, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["operation"] = operation
	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventGatewayCall,
		Metadata:  meta,
	})
}

func (m *Manager) recordGatewayResult(ctx context.Context, operation string, err error) {
	meta := map[string]any{"operation": operation, "ok": err == nil}
	if err != nil {
		meta["error"] = err.Error()
	}
	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventGatewayResult,
		Metadata:  meta,
	})
}
