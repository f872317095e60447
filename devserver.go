package auth

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Backend failure messages. These are the authoritative signals the error
// classifier matches on; the dev server returns the same strings the
// production backend does.
const (
	msgInvalidCredentials  = "Invalid credentials"
	msgAccountDeactivated  = "Account is deactivated"
	msgEmailNotVerified    = "Email not verified"
	msgAdminOnly           = "Admin privileges required"
	msgUserExists          = "User already exists"
	msgInvalidToken        = "Invalid or expired token"
	msgInvalidResetToken   = "Invalid or expired password reset token"
	msgUserNotFound        = "User not found"
)

type devUser struct {
	record       UserRecord
	passwordHash []byte
	deactivated  bool
}

// DevServer is an in-process stub of the vault backend. It serves the exact
// REST surface the HTTP gateway consumes, with seeded accounts, bcrypt
// passwords, and JWT bearer tokens, so the dashboard can be developed and
// integration-tested without the real service.
type DevServer struct {
	app    *fiber.App
	secret []byte
	now    Clock

	mu          sync.Mutex
	users       map[string]*devUser // keyed by email
	resetTokens map[string]string   // reset token -> email
	verifyToken map[string]string   // verification token -> email

	registrationClosed bool
	bootstrapped       bool
}

// DevServerOption customizes the stub.
type DevServerOption func(*DevServer)

// WithDevServerSecret overrides the JWT signing secret.
func WithDevServerSecret(secret string) DevServerOption {
	return func(s *DevServer) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// WithDevServerClock injects a custom clock.
func WithDevServerClock(clock Clock) DevServerOption {
	return func(s *DevServer) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithRegistrationClosed makes every registration fail with the admin-only
// message, mirroring a deployment where self-service signup is disabled.
func WithRegistrationClosed() DevServerOption {
	return func(s *DevServer) {
		s.registrationClosed = true
	}
}

// NewDevServer builds the stub with no seeded accounts; the first
// registration is the bootstrap admin. Use Seed to preload users.
func NewDevServer(opts ...DevServerOption) *DevServer {
	s := &DevServer{
		secret:      []byte("dev-only-signing-key"),
		now:         time.Now,
		users:       map[string]*devUser{},
		resetTokens: map[string]string{},
		verifyToken: map[string]string{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	s.routes()

	return s
}

// SeedUser registers an account directly, bypassing the bootstrap rule.
// Verified defaults come from the record; the password is bcrypt-hashed.
func (s *DevServer) SeedUser(rec UserRecord, password string, deactivated bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	s.users[strings.ToLower(rec.Email)] = &devUser{
		record:       rec,
		passwordHash: hash,
		deactivated:  deactivated,
	}
	s.bootstrapped = true
	return nil
}

// SeedResetToken preloads a password reset token for an email.
func (s *DevServer) SeedResetToken(token, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTokens[token] = strings.ToLower(email)
}

// SeedVerificationToken preloads an email verification token.
func (s *DevServer) SeedVerificationToken(token, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifyToken[token] = strings.ToLower(email)
}

// Test routes a request through the app without a network listener.
func (s *DevServer) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req, -1)
}

// Serve runs the stub on an existing listener; it blocks like fiber's
// Listen.
func (s *DevServer) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Listen runs the stub on addr.
func (s *DevServer) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the stub.
func (s *DevServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *DevServer) routes() {
	s.app.Post(routeLogin, s.login)
	s.app.Post(routeRegister, s.register)
	s.app.Get(routeMe, s.me)
	s.app.Post(routeLogout, s.logout)
	s.app.Post(routeForgotPassword, s.forgotPassword)
	s.app.Post(routeResetPassword, s.resetPassword)
	s.app.Post(routeVerifyEmail, s.verifyEmail)
	s.app.Post(routeResendVerification, s.resendVerification)
	s.app.Patch(routeUsers+"/:id", s.updateUser)
}

func failWith(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func (s *DevServer) login(c *fiber.Ctx) error {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Malformed request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[strings.ToLower(payload.Email)]
	if !ok {
		return failWith(c, fiber.StatusUnauthorized, msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(payload.Password)); err != nil {
		return failWith(c, fiber.StatusUnauthorized, msgInvalidCredentials)
	}
	if user.deactivated {
		return failWith(c, fiber.StatusForbidden, msgAccountDeactivated)
	}
	if !user.record.EmailVerified {
		return failWith(c, fiber.StatusForbidden, msgEmailNotVerified)
	}

	token, err := s.mintToken(user.record.ID)
	if err != nil {
		return failWith(c, fiber.StatusInternalServerError, "Could not issue token")
	}

	now := s.now()
	user.record.LastLogin = &now

	return c.JSON(fiber.Map{"user": user.record, "token": token})
}

func (s *DevServer) register(c *fiber.Ctx) error {
	payload := struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Malformed request body")
	}

	if s.registrationClosed {
		return failWith(c, fiber.StatusForbidden, msgAdminOnly)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(payload.Email)
	if _, exists := s.users[key]; exists {
		return failWith(c, fiber.StatusConflict, msgUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return failWith(c, fiber.StatusInternalServerError, "Could not hash password")
	}

	// The very first account bootstraps the deployment: it is auto-verified,
	// made an admin, and handed a token. Everyone after waits for email
	// verification. This mirrors the production policy, which the client
	// treats as opaque.
	bootstrap := !s.bootstrapped

	rec := UserRecord{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(payload.FirstName + " " + payload.LastName),
		Email:         payload.Email,
		Role:          "viewer",
		EmailVerified: bootstrap,
	}
	if bootstrap {
		rec.Role = "admin"
	}

	s.users[key] = &devUser{record: rec, passwordHash: hash}
	s.bootstrapped = true

	if bootstrap {
		token, err := s.mintToken(rec.ID)
		if err != nil {
			return failWith(c, fiber.StatusInternalServerError, "Could not issue token")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": rec, "token": token})
	}

	s.verifyToken[uuid.New().String()] = key

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": rec})
}

func (s *DevServer) me(c *fiber.Ctx) error {
	user, err := s.authenticate(c)
	if err != nil {
		return failWith(c, fiber.StatusUnauthorized, msgInvalidToken)
	}
	return c.JSON(fiber.Map{"user": user.record})
}

func (s *DevServer) logout(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *DevServer) forgotPassword(c *fiber.Ctx) error {
	payload := struct {
		Email string `json:"email"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Malformed request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(payload.Email)
	if _, ok := s.users[key]; ok {
		s.resetTokens[uuid.New().String()] = key
	}

	// same response whether or not the account exists
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *DevServer) resetPassword(c *fiber.Ctx) error {
	payload := struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Malformed request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.resetTokens[payload.Token]
	if !ok {
		return failWith(c, fiber.StatusBadRequest, msgInvalidResetToken)
	}
	user, ok := s.users[email]
	if !ok {
		return failWith(c, fiber.StatusBadRequest, msgInvalidResetToken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return failWith(c, fiber.StatusInternalServerError, "Could not hash password")
	}

	user.passwordHash = hash
	delete(s.resetTokens, payload.Token)

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *DevServer) verifyEmail(c *fiber.Ctx) error {
	payload := struct {
		Token string `json:"token"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Malformed request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.verifyToken[payload.Token]
	if !ok {
		return failWith(c, fiber.StatusBadRequest, msgInvalidToken)
	}
	user, ok := s.users[email]
	if !ok {
		return failWith(c, fiber.StatusBadRequest, msgInvalidToken)
	}

	user.record.EmailVerified = true
	delete(s.verifyToken, payload.Token)

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *DevServer) resendVerification(c *fiber.Ctx) error {
	payload := struct {
		Email string `json:"email"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Malformed request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(payload.Email)
	if user, ok := s.users[key]; ok && !user.record.EmailVerified {
		s.verifyToken[uuid.New().String()] = key
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *DevServer) updateUser(c *fiber.Ctx) error {
	user, err := s.authenticate(c)
	if err != nil {
		return failWith(c, fiber.StatusUnauthorized, msgInvalidToken)
	}

	if c.Params("id") != user.record.ID {
		return failWith(c, fiber.StatusNotFound, msgUserNotFound)
	}

	patch := UserPatch{}
	if err := c.BodyParser(&patch); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Malformed request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.CurrentPassword != nil || patch.NewPassword != nil {
		if patch.CurrentPassword == nil || patch.NewPassword == nil {
			return failWith(c, fiber.StatusBadRequest, "Both current and new password are required")
		}
		if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(*patch.CurrentPassword)); err != nil {
			return failWith(c, fiber.StatusUnauthorized, msgInvalidCredentials)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return failWith(c, fiber.StatusInternalServerError, "Could not hash password")
		}
		user.passwordHash = hash
	}

	if patch.Name != nil {
		user.record.Name = *patch.Name
	}
	if patch.Email != nil && *patch.Email != "" {
		old := strings.ToLower(user.record.Email)
		next := strings.ToLower(*patch.Email)
		if next != old {
			if _, taken := s.users[next]; taken {
				return failWith(c, fiber.StatusConflict, msgUserExists)
			}
			delete(s.users, old)
			s.users[next] = user
			user.record.Email = *patch.Email
		}
	}
	if patch.Avatar != nil {
		user.record.Avatar = *patch.Avatar
	}

	return c.JSON(fiber.Map{"user": user.record})
}

func (s *DevServer) authenticate(c *fiber.Ctx) (*devUser, error) {
	header := c.Get(fiber.HeaderAuthorization)
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return nil, ErrNotAuthenticated
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrNotAuthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.record.ID == claims.Subject {
			return user, nil
		}
	}
	return nil, ErrNotAuthenticated
}

func (s *DevServer) mintToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    "filevault-dev",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
