package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// Gateway route paths, relative to the base URL.
const (
	routeLogin              = "/auth/login"
	routeRegister           = "/auth/register"
	routeMe                 = "/auth/me"
	routeLogout             = "/auth/logout"
	routeForgotPassword     = "/auth/password/forgot"
	routeResetPassword      = "/auth/password/reset"
	routeVerifyEmail        = "/auth/verify-email"
	routeResendVerification = "/auth/verify-email/resend"
	routeUsers              = "/users"
)

// HTTPGateway talks to the vault backend over REST. It is the only component
// that knows the wire shapes; everything above it sees normalized results or
// rich errors.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	tokens  TokenProvider
	logger  Logger
	debug   bool
}

// HTTPGatewayOption customizes gateway construction.
type HTTPGatewayOption func(*HTTPGateway)

// WithHTTPClient overrides the underlying HTTP client (timeouts live here).
func WithHTTPClient(client *http.Client) HTTPGatewayOption {
	return func(g *HTTPGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithTokenProvider wires the bearer token source, typically the
// CredentialStore the manager writes to.
func WithTokenProvider(tokens TokenProvider) HTTPGatewayOption {
	return func(g *HTTPGateway) {
		g.tokens = tokens
	}
}

// WithGatewayLogger overrides the logger.
func WithGatewayLogger(logger Logger) HTTPGatewayOption {
	return func(g *HTTPGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGatewayDebug enables request/response payload dumps.
func WithGatewayDebug(debug bool) HTTPGatewayOption {
	return func(g *HTTPGateway) {
		g.debug = debug
	}
}

// NewHTTPGateway returns a Gateway for the backend rooted at baseURL.
func NewHTTPGateway(baseURL string, opts ...HTTPGatewayOption) *HTTPGateway {
	g := &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

func (g *HTTPGateway) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	out := &AuthResult{}
	if err := g.do(ctx, http.MethodPost, routeLogin, body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	out := &AuthResult{}
	if err := g.do(ctx, http.MethodPost, routeRegister, input.wirePayload(), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) GetMe(ctx context.Context) (*UserRecord, error) {
	out := &struct {
		User UserRecord `json:"user"`
	}{}
	if err := g.do(ctx, http.MethodGet, routeMe, nil, out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (g *HTTPGateway) Logout(ctx context.Context) error {
	return g.do(ctx, http.MethodPost, routeLogout, nil, nil)
}

func (g *HTTPGateway) ForgotPassword(ctx context.Context, email string) error {
	return g.do(ctx, http.MethodPost, routeForgotPassword, map[string]string{
		"email": email,
	}, nil)
}

func (g *HTTPGateway) ResetPassword(ctx context.Context, token, newPassword string) error {
	return g.do(ctx, http.MethodPost, routeResetPassword, map[string]string{
		"token":    token,
		"password": newPassword,
	}, nil)
}

func (g *HTTPGateway) VerifyEmail(ctx context.Context, token string) error {
	return g.do(ctx, http.MethodPost, routeVerifyEmail, map[string]string{
		"token": token,
	}, nil)
}

func (g *HTTPGateway) ResendVerification(ctx context.Context, email string) error {
	return g.do(ctx, http.MethodPost, routeResendVerification, map[string]string{
		"email": email,
	}, nil)
}

func (g *HTTPGateway) UpdateUser(ctx context.Context, id string, patch UserPatch) (*UserRecord, error) {
	out := &struct {
		User UserRecord `json:"user"`
	}{}
	path := fmt.Sprintf("%s/%s", routeUsers, id)
	if err := g.do(ctx, http.MethodPatch, path, patch, out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// errorEnvelope is the backend's failure shape. Some endpoints use "error",
// older ones "message".
type errorEnvelope struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e errorEnvelope) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not encode request body")
		}
		reader = bytes.NewReader(payload)

		if g.debug {
			g.logger.Debug("gateway %s %s\n%s", method, path, print.MaybePrettyJSON(body))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not build request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if g.tokens != nil {
		token, err := g.tokens.Token(ctx)
		if err != nil {
			g.logger.Warn("gateway token read error: %v", err)
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := g.client.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "auth service unreachable").
			WithTextCode(TextCodeGatewayFailure).
			WithMetadata(map[string]any{"path": path})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not read response").
			WithTextCode(TextCodeGatewayFailure).
			WithMetadata(map[string]any{"path": path})
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return g.remoteError(res.StatusCode, path, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "could not decode response").
			WithTextCode(TextCodeGatewayFailure).
			WithMetadata(map[string]any{"path": path})
	}

	return nil
}

// remoteError converts a non-2xx response into a rich error whose message is
// the backend's human-readable text, so the classifier sees the authoritative
// signal.
func (g *HTTPGateway) remoteError(status int, path string, raw []byte) error {
	envelope := errorEnvelope{}
	_ = json.Unmarshal(raw, &envelope)

	message := envelope.text()
	if message == "" {
		message = fmt.Sprintf("auth service error (%d)", status)
	}

	err := goerrors.New(message, goerrors.CategoryAuth).
		WithCode(status).
		WithMetadata(map[string]any{
			"status": status,
			"path":   path,
		})

	if status == http.StatusUnauthorized {
		return err.WithTextCode(TextCodeUnauthorized)
	}

	return err.WithTextCode(TextCodeGatewayFailure)
}

var _ Gateway = &HTTPGateway{}
