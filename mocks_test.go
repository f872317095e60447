package auth_test

import (
	"context"
	"sync"
	"time"

	auth "github.com/filevault/go-auth"
	goerrors "github.com/goliatone/go-errors"
)

// fakeGateway is a hand-rolled Gateway double with per-operation call
// counters, so tests can assert an operation was never reached.
type fakeGateway struct {
	mu sync.Mutex

	loginCalls    int
	registerCalls int
	getMeCalls    int
	logoutCalls   int
	forgotCalls   int
	resetCalls    int
	verifyCalls   int
	resendCalls   int
	updateCalls   int

	loginResult    *auth.AuthResult
	loginErr       error
	registerResult *auth.AuthResult
	registerErr    error
	getMeResult    *auth.UserRecord
	getMeErr       error
	getMeDelay     time.Duration
	logoutErr      error
	forgotErr      error
	resetErr       error
	verifyErr      error
	resendErr      error
	updateResult   *auth.UserRecord
	updateErr      error

	lastUpdateID    string
	lastUpdatePatch auth.UserPatch
}

func (g *fakeGateway) Login(_ context.Context, email, password string) (*auth.AuthResult, error) {
	g.mu.Lock()
	g.loginCalls++
	g.mu.Unlock()
	if g.loginErr != nil {
		return nil, g.loginErr
	}
	if g.loginResult == nil {
		return &auth.AuthResult{}, nil
	}
	return g.loginResult, nil
}

func (g *fakeGateway) Register(_ context.Context, _ auth.RegisterInput) (*auth.AuthResult, error) {
	g.mu.Lock()
	g.registerCalls++
	g.mu.Unlock()
	if g.registerErr != nil {
		return nil, g.registerErr
	}
	if g.registerResult == nil {
		return &auth.AuthResult{}, nil
	}
	return g.registerResult, nil
}

func (g *fakeGateway) GetMe(_ context.Context) (*auth.UserRecord, error) {
	g.mu.Lock()
	g.getMeCalls++
	g.mu.Unlock()
	if g.getMeDelay > 0 {
		time.Sleep(g.getMeDelay)
	}
	if g.getMeErr != nil {
		return nil, g.getMeErr
	}
	if g.getMeResult == nil {
		return &auth.UserRecord{}, nil
	}
	return g.getMeResult, nil
}

func (g *fakeGateway) Logout(_ context.Context) error {
	g.mu.Lock()
	g.logoutCalls++
	g.mu.Unlock()
	return g.logoutErr
}

func (g *fakeGateway) ForgotPassword(_ context.Context, _ string) error {
	g.mu.Lock()
	g.forgotCalls++
	g.mu.Unlock()
	return g.forgotErr
}

func (g *fakeGateway) ResetPassword(_ context.Context, _, _ string) error {
	g.mu.Lock()
	g.resetCalls++
	g.mu.Unlock()
	return g.resetErr
}

func (g *fakeGateway) VerifyEmail(_ context.Context, _ string) error {
	g.mu.Lock()
	g.verifyCalls++
	g.mu.Unlock()
	return g.verifyErr
}

func (g *fakeGateway) ResendVerification(_ context.Context, _ string) error {
	g.mu.Lock()
	g.resendCalls++
	g.mu.Unlock()
	return g.resendErr
}

func (g *fakeGateway) UpdateUser(_ context.Context, id string, patch auth.UserPatch) (*auth.UserRecord, error) {
	g.mu.Lock()
	g.updateCalls++
	g.lastUpdateID = id
	g.lastUpdatePatch = patch
	g.mu.Unlock()
	if g.updateErr != nil {
		return nil, g.updateErr
	}
	if g.updateResult == nil {
		return &auth.UserRecord{}, nil
	}
	return g.updateResult, nil
}

func (g *fakeGateway) calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch op {
	case "login":
		return g.loginCalls
	case "register":
		return g.registerCalls
	case "getMe":
		return g.getMeCalls
	case "logout":
		return g.logoutCalls
	case "forgot":
		return g.forgotCalls
	case "update":
		return g.updateCalls
	}
	return 0
}

var _ auth.Gateway = &fakeGateway{}

// unauthorizedErr mimics the gateway's 401 shape.
func unauthorizedErr() error {
	return goerrors.New("Invalid or expired token", goerrors.CategoryAuth).
		WithTextCode(auth.TextCodeUnauthorized).
		WithCode(401)
}

func verifiedUser(id, name, email, role string) auth.UserRecord {
	return auth.UserRecord{
		ID:            id,
		Name:          name,
		Email:         email,
		Role:          role,
		EmailVerified: true,
	}
}
