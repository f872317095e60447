package auth

import (
	"context"
	"sync"
)

// Logical keys the auth subsystem uses. The token and the remembered email
// have independent lifecycles: the token follows login/logout/restore, the
// remembered email follows the remember-me toggle only.
const (
	credKeyToken           = "auth.token"
	credKeyRememberedEmail = "auth.remembered_email"
	credKeyProfilePrefix   = "auth.profile."
)

// CredentialStore wraps the persistent key-value store the client runs on.
// Absent keys read back as the empty string, not an error. There is
// deliberately no API for persisting a password.
type CredentialStore interface {
	// Token returns the stored bearer token, or "" when none is stored.
	Token(ctx context.Context) (string, error)
	// SetToken stores the bearer token; an empty value clears it.
	SetToken(ctx context.Context, token string) error
	// ClearToken removes the stored bearer token.
	ClearToken(ctx context.Context) error

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// MemoryCredentialStore is the ephemeral CredentialStore used by tests and
// short-lived tooling. Safe for concurrent use.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryCredentialStore returns an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		items: map[string]string{},
	}
}

func (s *MemoryCredentialStore) Token(ctx context.Context) (string, error) {
	return s.Get(ctx, credKeyToken)
}

func (s *MemoryCredentialStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}
	return s.Set(ctx, credKeyToken, token)
}

func (s *MemoryCredentialStore) ClearToken(ctx context.Context) error {
	return s.Remove(ctx, credKeyToken)
}

func (s *MemoryCredentialStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[key], nil
}

func (s *MemoryCredentialStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *MemoryCredentialStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

var _ CredentialStore = &MemoryCredentialStore{}
var _ TokenProvider = &MemoryCredentialStore{}
