package auth

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the package depends on. Provide your
// own implementation (see NewZerologLogger) or rely on the stdout fallback.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Clock returns the current time; injectable for tests.
type Clock func() time.Time

// TokenProvider exposes the current bearer token, if any. CredentialStore
// satisfies this, so the HTTP gateway can read the token the manager persists
// without holding its own copy.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
