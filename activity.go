package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventStateChanged       ActivityEventType = "session.state.changed"
	ActivityEventRestoreSuccess     ActivityEventType = "session.restore.success"
	ActivityEventRestoreFailure     ActivityEventType = "session.restore.failure"
	ActivityEventLoginSuccess       ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure       ActivityEventType = "auth.login.failure"
	ActivityEventRegisterSuccess    ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure    ActivityEventType = "auth.register.failure"
	ActivityEventLogout             ActivityEventType = "auth.logout"
	ActivityEventProfileUpdated     ActivityEventType = "auth.profile.updated"
	ActivityEventPasswordChanged    ActivityEventType = "auth.password.changed"
	ActivityEventPasswordResetStart ActivityEventType = "auth.password.reset.requested"
	ActivityEventGatewayCall        ActivityEventType = "gateway.call"
	ActivityEventGatewayResult      ActivityEventType = "gateway.result"
)

// ActivityEvent captures audit-friendly information about a session lifecycle
// action. The manager emits one at every state entry/exit and around every
// gateway round trip.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	FromPhase  Phase
	ToPhase    Phase
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
