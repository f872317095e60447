package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidTransition = "INVALID_AUTH_STATE_TRANSITION"

// ErrInvalidTransition is returned when a requested state change is not
// allowed by the lifecycle graph.
var ErrInvalidTransition = goerrors.New("invalid auth state transition", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeConflict)

// Phase is the coarse authentication phase driving screen selection.
type Phase string

const (
	// PhaseInitializing means silent restoration is in progress.
	PhaseInitializing Phase = "initializing"
	// PhaseUnauthenticated means no valid session is held.
	PhaseUnauthenticated Phase = "unauthenticated"
	// PhaseAuthenticated means a valid session is held.
	PhaseAuthenticated Phase = "authenticated"
)

// ScreenMode selects which entry screen is active while unauthenticated.
type ScreenMode string

const (
	ModeLoggingIn          ScreenMode = "logging_in"
	ModeRegistering        ScreenMode = "registering"
	ModeRecoveringPassword ScreenMode = "recovering_password"
)

// AuthState is the public state machine snapshot. Mode is meaningful only
// while Phase is PhaseUnauthenticated.
type AuthState struct {
	Phase Phase
	Mode  ScreenMode
}

// InitialAuthState is the state a fresh manager starts in.
func InitialAuthState() AuthState {
	return AuthState{Phase: PhaseInitializing, Mode: ModeLoggingIn}
}

// phaseTransitions is the lifecycle graph. Entry-screen mode changes stay
// within PhaseUnauthenticated and are handled separately; they never move the
// phase.
var phaseTransitions = map[Phase]map[Phase]struct{}{
	PhaseInitializing: {
		PhaseUnauthenticated: {},
		PhaseAuthenticated:   {},
	},
	PhaseUnauthenticated: {
		PhaseAuthenticated: {},
	},
	PhaseAuthenticated: {
		PhaseUnauthenticated: {},
	},
}

// stateMachine owns the AuthState snapshot and emits an activity event on
// every accepted transition. Callers hold the manager's lock.
type stateMachine struct {
	state  AuthState
	logger Logger
	sink   ActivitySink
	now    Clock
}

func newStateMachine(logger Logger, sink ActivitySink, now Clock) *stateMachine {
	if logger == nil {
		logger = defLogger{}
	}
	if now == nil {
		now = time.Now
	}
	return &stateMachine{
		state:  InitialAuthState(),
		logger: logger,
		sink:   normalizeActivitySink(sink),
		now:    now,
	}
}

func (sm *stateMachine) current() AuthState {
	return sm.state
}

func canTransition(from, to Phase) bool {
	allowed, ok := phaseTransitions[from]
	if !ok {
		return false
	}
	_, exists := allowed[to]
	return exists
}

// transition moves the machine to the target phase, carrying the entry-screen
// mode for the unauthenticated phase.
func (sm *stateMachine) transition(ctx context.Context, target Phase, mode ScreenMode, reason string) error {
	from := sm.state

	if target == "" {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target phase is empty",
		})
	}

	if from.Phase == target {
		// re-entering the same phase only makes sense as a mode change
		if target == PhaseUnauthenticated && mode != "" {
			return sm.navigate(ctx, mode, reason)
		}
		return nil
	}

	if !canTransition(from.Phase, target) {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from.Phase,
			"to":   target,
		})
	}

	sm.state = AuthState{Phase: target, Mode: mode}
	sm.logger.Debug("auth state %s -> %s (%s)", from.Phase, target, reason)
	sm.recordChange(ctx, from, sm.state, reason)

	return nil
}

// navigate switches the entry screen mode. Mode changes are user-initiated
// and only valid while unauthenticated.
func (sm *stateMachine) navigate(ctx context.Context, mode ScreenMode, reason string) error {
	from := sm.state

	if from.Phase != PhaseUnauthenticated {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"from":   from.Phase,
			"mode":   mode,
			"reason": "entry screens only exist while unauthenticated",
		})
	}

	switch mode {
	case ModeLoggingIn, ModeRegistering, ModeRecoveringPassword:
	default:
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"mode":   mode,
			"reason": "unknown screen mode",
		})
	}

	if from.Mode == mode {
		return nil
	}

	sm.state = AuthState{Phase: PhaseUnauthenticated, Mode: mode}
	sm.recordChange(ctx, from, sm.state, reason)

	return nil
}

func (sm *stateMachine) recordChange(ctx context.Context, from, to AuthState, reason string) {
	event := ActivityEvent{
		EventType:  ActivityEventStateChanged,
		FromPhase:  from.Phase,
		ToPhase:    to.Phase,
		OccurredAt: sm.now(),
		Metadata: map[string]any{
			"from_mode": string(from.Mode),
			"to_mode":   string(to.Mode),
			"reason":    reason,
		},
	}

	if err := sm.sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}
