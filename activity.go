package dealer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthEventType enumerates the audited lifecycle and authentication events.
type AuthEventType string

const (
	AuthEventRegistration  AuthEventType = "registration"
	AuthEventVerification  AuthEventType = "verification_by_admin"
	AuthEventPasswordSetup AuthEventType = "password_setup"
	AuthEventLoginSuccess  AuthEventType = "login_success"
	AuthEventLoginFailed   AuthEventType = "login_failed"
	AuthEventAccountLocked AuthEventType = "account_locked"
	AuthEventLogout        AuthEventType = "logout"
)

// AuthEvent captures audit-friendly information about a dealer action.
type AuthEvent struct {
	Type         AuthEventType
	DealerID     *uuid.UUID
	DealerEmail  string
	Success      bool
	AdminID      *uuid.UUID
	Notes        string
	ErrorMessage string
	IP           string
	UserAgent    string
	OccurredAt   time.Time
}

// AuthSink consumes auth events for the append-only audit trail. Sinks are
// best-effort consumers: callers log a sink failure and move on, the outcome
// of the operation being audited never depends on it.
type AuthSink interface {
	Record(ctx context.Context, event AuthEvent) error
}

// AuthSinkFunc adapts a function to the AuthSink interface.
type AuthSinkFunc func(ctx context.Context, event AuthEvent) error

// Record implements AuthSink.
func (f AuthSinkFunc) Record(ctx context.Context, event AuthEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopAuthSink struct{}

func (noopAuthSink) Record(context.Context, AuthEvent) error {
	return nil
}

func normalizeAuthSink(s AuthSink) AuthSink {
	if s == nil {
		return noopAuthSink{}
	}
	return s
}

// recordAuthEvent publishes the event best-effort: a failing sink is logged
// and otherwise ignored.
func recordAuthEvent(ctx context.Context, sink AuthSink, logger Logger, event AuthEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if logger == nil {
		logger = defLogger{}
	}

	if err := normalizeAuthSink(sink).Record(ctx, event); err != nil {
		logger.Warn("auth sink error for %s: %v", event.Type, err)
	}
}
