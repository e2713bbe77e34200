package dealer

import (
	"context"
	"time"
)

// Transition is a labeled edge in the dealer lifecycle graph. Two distinct
// edges lead into the active status: the setup-token path out of verified,
// and the fast-path approval out of pending for dealers that registered with
// a password. They are kept as separate labels so each can carry its own
// guard and audit trail.
type Transition string

const (
	// TransitionVerify moves a pending dealer to verified after admin review
	TransitionVerify Transition = "verify"
	// TransitionActivate moves a verified dealer to active on token redemption
	TransitionActivate Transition = "activate"
	// TransitionApprove moves a pending dealer straight to active, provided
	// credentials were captured at registration
	TransitionApprove Transition = "approve"
)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// SystemActor is used when no admin or dealer initiated the change.
var SystemActor = ActorRef{Type: "system"}

type transitionEdge struct {
	from DealerStatus
	to   DealerStatus
}

// LifecycleMachine validates dealer status transitions. It does not persist
// anything itself; repositories apply the matching conditional update and the
// machine decides whether the attempt is legal for the dealer as loaded.
type LifecycleMachine interface {
	Guard(t Transition, d *Dealer) error
	Target(t Transition) DealerStatus
	CurrentStatus(d *Dealer) DealerStatus
}

// StateMachineOption customizes machine construction.
type StateMachineOption func(*lifecycleMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *lifecycleMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineAuthSink sets the AuthSink notified after guard evaluation
// fails, so rejected transitions leave a trace.
func WithStateMachineAuthSink(sink AuthSink) StateMachineOption {
	return func(sm *lifecycleMachine) {
		sm.sink = normalizeAuthSink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *lifecycleMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewLifecycleMachine returns the default dealer lifecycle machine.
func NewLifecycleMachine(opts ...StateMachineOption) LifecycleMachine {
	sm := &lifecycleMachine{
		edges: map[Transition]transitionEdge{
			TransitionVerify:   {from: StatusPending, to: StatusVerified},
			TransitionActivate: {from: StatusVerified, to: StatusActive},
			TransitionApprove:  {from: StatusPending, to: StatusActive},
		},
		now:    time.Now,
		sink:   noopAuthSink{},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type lifecycleMachine struct {
	edges  map[Transition]transitionEdge
	now    func() time.Time
	sink   AuthSink
	logger Logger
}

// Guard reports whether the transition is legal for the dealer as loaded.
// The caller still has to apply the change with a conditional update keyed on
// the same source status; Guard only classifies the failure ahead of time so
// callers can return a precise error instead of a generic conflict.
func (sm *lifecycleMachine) Guard(t Transition, d *Dealer) error {
	if d == nil {
		return ErrDealerNotFound
	}

	edge, ok := sm.edges[t]
	if !ok {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"transition": string(t),
			"reason":     "unknown transition",
		})
	}

	d.EnsureStatus()

	if d.Status != edge.from {
		err := ErrInvalidTransition.WithMetadata(map[string]any{
			"transition": string(t),
			"from":       d.Status,
			"expected":   edge.from,
			"to":         edge.to,
		})
		sm.recordRejection(t, d, err.Error())
		return err
	}

	if t == TransitionApprove && !d.HasCredentials() {
		err := ErrRegistrationIncomplete.WithMetadata(map[string]any{
			"dealer_id": d.ID.String(),
		})
		sm.recordRejection(t, d, err.Error())
		return err
	}

	return nil
}

// Target returns the status the transition lands in, or "" for an unknown
// label.
func (sm *lifecycleMachine) Target(t Transition) DealerStatus {
	if edge, ok := sm.edges[t]; ok {
		return edge.to
	}
	return ""
}

// CurrentStatus returns the dealer's normalized status.
func (sm *lifecycleMachine) CurrentStatus(d *Dealer) DealerStatus {
	if d == nil {
		return ""
	}
	d.EnsureStatus()
	return d.Status
}

func (sm *lifecycleMachine) recordRejection(t Transition, d *Dealer, msg string) {
	id := d.ID
	event := AuthEvent{
		Type:         AuthEventVerification,
		DealerID:     &id,
		DealerEmail:  d.Email,
		Success:      false,
		Notes:        "rejected transition: " + string(t),
		ErrorMessage: msg,
		OccurredAt:   sm.now(),
	}

	if err := normalizeAuthSink(sm.sink).Record(context.Background(), event); err != nil {
		sm.logger.Warn("lifecycle machine sink error: %v", err)
	}
}
