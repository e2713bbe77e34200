package dealer

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type LoginDealerMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
	OnResponse func(resp *LoginDealerResponse)
}

func (e LoginDealerMessage) Type() string { return "dealer.login" }

type LoginDealerResponse struct {
	Dealer  *Dealer
	Session *DealerSession
	Success bool
}

type LoginDealerHandler struct {
	repo   RepositoryManager
	sink   AuthSink
	logger Logger
	now    func() time.Time
}

func NewLoginDealerHandler(repo RepositoryManager, sink AuthSink, logger Logger) *LoginDealerHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &LoginDealerHandler{
		repo:   repo,
		sink:   normalizeAuthSink(sink),
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (h *LoginDealerHandler) WithClock(clock func() time.Time) *LoginDealerHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *LoginDealerHandler) Execute(ctx context.Context, event LoginDealerMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during dealer login",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *LoginDealerHandler) execute(ctx context.Context, event LoginDealerMessage) error {
	resp := &LoginDealerResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)

	record, err := h.repo.Dealers().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.auditFailure(ctx, nil, event, "unknown email")
			return ErrInvalidCredentials
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load dealer")
	}

	now := h.now()

	if record.LockedUntil != nil && record.LockedUntil.After(now) {
		h.auditFailure(ctx, record, event, "account locked")
		return ErrAccountLocked.WithMetadata(map[string]any{
			"locked_until": record.LockedUntil,
		})
	}

	if err := h.gateStatus(record); err != nil {
		h.auditFailure(ctx, record, event, "status gate: "+record.Status)
		return err
	}

	if err := ComparePasswordAndHash(event.Password, record.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "password comparison failed")
		}
		return h.handleFailedAttempt(ctx, record, event, now)
	}

	sessionToken, err := GenerateToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint session token")
	}
	refreshToken, err := GenerateToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint refresh token")
	}

	session := &DealerSession{
		DealerID:     record.ID,
		SessionToken: sessionToken,
		RefreshToken: refreshToken,
		IPAddress:    event.IP,
		UserAgent:    event.UserAgent,
		ExpiresAt:    now.Add(SessionTTL),
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if session, err = h.repo.Sessions().CreateTx(ctx, tx, session); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session")
		}
		if err := h.repo.Dealers().TrackSuccessfulLoginTx(ctx, tx, record.ID, now); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record login")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "dealer login transaction failed")
	}

	record.LoginAttempts = 0
	record.LockedUntil = nil
	record.LastLoginAt = &now

	dealerID := record.ID
	recordAuthEvent(ctx, h.sink, h.logger, AuthEvent{
		Type:        AuthEventLoginSuccess,
		DealerID:    &dealerID,
		DealerEmail: record.Email,
		Success:     true,
		IP:          event.IP,
		UserAgent:   event.UserAgent,
	})

	resp.Dealer = record
	resp.Session = session
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

// gateStatus rejects accounts that cannot authenticate yet (or anymore),
// with a reason the client can act on.
func (h *LoginDealerHandler) gateStatus(record *Dealer) error {
	switch record.Status {
	case StatusPending:
		return goerrors.New("account pending admin verification", goerrors.CategoryAuth).
			WithTextCode(TextCodeSetupNotAllowed).
			WithCode(goerrors.CodeForbidden).
			WithMetadata(map[string]any{"status": record.Status})
	case StatusVerified:
		return goerrors.New("account verified but password not set, use your setup link", goerrors.CategoryAuth).
			WithTextCode(TextCodeSetupNotAllowed).
			WithCode(goerrors.CodeForbidden).
			WithMetadata(map[string]any{
				"status":               record.Status,
				"needs_password_setup": true,
			})
	case StatusSuspended:
		return goerrors.New("account suspended, contact support", goerrors.CategoryAuth).
			WithTextCode(TextCodeSetupNotAllowed).
			WithCode(goerrors.CodeForbidden).
			WithMetadata(map[string]any{"status": record.Status})
	}

	if !record.HasCredentials() {
		return goerrors.New("account has no password on record, use your setup link", goerrors.CategoryAuth).
			WithTextCode(TextCodeSetupNotAllowed).
			WithCode(goerrors.CodeForbidden).
			WithMetadata(map[string]any{"needs_password_setup": true})
	}

	return nil
}

func (h *LoginDealerHandler) handleFailedAttempt(ctx context.Context, record *Dealer, event LoginDealerMessage, now time.Time) error {
	updated, err := h.repo.Dealers().TrackFailedLogin(ctx, record.ID, MaxLoginAttempts, now.Add(LockoutPeriod))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record login attempt")
	}

	dealerID := record.ID

	if updated.LockedUntil != nil && updated.LockedUntil.After(now) {
		recordAuthEvent(ctx, h.sink, h.logger, AuthEvent{
			Type:         AuthEventAccountLocked,
			DealerID:     &dealerID,
			DealerEmail:  record.Email,
			Success:      false,
			ErrorMessage: "too many failed login attempts",
			IP:           event.IP,
			UserAgent:    event.UserAgent,
		})
		return ErrAccountLocked.WithMetadata(map[string]any{
			"locked_until": updated.LockedUntil,
		})
	}

	h.auditFailure(ctx, record, event, "password mismatch")

	return ErrInvalidCredentials.WithMetadata(map[string]any{
		"attempts_remaining": MaxLoginAttempts - updated.LoginAttempts,
	})
}

func (h *LoginDealerHandler) auditFailure(ctx context.Context, record *Dealer, event LoginDealerMessage, reason string) {
	ev := AuthEvent{
		Type:         AuthEventLoginFailed,
		DealerEmail:  NormalizeEmail(event.Email),
		Success:      false,
		ErrorMessage: reason,
		IP:           event.IP,
		UserAgent:    event.UserAgent,
	}
	if record != nil {
		id := record.ID
		ev.DealerID = &id
	}
	recordAuthEvent(ctx, h.sink, h.logger, ev)
}
