package dealer

import (
	"context"
	"crypto/subtle"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type SetupPasswordMessage struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	IP              string `json:"-"`
	UserAgent       string `json:"-"`
	OnResponse      func(resp *SetupPasswordResponse)
}

func (e SetupPasswordMessage) Type() string { return "dealer.password_setup" }

type SetupPasswordResponse struct {
	Dealer  *Dealer
	Success bool
}

type SetupPasswordHandler struct {
	repo   RepositoryManager
	sink   AuthSink
	logger Logger
	now    func() time.Time
}

func NewSetupPasswordHandler(repo RepositoryManager, sink AuthSink, logger Logger) *SetupPasswordHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &SetupPasswordHandler{
		repo:   repo,
		sink:   normalizeAuthSink(sink),
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (h *SetupPasswordHandler) WithClock(clock func() time.Time) *SetupPasswordHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *SetupPasswordHandler) Execute(ctx context.Context, event SetupPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password setup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SetupPasswordHandler) execute(ctx context.Context, event SetupPasswordMessage) error {
	resp := &SetupPasswordResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Password != event.ConfirmPassword {
		return ErrPasswordMismatch
	}

	if err := ValidatePasswordStrength(event.Password); err != nil {
		return err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := h.repo.Dealers().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrSetupTokenInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load dealer")
		}

		// wrong token and unknown dealer are indistinguishable on purpose
		if current.SetupToken == "" ||
			subtle.ConstantTimeCompare([]byte(current.SetupToken), []byte(event.Token)) != 1 {
			return ErrSetupTokenInvalid
		}

		if current.Status != StatusVerified {
			return ErrSetupNotAllowed.WithMetadata(map[string]any{
				"status": current.Status,
			})
		}

		if current.SetupTokenExpiresAt == nil || !current.SetupTokenExpiresAt.After(h.now()) {
			return ErrSetupTokenExpired
		}

		// verify-and-clear in one statement; zero rows means a concurrent
		// redemption beat us
		updated, err := h.repo.Dealers().RedeemSetupTokenTx(ctx, tx, event.Email, event.Token, hash, h.now())
		if err != nil {
			return err
		}

		resp.Dealer = updated
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password setup transaction failed")
	}

	resp.Success = true

	dealerID := resp.Dealer.ID
	recordAuthEvent(ctx, h.sink, h.logger, AuthEvent{
		Type:        AuthEventPasswordSetup,
		DealerID:    &dealerID,
		DealerEmail: resp.Dealer.Email,
		Success:     true,
		IP:          event.IP,
		UserAgent:   event.UserAgent,
	})

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
