package dealer

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type VerifyDealerMessage struct {
	DealerID   uuid.UUID `json:"dealer_id"`
	Actor      ExternalIdentity
	Notes      string `json:"notes"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
	OnResponse func(resp *VerifyDealerResponse)
}

func (e VerifyDealerMessage) Type() string { return "dealer.verify" }

type VerifyDealerResponse struct {
	Dealer     *Dealer
	SetupToken string
	SetupLink  string
	Success    bool
}

type VerifyDealerHandler struct {
	repo      RepositoryManager
	bootstrap *AdminBootstrap
	machine   LifecycleMachine
	sink      AuthSink
	notifier  Notifier
	logger    Logger
	baseURL   string
	now       func() time.Time
}

func NewVerifyDealerHandler(repo RepositoryManager, bootstrap *AdminBootstrap, opts ...VerifyDealerOption) *VerifyDealerHandler {
	h := &VerifyDealerHandler{
		repo:      repo,
		bootstrap: bootstrap,
		machine:   NewLifecycleMachine(),
		sink:      noopAuthSink{},
		logger:    defLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type VerifyDealerOption func(*VerifyDealerHandler)

func WithVerifyDealerSink(sink AuthSink) VerifyDealerOption {
	return func(h *VerifyDealerHandler) { h.sink = normalizeAuthSink(sink) }
}

func WithVerifyDealerNotifier(n Notifier) VerifyDealerOption {
	return func(h *VerifyDealerHandler) { h.notifier = n }
}

func WithVerifyDealerLogger(l Logger) VerifyDealerOption {
	return func(h *VerifyDealerHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithVerifyDealerBaseURL(u string) VerifyDealerOption {
	return func(h *VerifyDealerHandler) { h.baseURL = u }
}

func WithVerifyDealerClock(clock func() time.Time) VerifyDealerOption {
	return func(h *VerifyDealerHandler) {
		if clock != nil {
			h.now = clock
		}
	}
}

func (h *VerifyDealerHandler) Execute(ctx context.Context, event VerifyDealerMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during dealer verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyDealerHandler) execute(ctx context.Context, event VerifyDealerMessage) error {
	resp := &VerifyDealerResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	admin, err := h.bootstrap.ResolveActor(ctx, event.Actor)
	if err != nil {
		return err
	}

	token, err := GenerateToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint setup token")
	}
	expiresAt := h.now().Add(SetupTokenTTL)

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := h.repo.Dealers().GetByIdentifierTx(ctx, tx, event.DealerID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrDealerNotFound.WithMetadata(map[string]any{
					"dealer_id": event.DealerID.String(),
				})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load dealer")
		}

		if err := h.machine.Guard(TransitionVerify, current); err != nil {
			return err
		}

		// the conditional WHERE decides under concurrency, not the read above
		updated, err := h.repo.Dealers().VerifyTx(ctx, tx, event.DealerID, admin.ID, event.Notes, token, expiresAt)
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "dealer verification transaction failed")
	}

	resp.SetupToken = token
	resp.SetupLink = SetupLink(h.baseURL, resp.Dealer.Email, token)
	resp.Success = true

	dealerID := resp.Dealer.ID
	adminID := admin.ID
	recordAuthEvent(ctx, h.sink, h.logger, AuthEvent{
		Type:        AuthEventVerification,
		DealerID:    &dealerID,
		DealerEmail: resp.Dealer.Email,
		Success:     true,
		AdminID:     &adminID,
		Notes:       event.Notes,
		IP:          event.IP,
		UserAgent:   event.UserAgent,
	})

	if h.notifier != nil {
		verified := *resp.Dealer
		link := resp.SetupLink
		go func() {
			if err := h.notifier.DealerVerified(context.Background(), &verified, link); err != nil {
				h.logger.Warn("dealer verified notification failed: %v", err)
			}
		}()
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
