package dealer

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ApproveDealerMessage struct {
	DealerID   uuid.UUID `json:"dealer_id"`
	Actor      ExternalIdentity
	Notes      string `json:"notes"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
	OnResponse func(resp *ApproveDealerResponse)
}

func (e ApproveDealerMessage) Type() string { return "dealer.approve" }

type ApproveDealerResponse struct {
	Dealer  *Dealer
	Success bool
}

// ApproveDealerHandler is the fast path for dealers that registered with a
// password: pending straight to active, no setup token in between.
type ApproveDealerHandler struct {
	repo      RepositoryManager
	bootstrap *AdminBootstrap
	machine   LifecycleMachine
	sink      AuthSink
	notifier  Notifier
	logger    Logger
}

func NewApproveDealerHandler(repo RepositoryManager, bootstrap *AdminBootstrap, opts ...ApproveDealerOption) *ApproveDealerHandler {
	h := &ApproveDealerHandler{
		repo:      repo,
		bootstrap: bootstrap,
		machine:   NewLifecycleMachine(),
		sink:      noopAuthSink{},
		logger:    defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type ApproveDealerOption func(*ApproveDealerHandler)

func WithApproveDealerSink(sink AuthSink) ApproveDealerOption {
	return func(h *ApproveDealerHandler) { h.sink = normalizeAuthSink(sink) }
}

func WithApproveDealerNotifier(n Notifier) ApproveDealerOption {
	return func(h *ApproveDealerHandler) { h.notifier = n }
}

func WithApproveDealerLogger(l Logger) ApproveDealerOption {
	return func(h *ApproveDealerHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func (h *ApproveDealerHandler) Execute(ctx context.Context, event ApproveDealerMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during dealer approval",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ApproveDealerHandler) execute(ctx context.Context, event ApproveDealerMessage) error {
	resp := &ApproveDealerResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	admin, err := h.bootstrap.ResolveActor(ctx, event.Actor)
	if err != nil {
		return err
	}

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

		if err := h.machine.Guard(TransitionApprove, current); err != nil {
			return err
		}

		updated, err := h.repo.Dealers().ApproveTx(ctx, tx, event.DealerID, admin.ID, event.Notes)
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "dealer approval transaction failed")
	}

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
		approved := *resp.Dealer
		go func() {
			if err := h.notifier.DealerApproved(context.Background(), &approved); err != nil {
				h.logger.Warn("dealer approved notification failed: %v", err)
			}
		}()
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
