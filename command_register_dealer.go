package dealer

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RegisterDealerMessage struct {
	BusinessName               string `json:"business_name"`
	Email                      string `json:"email"`
	Phone                      string `json:"phone"`
	Whatsapp                   string `json:"whatsapp"`
	Location                   string `json:"location"`
	Address                    string `json:"address"`
	BusinessRegistrationNumber string `json:"business_registration_number"`
	Password                   string `json:"password"`
	IP                         string `json:"-"`
	UserAgent                  string `json:"-"`
	OnResponse                 func(resp *RegisterDealerResponse)
}

func (e RegisterDealerMessage) Type() string { return "dealer.register" }

type RegisterDealerResponse struct {
	Dealer  *Dealer
	Success bool
}

type RegisterDealerHandler struct {
	repo   RepositoryManager
	sink   AuthSink
	logger Logger
}

func NewRegisterDealerHandler(repo RepositoryManager, sink AuthSink, logger Logger) *RegisterDealerHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RegisterDealerHandler{repo: repo, sink: normalizeAuthSink(sink), logger: logger}
}

func (h *RegisterDealerHandler) Execute(ctx context.Context, event RegisterDealerMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during dealer registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterDealerHandler) execute(ctx context.Context, event RegisterDealerMessage) error {
	record := &Dealer{}
	resp := &RegisterDealerResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := ValidatePasswordStrength(event.Password); err != nil {
		return err
	}

	email := NormalizeEmail(event.Email)

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Dealers().GetByEmailTx(ctx, tx, email)
		if err == nil {
			return ErrDealerExists.WithMetadata(map[string]any{
				"email":  email,
				"status": existing.Status,
			})
		}
		if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check dealer email")
		}

		record.BusinessName = event.BusinessName
		record.Email = email
		record.Phone = event.Phone
		record.Whatsapp = event.Whatsapp
		record.Location = event.Location
		record.Address = event.Address
		record.BusinessRegistrationNumber = event.BusinessRegistrationNumber
		record.Status = StatusPending

		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		record.PasswordHash = hash
		now := time.Now()
		record.PasswordSetAt = &now

		if record, err = h.repo.Dealers().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create dealer")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "dealer registration transaction failed")
	}

	id := record.ID
	recordAuthEvent(ctx, h.sink, h.logger, AuthEvent{
		Type:        AuthEventRegistration,
		DealerID:    &id,
		DealerEmail: record.Email,
		Success:     true,
		IP:          event.IP,
		UserAgent:   event.UserAgent,
	})

	resp.Dealer = record
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
