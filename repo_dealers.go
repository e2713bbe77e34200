package dealer

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerifyDealerSQL moves a pending dealer to verified and mints the setup
// token in the same statement; the WHERE clause is the only arbiter under
// concurrency, zero rows means somebody else won.
var VerifyDealerSQL = `UPDATE "dealers" AS "dlr"
SET
	"status" = 'verified',
	"is_verified" = TRUE,
	"verified_at" = ?,
	"verified_by_admin_id" = ?,
	"verification_notes" = ?,
	"setup_token" = ?,
	"setup_token_expires_at" = ?,
	"updated_at" = ?
WHERE
	"dlr"."id" = ?
AND "dlr"."status" = 'pending'
RETURNING *;`

// ApproveDealerSQL is the fast path for dealers that registered with a
// password: straight to active, no setup token involved.
var ApproveDealerSQL = `UPDATE "dealers" AS "dlr"
SET
	"status" = 'active',
	"is_verified" = TRUE,
	"verified_at" = ?,
	"verified_by_admin_id" = ?,
	"verification_notes" = ?,
	"updated_at" = ?
WHERE
	"dlr"."id" = ?
AND "dlr"."status" = 'pending'
AND "dlr"."password_hash" IS NOT NULL
RETURNING *;`

// RedeemSetupTokenSQL verifies and consumes the setup token in one statement:
// the token columns are cleared in the same UPDATE that checks them, so a
// token can be redeemed at most once.
var RedeemSetupTokenSQL = `UPDATE "dealers" AS "dlr"
SET
	"password_hash" = ?,
	"password_set_at" = ?,
	"status" = 'active',
	"setup_token" = NULL,
	"setup_token_expires_at" = NULL,
	"updated_at" = ?
WHERE
	"dlr"."email" = ?
AND "dlr"."setup_token" = ?
AND "dlr"."status" = 'verified'
AND "dlr"."setup_token_expires_at" > ?
RETURNING *;`

// TrackFailedLoginSQL bumps the failure counter and locks the account once
// the threshold is reached, all server-side so concurrent failures cannot
// under-count.
var TrackFailedLoginSQL = `UPDATE "dealers" AS "dlr"
SET
	"login_attempts" = "dlr"."login_attempts" + 1,
	"locked_until" = CASE
		WHEN "dlr"."login_attempts" + 1 >= ? THEN ?
		ELSE "dlr"."locked_until"
	END,
	"updated_at" = ?
WHERE
	"dlr"."id" = ?
RETURNING *;`

type Dealers interface {
	repository.Repository[*Dealer]

	GetByEmail(ctx context.Context, email string) (*Dealer, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Dealer, error)

	Verify(ctx context.Context, id uuid.UUID, adminID uuid.UUID, notes, token string, expiresAt time.Time) (*Dealer, error)
	VerifyTx(ctx context.Context, tx bun.IDB, id uuid.UUID, adminID uuid.UUID, notes, token string, expiresAt time.Time) (*Dealer, error)
	Approve(ctx context.Context, id uuid.UUID, adminID uuid.UUID, notes string) (*Dealer, error)
	ApproveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, adminID uuid.UUID, notes string) (*Dealer, error)
	RedeemSetupToken(ctx context.Context, email, token, passwordHash string, now time.Time) (*Dealer, error)
	RedeemSetupTokenTx(ctx context.Context, tx bun.IDB, email, token, passwordHash string, now time.Time) (*Dealer, error)

	TrackFailedLogin(ctx context.Context, id uuid.UUID, lockAfter int, lockedUntil time.Time) (*Dealer, error)
	TrackFailedLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, lockAfter int, lockedUntil time.Time) (*Dealer, error)
	TrackSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
}

type dealers struct {
	repository.Repository[*Dealer]
	db  *bun.DB
	now func() time.Time
}

var (
	_ Dealers                        = (*dealers)(nil)
	_ repository.Repository[*Dealer] = (*dealers)(nil)
)

type DealersOption func(*dealers)

// WithDealersClock injects a custom clock (useful for tests).
func WithDealersClock(clock func() time.Time) DealersOption {
	return func(d *dealers) {
		if clock != nil {
			d.now = clock
		}
	}
}

func NewDealersRepository(db *bun.DB, opts ...DealersOption) Dealers {
	repo := repository.NewRepository[*Dealer](db, repository.ModelHandlers[*Dealer]{
		NewRecord: func() *Dealer { return &Dealer{} },
		GetID: func(d *Dealer) uuid.UUID {
			if d == nil {
				return uuid.Nil
			}
			return d.ID
		},
		SetID: func(d *Dealer, id uuid.UUID) {
			if d != nil {
				d.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoDealers := &dealers{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoDealers)
		}
	}

	return repoDealers
}

// NormalizeEmail is applied before every insert and lookup so the unique
// index on dealers.email compares the same representation everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *dealers) Create(ctx context.Context, record *Dealer, criteria ...repository.InsertCriteria) (*Dealer, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *dealers) CreateTx(ctx context.Context, tx bun.IDB, record *Dealer, criteria ...repository.InsertCriteria) (*Dealer, error) {
	prepareDealerDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *dealers) GetByEmail(ctx context.Context, email string) (*Dealer, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *dealers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Dealer, error) {
	email = NormalizeEmail(email)

	record := &Dealer{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *dealers) Verify(ctx context.Context, id uuid.UUID, adminID uuid.UUID, notes, token string, expiresAt time.Time) (*Dealer, error) {
	return a.VerifyTx(ctx, a.db, id, adminID, notes, token, expiresAt)
}

func (a *dealers) VerifyTx(ctx context.Context, tx bun.IDB, id uuid.UUID, adminID uuid.UUID, notes, token string, expiresAt time.Time) (*Dealer, error) {
	now := a.now()
	res, err := a.Repository.RawTx(ctx, tx, VerifyDealerSQL,
		now, adminID.String(), notes, token, expiresAt, now, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"dealer_id":  id.String(),
			"transition": string(TransitionVerify),
		})
	}

	return res[0], nil
}

func (a *dealers) Approve(ctx context.Context, id uuid.UUID, adminID uuid.UUID, notes string) (*Dealer, error) {
	return a.ApproveTx(ctx, a.db, id, adminID, notes)
}

func (a *dealers) ApproveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, adminID uuid.UUID, notes string) (*Dealer, error) {
	now := a.now()
	res, err := a.Repository.RawTx(ctx, tx, ApproveDealerSQL,
		now, adminID.String(), notes, now, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"dealer_id":  id.String(),
			"transition": string(TransitionApprove),
		})
	}

	return res[0], nil
}

func (a *dealers) RedeemSetupToken(ctx context.Context, email, token, passwordHash string, now time.Time) (*Dealer, error) {
	return a.RedeemSetupTokenTx(ctx, a.db, email, token, passwordHash, now)
}

func (a *dealers) RedeemSetupTokenTx(ctx context.Context, tx bun.IDB, email, token, passwordHash string, now time.Time) (*Dealer, error) {
	res, err := a.Repository.RawTx(ctx, tx, RedeemSetupTokenSQL,
		passwordHash, now, now, NormalizeEmail(email), token, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrSetupTokenInvalid
	}

	return res[0], nil
}

func (a *dealers) TrackFailedLogin(ctx context.Context, id uuid.UUID, lockAfter int, lockedUntil time.Time) (*Dealer, error) {
	return a.TrackFailedLoginTx(ctx, a.db, id, lockAfter, lockedUntil)
}

func (a *dealers) TrackFailedLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, lockAfter int, lockedUntil time.Time) (*Dealer, error) {
	now := a.now()
	res, err := a.Repository.RawTx(ctx, tx, TrackFailedLoginSQL,
		lockAfter, lockedUntil, now, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *dealers) TrackSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, id, at)
}

func (a *dealers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	// NOTE: the ORM update path skips zeroed counters, raw SQL resets them
	// reliably.
	_, err := tx.NewRaw(`
		UPDATE "dealers" AS "dlr"
		SET
			"login_attempts" = 0,
			"locked_until" = NULL,
			"last_login_at" = ?,
			"updated_at" = ?
		WHERE
			("dlr".id = ?);
	`, at, a.now(), id).Exec(ctx)

	return err
}

func prepareDealerDefaults(record *Dealer) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = NormalizeEmail(record.Email)
	record.EnsureStatus()
}
