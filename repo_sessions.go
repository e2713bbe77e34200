package dealer

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DealerSessions stores opaque server-side session rows. Tokens are the only
// handle clients hold; nothing in them is decodable.
type DealerSessions interface {
	Create(ctx context.Context, session *DealerSession) (*DealerSession, error)
	CreateTx(ctx context.Context, tx bun.IDB, session *DealerSession) (*DealerSession, error)
	GetActiveWithDealer(ctx context.Context, token string, now time.Time) (*DealerSession, error)
	GetByRefreshToken(ctx context.Context, refreshToken string, now time.Time) (*DealerSession, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Rotate(ctx context.Context, id uuid.UUID, sessionToken, refreshToken string, expiresAt time.Time) (*DealerSession, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type dealerSessions struct {
	db *bun.DB
}

var _ DealerSessions = (*dealerSessions)(nil)

func NewDealerSessionsRepository(db *bun.DB) DealerSessions {
	return &dealerSessions{db: db}
}

func (r *dealerSessions) Create(ctx context.Context, session *DealerSession) (*DealerSession, error) {
	return r.CreateTx(ctx, r.db, session)
}

func (r *dealerSessions) CreateTx(ctx context.Context, tx bun.IDB, session *DealerSession) (*DealerSession, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	_, err := tx.NewInsert().
		Model(session).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *dealerSessions) GetActiveWithDealer(ctx context.Context, token string, now time.Time) (*DealerSession, error) {
	session := &DealerSession{}
	err := r.db.NewSelect().
		Model(session).
		Relation("Dealer").
		Where("?TableAlias.session_token = ?", token).
		Where("?TableAlias.expires_at > ?", now).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return session, nil
}

func (r *dealerSessions) GetByRefreshToken(ctx context.Context, refreshToken string, now time.Time) (*DealerSession, error) {
	session := &DealerSession{}
	err := r.db.NewSelect().
		Model(session).
		Relation("Dealer").
		Where("?TableAlias.refresh_token = ?", refreshToken).
		Where("?TableAlias.expires_at > ?", now).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return session, nil
}

func (r *dealerSessions) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*DealerSession)(nil)).
		Set("last_active_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *dealerSessions) Rotate(ctx context.Context, id uuid.UUID, sessionToken, refreshToken string, expiresAt time.Time) (*DealerSession, error) {
	session := &DealerSession{}
	err := r.db.NewUpdate().
		Model(session).
		Set("session_token = ?", sessionToken).
		Set("refresh_token = ?", refreshToken).
		Set("expires_at = ?", expiresAt).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return session, nil
}

// DeleteByToken is idempotent; deleting an unknown token is not an error.
func (r *dealerSessions) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*DealerSession)(nil)).
		Where("session_token = ?", token).
		Exec(ctx)
	return err
}

// DeleteExpired is the sweep hook; nothing in this package schedules it.
func (r *dealerSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*DealerSession)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
