package dealer

import (
	"context"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Admins provisions operator rows lazily from external identities.
type Admins interface {
	Ensure(ctx context.Context, authID, email, fullName string) (*Admin, error)
	EnsureTx(ctx context.Context, tx bun.IDB, authID, email, fullName string) (*Admin, error)
	GetByAuthID(ctx context.Context, authID string) (*Admin, error)
}

type admins struct {
	db *bun.DB
}

var _ Admins = (*admins)(nil)

func NewAdminsRepository(db *bun.DB) Admins {
	return &admins{db: db}
}

// Ensure inserts the admin if absent, keyed on auth_id. The upsert is a
// single statement so two concurrent calls for the same auth_id both land on
// one row; last writer wins on the mutable columns.
func (r *admins) Ensure(ctx context.Context, authID, email, fullName string) (*Admin, error) {
	return r.EnsureTx(ctx, r.db, authID, email, fullName)
}

func (r *admins) EnsureTx(ctx context.Context, tx bun.IDB, authID, email, fullName string) (*Admin, error) {
	record := &Admin{
		ID:       adminID(authID),
		AuthID:   authID,
		Email:    NormalizeEmail(email),
		FullName: fullName,
		Role:     "admin",
		IsActive: true,
	}

	err := tx.NewInsert().
		Model(record).
		On("CONFLICT (auth_id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("full_name = EXCLUDED.full_name").
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *admins) GetByAuthID(ctx context.Context, authID string) (*Admin, error) {
	record := &Admin{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.auth_id = ?", authID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// adminID derives a stable UUID from the external auth id so repeated
// bootstraps of the same identity agree on the row id even before the
// conflict clause kicks in.
func adminID(authID string) uuid.UUID {
	id, err := hashid.NewUUID(authID)
	if err != nil {
		return uuid.New()
	}
	return id
}
