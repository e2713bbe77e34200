package dealer

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthLogs is append-only; there are deliberately no update or delete
// methods on it.
type AuthLogs interface {
	Append(ctx context.Context, entry *AuthLogEntry) error
	AppendTx(ctx context.Context, tx bun.IDB, entry *AuthLogEntry) error
	ListByDealer(ctx context.Context, dealerID uuid.UUID, limit int) ([]*AuthLogEntry, error)
}

type authLogs struct {
	db *bun.DB
}

var _ AuthLogs = (*authLogs)(nil)

func NewAuthLogsRepository(db *bun.DB) AuthLogs {
	return &authLogs{db: db}
}

func (r *authLogs) Append(ctx context.Context, entry *AuthLogEntry) error {
	return r.AppendTx(ctx, r.db, entry)
}

func (r *authLogs) AppendTx(ctx context.Context, tx bun.IDB, entry *AuthLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := tx.NewInsert().
		Model(entry).
		Exec(ctx)
	return err
}

func (r *authLogs) ListByDealer(ctx context.Context, dealerID uuid.UUID, limit int) ([]*AuthLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []*AuthLogEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("?TableAlias.dealer_id = ?", dealerID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// NewAuthLogSink adapts the repository into an AuthSink. Failures are
// reported to the caller, which logs and continues; the audited operation is
// already committed by the time the sink runs.
func NewAuthLogSink(logs AuthLogs) AuthSink {
	return AuthSinkFunc(func(ctx context.Context, event AuthEvent) error {
		entry := &AuthLogEntry{
			DealerID:     event.DealerID,
			DealerEmail:  event.DealerEmail,
			EventType:    string(event.Type),
			Success:      event.Success,
			AdminID:      event.AdminID,
			AdminNotes:   event.Notes,
			ErrorMessage: event.ErrorMessage,
			IPAddress:    event.IP,
			UserAgent:    event.UserAgent,
		}
		if !event.OccurredAt.IsZero() {
			at := event.OccurredAt
			entry.CreatedAt = &at
		}
		return logs.Append(ctx, entry)
	})
}
