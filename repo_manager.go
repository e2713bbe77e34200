package dealer

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Dealers() Dealers
	Sessions() DealerSessions
	Admins() Admins
	AuthLogs() AuthLogs
}

type mngr struct {
	db       *bun.DB
	dealers  Dealers
	sessions DealerSessions
	admins   Admins
	authLogs AuthLogs
}

func NewRepositoryManager(db *bun.DB, opts ...DealersOption) RepositoryManager {
	return &mngr{
		db:       db,
		dealers:  NewDealersRepository(db, opts...),
		sessions: NewDealerSessionsRepository(db),
		admins:   NewAdminsRepository(db),
		authLogs: NewAuthLogsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.dealers == nil {
		return errors.New("repository dealers should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	if m.admins == nil {
		return errors.New("repository admins should be initialized")
	}

	if m.authLogs == nil {
		return errors.New("repository authLogs should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Dealers() Dealers {
	return m.dealers
}

func (m mngr) Sessions() DealerSessions {
	return m.sessions
}

func (m mngr) Admins() Admins {
	return m.admins
}

func (m mngr) AuthLogs() AuthLogs {
	return m.authLogs
}
