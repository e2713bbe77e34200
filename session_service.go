package dealer

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// SessionService resolves opaque session tokens to dealers. Every failure
// mode collapses into ErrUnauthenticated so callers cannot probe which
// tokens exist.
type SessionService struct {
	repo   RepositoryManager
	sink   AuthSink
	logger Logger
	now    func() time.Time
}

func NewSessionService(repo RepositoryManager, sink AuthSink, logger Logger) *SessionService {
	if logger == nil {
		logger = defLogger{}
	}
	return &SessionService{
		repo:   repo,
		sink:   normalizeAuthSink(sink),
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (s *SessionService) WithClock(clock func() time.Time) *SessionService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Validate returns the active dealer behind the token. The session must not
// be expired and the dealer must still be active.
func (s *SessionService) Validate(ctx context.Context, token string) (*Dealer, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	now := s.now()

	session, err := s.repo.Sessions().GetActiveWithDealer(ctx, token, now)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session")
	}

	if session.Dealer == nil || !session.Dealer.IsActive() {
		return nil, ErrUnauthenticated
	}

	if err := s.repo.Sessions().Touch(ctx, session.ID, now); err != nil {
		s.logger.Warn("session touch failed: %v", err)
	}

	return session.Dealer, nil
}

// Refresh rotates the session and refresh tokens, extending expiry. There is
// no HTTP route for this yet; callers embed it where rotation is needed.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*DealerSession, error) {
	if refreshToken == "" {
		return nil, ErrUnauthenticated
	}

	now := s.now()

	session, err := s.repo.Sessions().GetByRefreshToken(ctx, refreshToken, now)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session")
	}

	if session.Dealer == nil || !session.Dealer.IsActive() {
		return nil, ErrUnauthenticated
	}

	newToken, err := GenerateToken()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint session token")
	}
	newRefresh, err := GenerateToken()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint refresh token")
	}

	rotated, err := s.repo.Sessions().Rotate(ctx, session.ID, newToken, newRefresh, now.Add(SessionTTL))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to rotate session")
	}

	return rotated, nil
}

// Revoke deletes the session behind the token. Revoking an unknown or
// already-revoked token succeeds; logout is idempotent.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	var owner *Dealer
	if session, err := s.repo.Sessions().GetActiveWithDealer(ctx, token, s.now()); err == nil {
		owner = session.Dealer
	}

	if err := s.repo.Sessions().DeleteByToken(ctx, token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke session")
	}

	ev := AuthEvent{
		Type:    AuthEventLogout,
		Success: true,
	}
	if owner != nil {
		id := owner.ID
		ev.DealerID = &id
		ev.DealerEmail = owner.Email
	}
	recordAuthEvent(ctx, s.sink, s.logger, ev)

	return nil
}
