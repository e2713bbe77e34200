package dealer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/justcars/go-dealer-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sessionFixture(now time.Time) *dealer.DealerSession {
	owner := &dealer.Dealer{
		ID:     uuid.New(),
		Email:  "active@example.com",
		Status: dealer.StatusActive,
	}
	return &dealer.DealerSession{
		ID:           uuid.New(),
		DealerID:     owner.ID,
		SessionToken: "session-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    now.Add(time.Hour),
		Dealer:       owner,
	}
}

func TestSessionValidateReturnsOwner(t *testing.T) {
	repo := NewMockRepositoryManager()
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	session := sessionFixture(now)

	repo.Sess.On("GetActiveWithDealer", mock.Anything, "session-token", now).
		Return(session, nil).Once()
	repo.Sess.On("Touch", mock.Anything, session.ID, now).
		Return(nil).Once()

	svc := dealer.NewSessionService(repo, nil, nil).
		WithClock(func() time.Time { return now })

	owner, err := svc.Validate(context.Background(), "session-token")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, session.DealerID, owner.ID)

	repo.Sess.AssertExpectations(t)
}

func TestSessionValidateToleratesTouchFailure(t *testing.T) {
	repo := NewMockRepositoryManager()
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	session := sessionFixture(now)

	repo.Sess.On("GetActiveWithDealer", mock.Anything, "session-token", now).
		Return(session, nil).Once()
	repo.Sess.On("Touch", mock.Anything, session.ID, now).
		Return(errors.New("db busy")).Once()

	svc := dealer.NewSessionService(repo, nil, nil).
		WithClock(func() time.Time { return now })

	owner, err := svc.Validate(context.Background(), "session-token")
	require.NoError(t, err)
	assert.NotNil(t, owner)
}

func TestSessionValidateRejections(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty token", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		svc := dealer.NewSessionService(repo, nil, nil)

		_, err := svc.Validate(context.Background(), "")
		assert.ErrorIs(t, err, dealer.ErrUnauthenticated)
		repo.Sess.AssertNotCalled(t, "GetActiveWithDealer",
			mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown or expired token", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		repo.Sess.On("GetActiveWithDealer", mock.Anything, "gone-token", now).
			Return(nil, repository.NewRecordNotFound()).Once()

		svc := dealer.NewSessionService(repo, nil, nil).
			WithClock(func() time.Time { return now })

		_, err := svc.Validate(context.Background(), "gone-token")
		assert.ErrorIs(t, err, dealer.ErrUnauthenticated)
	})

	t.Run("owner no longer active", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		session := sessionFixture(now)
		session.Dealer.Status = dealer.StatusSuspended

		repo.Sess.On("GetActiveWithDealer", mock.Anything, "session-token", now).
			Return(session, nil).Once()

		svc := dealer.NewSessionService(repo, nil, nil).
			WithClock(func() time.Time { return now })

		_, err := svc.Validate(context.Background(), "session-token")
		assert.ErrorIs(t, err, dealer.ErrUnauthenticated)
		repo.Sess.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("session without owner row", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		session := sessionFixture(now)
		session.Dealer = nil

		repo.Sess.On("GetActiveWithDealer", mock.Anything, "session-token", now).
			Return(session, nil).Once()

		svc := dealer.NewSessionService(repo, nil, nil).
			WithClock(func() time.Time { return now })

		_, err := svc.Validate(context.Background(), "session-token")
		assert.ErrorIs(t, err, dealer.ErrUnauthenticated)
	})
}

func TestSessionRefreshRotatesBothTokens(t *testing.T) {
	repo := NewMockRepositoryManager()
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	session := sessionFixture(now)

	repo.Sess.On("GetByRefreshToken", mock.Anything, "refresh-token", now).
		Return(session, nil).Once()

	var newToken, newRefresh string
	repo.Sess.On("Rotate", mock.Anything, session.ID, mock.Anything, mock.Anything, now.Add(dealer.SessionTTL)).
		Run(func(args mock.Arguments) {
			newToken = args.Get(2).(string)
			newRefresh = args.Get(3).(string)
		}).
		Return(&dealer.DealerSession{
			ID:        session.ID,
			DealerID:  session.DealerID,
			ExpiresAt: now.Add(dealer.SessionTTL),
		}, nil).Once()

	svc := dealer.NewSessionService(repo, nil, nil).
		WithClock(func() time.Time { return now })

	rotated, err := svc.Refresh(context.Background(), "refresh-token")
	require.NoError(t, err)
	require.NotNil(t, rotated)

	assert.NotEmpty(t, newToken)
	assert.NotEmpty(t, newRefresh)
	assert.NotEqual(t, "session-token", newToken)
	assert.NotEqual(t, "refresh-token", newRefresh)
	assert.NotEqual(t, newToken, newRefresh)

	repo.Sess.AssertExpectations(t)
}

func TestSessionRefreshUnknownTokenIsUnauthorized(t *testing.T) {
	repo := NewMockRepositoryManager()
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	repo.Sess.On("GetByRefreshToken", mock.Anything, "stale-refresh", now).
		Return(nil, repository.NewRecordNotFound()).Once()

	svc := dealer.NewSessionService(repo, nil, nil).
		WithClock(func() time.Time { return now })

	_, err := svc.Refresh(context.Background(), "stale-refresh")
	assert.ErrorIs(t, err, dealer.ErrUnauthenticated)
}

func TestSessionRevokeIsIdempotent(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty token is a no-op", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		svc := dealer.NewSessionService(repo, nil, nil)

		require.NoError(t, svc.Revoke(context.Background(), ""))
		repo.Sess.AssertNotCalled(t, "DeleteByToken", mock.Anything, mock.Anything)
	})

	t.Run("known token is deleted and audited", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		sink := &RecordingSink{}
		session := sessionFixture(now)

		repo.Sess.On("GetActiveWithDealer", mock.Anything, "session-token", now).
			Return(session, nil).Once()
		repo.Sess.On("DeleteByToken", mock.Anything, "session-token").
			Return(nil).Once()

		svc := dealer.NewSessionService(repo, sink, nil).
			WithClock(func() time.Time { return now })

		require.NoError(t, svc.Revoke(context.Background(), "session-token"))

		events := sink.ByType(dealer.AuthEventLogout)
		require.Len(t, events, 1)
		assert.Equal(t, session.Dealer.Email, events[0].DealerEmail)

		repo.Sess.AssertExpectations(t)
	})

	t.Run("unknown token still succeeds", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		repo.Sess.On("GetActiveWithDealer", mock.Anything, "gone-token", now).
			Return(nil, repository.NewRecordNotFound()).Once()
		repo.Sess.On("DeleteByToken", mock.Anything, "gone-token").
			Return(nil).Once()

		svc := dealer.NewSessionService(repo, nil, nil).
			WithClock(func() time.Time { return now })

		require.NoError(t, svc.Revoke(context.Background(), "gone-token"))
	})
}
