package dealer_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/justcars/go-dealer-auth"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockDealers implements dealer.Dealers for the methods the tests exercise;
// calling anything else panics through the embedded interface.
type MockDealers struct {
	mock.Mock
	dealer.Dealers
}

func (m *MockDealers) GetByEmail(ctx context.Context, email string) (*dealer.Dealer, error) {
	args := m.Called(ctx, email)
	return dealerArg(args.Get(0)), args.Error(1)
}

func (m *MockDealers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*dealer.Dealer, error) {
	args := m.Called(ctx, tx, email)
	return dealerArg(args.Get(0)), args.Error(1)
}

func (m *MockDealers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*dealer.Dealer, error) {
	args := m.Called(ctx, tx, identifier)
	return dealerArg(args.Get(0)), args.Error(1)
}

func (m *MockDealers) CreateTx(ctx context.Context, tx bun.IDB, record *dealer.Dealer, criteria ...repository.InsertCriteria) (*dealer.Dealer, error) {
	args := m.Called(ctx, tx, record)
	return dealerArg(args.Get(0)), args.Error(1)
}

func (m *MockDealers) VerifyTx(ctx context.Context, tx bun.IDB, id uuid.UUID, adminID uuid.UUID, notes, token string, expiresAt time.Time) (*dealer.Dealer, error) {
	args := m.Called(ctx, tx, id, adminID, notes, token, expiresAt)
	return dealerArg(args.Get(0)), args.Error(1)
}

func (m *MockDealers) ApproveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, adminID uuid.UUID, notes string) (*dealer.Dealer, error) {
	args := m.Called(ctx, tx, id, adminID, notes)
	return dealerArg(args.Get(0)), args.Error(1)
}

func (m *MockDealers) RedeemSetupTokenTx(ctx context.Context, tx bun.IDB, email, token, passwordHash string, now time.Time) (*dealer.Dealer, error) {
	args := m.Called(ctx, tx, email, token, passwordHash, now)
	return dealerArg(args.Get(0)), args.Error(1)
}

func (m *MockDealers) TrackFailedLogin(ctx context.Context, id uuid.UUID, lockAfter int, lockedUntil time.Time) (*dealer.Dealer, error) {
	args := m.Called(ctx, id, lockAfter, lockedUntil)
	return dealerArg(args.Get(0)), args.Error(1)
}

func (m *MockDealers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tx, id, at)
	return args.Error(0)
}

func dealerArg(v any) *dealer.Dealer {
	if v == nil {
		return nil
	}
	return v.(*dealer.Dealer)
}

// MockSessions implements dealer.DealerSessions
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Create(ctx context.Context, session *dealer.DealerSession) (*dealer.DealerSession, error) {
	args := m.Called(ctx, session)
	return sessionArg(args.Get(0)), args.Error(1)
}

func (m *MockSessions) CreateTx(ctx context.Context, tx bun.IDB, session *dealer.DealerSession) (*dealer.DealerSession, error) {
	args := m.Called(ctx, tx, session)
	return sessionArg(args.Get(0)), args.Error(1)
}

func (m *MockSessions) GetActiveWithDealer(ctx context.Context, token string, now time.Time) (*dealer.DealerSession, error) {
	args := m.Called(ctx, token, now)
	return sessionArg(args.Get(0)), args.Error(1)
}

func (m *MockSessions) GetByRefreshToken(ctx context.Context, refreshToken string, now time.Time) (*dealer.DealerSession, error) {
	args := m.Called(ctx, refreshToken, now)
	return sessionArg(args.Get(0)), args.Error(1)
}

func (m *MockSessions) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSessions) Rotate(ctx context.Context, id uuid.UUID, sessionToken, refreshToken string, expiresAt time.Time) (*dealer.DealerSession, error) {
	args := m.Called(ctx, id, sessionToken, refreshToken, expiresAt)
	return sessionArg(args.Get(0)), args.Error(1)
}

func (m *MockSessions) DeleteByToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func sessionArg(v any) *dealer.DealerSession {
	if v == nil {
		return nil
	}
	return v.(*dealer.DealerSession)
}

// MockAdmins implements dealer.Admins
type MockAdmins struct {
	mock.Mock
}

func (m *MockAdmins) Ensure(ctx context.Context, authID, email, fullName string) (*dealer.Admin, error) {
	args := m.Called(ctx, authID, email, fullName)
	if v := args.Get(0); v != nil {
		return v.(*dealer.Admin), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdmins) EnsureTx(ctx context.Context, tx bun.IDB, authID, email, fullName string) (*dealer.Admin, error) {
	args := m.Called(ctx, tx, authID, email, fullName)
	if v := args.Get(0); v != nil {
		return v.(*dealer.Admin), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdmins) GetByAuthID(ctx context.Context, authID string) (*dealer.Admin, error) {
	args := m.Called(ctx, authID)
	if v := args.Get(0); v != nil {
		return v.(*dealer.Admin), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuthLogs implements dealer.AuthLogs
type MockAuthLogs struct {
	mock.Mock
}

func (m *MockAuthLogs) Append(ctx context.Context, entry *dealer.AuthLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuthLogs) AppendTx(ctx context.Context, tx bun.IDB, entry *dealer.AuthLogEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockAuthLogs) ListByDealer(ctx context.Context, dealerID uuid.UUID, limit int) ([]*dealer.AuthLogEntry, error) {
	args := m.Called(ctx, dealerID, limit)
	if v := args.Get(0); v != nil {
		return v.([]*dealer.AuthLogEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRepositoryManager wires the repository mocks together. RunInTx invokes
// the callback with a zero transaction; repositories are mocks so the tx is
// never used.
type MockRepositoryManager struct {
	Dls  *MockDealers
	Sess *MockSessions
	Adm  *MockAdmins
	Logs *MockAuthLogs
}

func NewMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{
		Dls:  &MockDealers{},
		Sess: &MockSessions{},
		Adm:  &MockAdmins{},
		Logs: &MockAuthLogs{},
	}
}

func (m *MockRepositoryManager) Validate() error { return nil }
func (m *MockRepositoryManager) MustValidate()   {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Dealers() dealer.Dealers         { return m.Dls }
func (m *MockRepositoryManager) Sessions() dealer.DealerSessions { return m.Sess }
func (m *MockRepositoryManager) Admins() dealer.Admins           { return m.Adm }
func (m *MockRepositoryManager) AuthLogs() dealer.AuthLogs       { return m.Logs }

// RecordingSink captures every event for assertions.
type RecordingSink struct {
	mu     sync.Mutex
	Events []dealer.AuthEvent
}

func (s *RecordingSink) Record(_ context.Context, event dealer.AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
	return nil
}

func (s *RecordingSink) ByType(t dealer.AuthEventType) []dealer.AuthEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []dealer.AuthEvent
	for _, e := range s.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
