package dealer

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DealerStatus is the dealer's lifecycle status
type DealerStatus = string

const (
	// StatusPending is a self-registered dealer awaiting admin review
	StatusPending DealerStatus = "pending"
	// StatusVerified is an admin-verified dealer that has not yet set a password
	StatusVerified DealerStatus = "verified"
	// StatusActive is a fully onboarded dealer able to authenticate
	StatusActive DealerStatus = "active"
	// StatusSuspended is recognized at login time only; no transition in this
	// subsystem produces it
	StatusSuspended DealerStatus = "suspended"
)

// Dealer is the marketplace seller account model
type Dealer struct {
	bun.BaseModel `bun:"table:dealers,alias:dlr"`

	ID                         uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	BusinessName               string       `bun:"business_name,notnull" json:"business_name,omitempty"`
	Email                      string       `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone                      string       `bun:"phone,notnull" json:"phone,omitempty"`
	Whatsapp                   string       `bun:"whatsapp" json:"whatsapp,omitempty"`
	Location                   string       `bun:"location" json:"location,omitempty"`
	Address                    string       `bun:"address" json:"address,omitempty"`
	BusinessRegistrationNumber string       `bun:"business_registration_number" json:"business_registration_number,omitempty"`
	BadgeType                  string       `bun:"badge_type" json:"badge_type,omitempty"`
	Status                     DealerStatus `bun:"status,notnull" json:"status,omitempty"`

	PasswordHash  string     `bun:"password_hash" json:"-"`
	PasswordSetAt *time.Time `bun:"password_set_at,nullzero" json:"password_set_at,omitempty"`

	IsVerified        bool       `bun:"is_verified" json:"is_verified,omitempty"`
	VerifiedAt        *time.Time `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	VerifiedByAdminID *uuid.UUID `bun:"verified_by_admin_id,nullzero,type:uuid" json:"verified_by_admin_id,omitempty"`
	VerificationNotes string     `bun:"verification_notes" json:"verification_notes,omitempty"`

	SetupToken          string     `bun:"setup_token,nullzero" json:"-"`
	SetupTokenExpiresAt *time.Time `bun:"setup_token_expires_at,nullzero" json:"-"`

	LoginAttempts int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LockedUntil   *time.Time `bun:"locked_until,nullzero" json:"locked_until,omitempty"`
	LastLoginAt   *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus normalizes a zero status to pending
func (d *Dealer) EnsureStatus() {
	if d.Status == "" {
		d.Status = StatusPending
	}
}

// IsActive reports whether the dealer finished onboarding
func (d *Dealer) IsActive() bool {
	return d.Status == StatusActive
}

// HasCredentials reports whether a password hash is on record
func (d *Dealer) HasCredentials() bool {
	return d.PasswordHash != ""
}

// Admin is an internal operator identity, provisioned lazily from an
// externally managed auth identity
type Admin struct {
	bun.BaseModel `bun:"table:admins,alias:adm"`

	ID        uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AuthID    string     `bun:"auth_id,notnull,unique" json:"auth_id,omitempty"`
	Email     string     `bun:"email,notnull" json:"email,omitempty"`
	FullName  string     `bun:"full_name" json:"full_name,omitempty"`
	Role      string     `bun:"role,notnull" json:"role,omitempty"`
	IsActive  bool       `bun:"is_active" json:"is_active,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// DealerSession is one authenticated dealer browser/agent
type DealerSession struct {
	bun.BaseModel `bun:"table:dealer_sessions,alias:sess"`

	ID           uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	DealerID     uuid.UUID  `bun:"dealer_id,notnull,type:uuid" json:"dealer_id,omitempty"`
	Dealer       *Dealer    `bun:"rel:belongs-to,join:dealer_id=id" json:"dealer,omitempty"`
	SessionToken string     `bun:"session_token,notnull,unique" json:"-"`
	RefreshToken string     `bun:"refresh_token" json:"-"`
	IPAddress    string     `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent    string     `bun:"user_agent" json:"user_agent,omitempty"`
	ExpiresAt    time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	LastActiveAt *time.Time `bun:"last_active_at,nullzero" json:"last_active_at,omitempty"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the session is past its expiry at the given time
func (s *DealerSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// AuthLogEntry is an append-only audit record; never mutated or deleted here
type AuthLogEntry struct {
	bun.BaseModel `bun:"table:dealer_auth_logs,alias:alog"`

	ID           uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	DealerID     *uuid.UUID `bun:"dealer_id,nullzero,type:uuid" json:"dealer_id,omitempty"`
	DealerEmail  string     `bun:"dealer_email" json:"dealer_email,omitempty"`
	EventType    string     `bun:"event_type,notnull" json:"event_type,omitempty"`
	Success      bool       `bun:"success" json:"success,omitempty"`
	AdminID      *uuid.UUID `bun:"admin_id,nullzero,type:uuid" json:"admin_id,omitempty"`
	AdminNotes   string     `bun:"admin_notes" json:"admin_notes,omitempty"`
	ErrorMessage string     `bun:"error_message" json:"error_message,omitempty"`
	IPAddress    string     `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent    string     `bun:"user_agent" json:"user_agent,omitempty"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
