package dealer

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeDealerExists           = "DEALER_EMAIL_EXISTS"
	TextCodeDealerNotFound         = "DEALER_NOT_FOUND"
	TextCodeInvalidTransition      = "INVALID_DEALER_STATE_TRANSITION"
	TextCodeRegistrationIncomplete = "DEALER_REGISTRATION_INCOMPLETE"
	TextCodeSetupTokenInvalid      = "SETUP_TOKEN_INVALID"
	TextCodeSetupTokenExpired      = "SETUP_TOKEN_EXPIRED"
	TextCodeSetupNotAllowed        = "SETUP_NOT_ALLOWED"
	TextCodePasswordPolicy         = "PASSWORD_POLICY_VIOLATION"
	TextCodePasswordMismatch       = "PASSWORD_CONFIRMATION_MISMATCH"
	TextCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	TextCodeAccountLocked          = "ACCOUNT_LOCKED"
	TextCodeSessionInvalid         = "SESSION_INVALID"
	TextCodeAdminUnresolved        = "ADMIN_ACTOR_UNRESOLVED"
)

// ErrDealerExists is returned when registering an email that is already taken,
// regardless of the existing account's status.
var ErrDealerExists = goerrors.New("a dealer account with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDealerExists).
	WithCode(goerrors.CodeConflict)

// ErrDealerNotFound is returned when no dealer matches the given identifier.
var ErrDealerNotFound = goerrors.New("dealer not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeDealerNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidTransition is returned when a lifecycle change is not allowed from
// the dealer's current status.
var ErrInvalidTransition = goerrors.New("dealer status does not allow this transition", goerrors.CategoryConflict).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(goerrors.CodeConflict)

// ErrRegistrationIncomplete is returned when approving a dealer that never set
// credentials during registration.
var ErrRegistrationIncomplete = goerrors.New("dealer has not completed registration (no password set)", goerrors.CategoryValidation).
	WithTextCode(TextCodeRegistrationIncomplete).
	WithCode(goerrors.CodeBadRequest)

// ErrSetupTokenInvalid covers both an unknown token and a token that was
// already redeemed; callers cannot tell the two apart.
var ErrSetupTokenInvalid = goerrors.New("invalid setup link or token", goerrors.CategoryNotFound).
	WithTextCode(TextCodeSetupTokenInvalid).
	WithCode(goerrors.CodeNotFound)

// ErrSetupTokenExpired is distinct from invalid so clients can prompt for a
// re-issued link.
var ErrSetupTokenExpired = goerrors.New("setup token has expired, contact an administrator for a new setup link", goerrors.CategoryValidation).
	WithTextCode(TextCodeSetupTokenExpired).
	WithCode(410)

// ErrSetupNotAllowed is returned when the dealer exists but its status does
// not permit password setup.
var ErrSetupNotAllowed = goerrors.New("account must be verified before setting up a password", goerrors.CategoryAuth).
	WithTextCode(TextCodeSetupNotAllowed).
	WithCode(goerrors.CodeForbidden)

// ErrPasswordMismatch is returned when password and confirmation differ.
var ErrPasswordMismatch = goerrors.New("passwords do not match", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials is the uniform login failure; it does not disclose
// whether the email or the password was wrong.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked is returned while a lockout window is in effect.
var ErrAccountLocked = goerrors.New("account is temporarily locked due to multiple failed login attempts", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountLocked).
	WithCode(423)

// ErrUnauthenticated is the single uniform session failure; missing, expired,
// and not-active dealers are indistinguishable to external callers.
var ErrUnauthenticated = goerrors.New("invalid or expired session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrAdminUnresolved aborts any admin action whose actor cannot be resolved.
var ErrAdminUnresolved = goerrors.New("could not resolve admin actor", goerrors.CategoryInternal).
	WithTextCode(TextCodeAdminUnresolved).
	WithCode(goerrors.CodeInternal)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password cannot be empty")

// ErrMismatchedHashAndPassword signals a failed bcrypt comparison
var ErrMismatchedHashAndPassword = errors.New("password does not match")
