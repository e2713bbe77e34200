package dealer

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"
)

const (
	// SetupTokenTTL is how long a minted setup link remains redeemable
	SetupTokenTTL = 7 * 24 * time.Hour
	// SessionTTL is the lifetime of a dealer session
	SessionTTL = 7 * 24 * time.Hour
	// MaxLoginAttempts is the number of consecutive failures before lockout
	MaxLoginAttempts = 5
	// LockoutPeriod is how long an account stays locked after too many failures
	LockoutPeriod = 30 * time.Minute
)

// tokenEntropyBytes gives 256-bit opaque tokens
const tokenEntropyBytes = 32

// GenerateToken returns a URL-safe opaque token. It is used for setup,
// session, and refresh tokens alike.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SetupLink builds the password-setup URL handed to a newly verified dealer.
func SetupLink(baseURL, email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return fmt.Sprintf("%s/dealer/setup?%s", baseURL, q.Encode())
}
