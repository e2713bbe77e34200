package dealer

import (
	"github.com/golang-jwt/jwt/v5"
)

// AdminTokenVerifier validates bearer tokens issued by the external identity
// provider that fronts admin logins. Tokens are HS256 signed with a shared
// secret; the subject claim carries the provider-side auth id.
type AdminTokenVerifier struct {
	signingKey []byte
	issuer     string
}

func NewAdminTokenVerifier(cfg Config) *AdminTokenVerifier {
	return &AdminTokenVerifier{
		signingKey: []byte(cfg.GetAdminSigningKey()),
		issuer:     cfg.GetAdminIssuer(),
	}
}

type adminClaims struct {
	Email    string `json:"email"`
	FullName string `json:"name"`
	jwt.RegisteredClaims
}

// ParseIdentity verifies the token and extracts the external identity. Any
// verification failure maps to ErrUnauthenticated; callers get no detail on
// why a token was rejected.
func (v *AdminTokenVerifier) ParseIdentity(tokenString string) (ExternalIdentity, error) {
	if tokenString == "" {
		return ExternalIdentity{}, ErrUnauthenticated
	}

	claims := &adminClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.signingKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return ExternalIdentity{}, ErrUnauthenticated
	}

	if claims.Subject == "" {
		return ExternalIdentity{}, ErrUnauthenticated
	}

	return ExternalIdentity{
		AuthID:   claims.Subject,
		Email:    claims.Email,
		FullName: claims.FullName,
	}, nil
}
