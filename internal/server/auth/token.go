// Package auth holds the security primitives behind sign-in: the session
// token issuer and the password verifiers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the non-sensitive identity projection embedded in a
// session token. It is a closed struct so no other record field can end up
// in the token by accident.
type SessionClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// tokenClaims is the JWT payload: registered claims plus SessionClaims,
// flattened into one JSON object.
type tokenClaims struct {
	jwt.RegisteredClaims
	SessionClaims
}

// SessionToken is the decoded form of a verified token.
type SessionToken struct {
	ID        string
	Subject   string
	Claims    SessionClaims
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 session tokens with a key fixed at
// construction. It holds no mutable state and is safe for concurrent use.
type TokenIssuer struct {
	key []byte
	now func() time.Time
}

// NewTokenIssuer copies key so later changes to the caller's slice do not
// affect issued tokens. An empty key is accepted here and reported by Issue
// and Parse as an internal error.
func NewTokenIssuer(key []byte) *TokenIssuer {
	return &TokenIssuer{key: append([]byte(nil), key...), now: time.Now}
}

// Issue mints a token for subject carrying claims, valid for ttl from now.
func (i *TokenIssuer) Issue(claims SessionClaims, subject string, ttl time.Duration) (string, error) {
	if len(i.key) == 0 {
		return "", fmt.Errorf("%w: %w", common.ErrorInternal, common.ErrMissingSecret)
	}

	issuedAt := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		SessionClaims: claims,
	})

	tokenString, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("%w: signing token: %w", common.ErrorInternal, err)
	}

	return tokenString, nil
}

// Parse verifies signature and expiry and returns the decoded token.
// Expired tokens yield common.ErrTokenExpired; every other rejection is
// common.ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenString string) (*SessionToken, error) {
	if len(i.key) == 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, common.ErrMissingSecret)
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	out := &SessionToken{
		ID:        claims.ID,
		Subject:   claims.Subject,
		Claims:    claims.SessionClaims,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
