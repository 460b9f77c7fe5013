package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/plateful-app/plateful/internal/store"
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed token, expired token. Callers must not distinguish them.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the token payload: just enough identity to find the account
// again, plus the standard time bounds.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Issuer mints and verifies bearer tokens. The signing secret is injected at
// construction; an empty secret is rejected in main before any Issuer exists.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the validity window, which is also the auth cookie's max age.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for the given account.
func (i *Issuer) Issue(u *store.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
	})
	return token.SignedString(i.secret)
}

// Parse verifies signature and expiry and returns the embedded claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
