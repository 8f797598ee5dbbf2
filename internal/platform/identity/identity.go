package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	UserID    string
	CompanyID string
}

// Claims carries the company scope next to the registered JWT claims.
type Claims struct {
	CompanyID string `json:"company_id"`
	jwt.RegisteredClaims
}

// Verifier validates and issues HS256 bearer tokens.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Verify parses a raw token. Every failure wraps ErrUnauthenticated.
func (v *Verifier) Verify(raw string) (Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Principal{}, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}
	if len(v.secret) == 0 {
		return Principal{}, fmt.Errorf("%w: verifier has no secret", ErrUnauthenticated)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return Principal{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	if claims.ExpiresAt == nil {
		return Principal{}, fmt.Errorf("%w: token has no expiry", ErrUnauthenticated)
	}

	principal := Principal{
		UserID:    strings.TrimSpace(claims.Subject),
		CompanyID: strings.TrimSpace(claims.CompanyID),
	}
	if principal.UserID == "" || principal.CompanyID == "" {
		return Principal{}, fmt.Errorf("%w: token is missing subject or company", ErrUnauthenticated)
	}
	return principal, nil
}

// Issue signs a token for the principal. Used by tests and local tooling.
func (v *Verifier) Issue(principal Principal, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		CompanyID: principal.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

func FromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(Principal)
	return principal, ok
}
