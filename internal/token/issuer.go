// Package token issues and verifies the signed access tokens used as
// bearer credentials. Tokens are self-contained HS256 JWTs carrying the
// username as subject plus the granted role names.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is returned when the signature does not verify.
	ErrTokenInvalid = errors.New("token signature invalid")
	// ErrTokenMalformed is returned when the string is not a parsable JWT.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the payload embedded in every access token.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access tokens with a server-held symmetric
// key. The key and lifetime are fixed at construction; an Issuer has no
// other state and is safe for concurrent use.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer returns an Issuer signing with the given secret. Tokens are
// valid for ttl from the moment they are issued.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured access-token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for the given subject and roles. It returns the
// compact JWT string and its expiry instant.
func (i *Issuer) Issue(username string, roles []string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the signature and the registered claims. The signature is
// validated before expiry, so a tampered token reports ErrTokenInvalid
// even when it is also expired.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, i.keyFunc)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Subject extracts the subject claim without validating the registered
// claims. The signature is still enforced. It must not be used as the
// sole trust decision; callers establish validity through Verify and the
// revocation store first.
func (i *Issuer) Subject(raw string) (string, error) {
	claims, err := i.parseSkippingValidation(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Expiry returns the expiry claim of a well-signed token, including one
// that has already expired. Logout uses it to compute the remaining
// lifetime for the deny entry.
func (i *Issuer) Expiry(raw string) (time.Time, error) {
	claims, err := i.parseSkippingValidation(raw)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenMalformed
	}
	return claims.ExpiresAt.Time, nil
}

func (i *Issuer) parseSkippingValidation(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, i.keyFunc, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (i *Issuer) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrTokenInvalid
	}
	return i.secret, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}
