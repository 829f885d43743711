package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrNoSession covers every reason a token cannot be used: absent,
	// malformed, bad signature, expired or carrying an unknown role.
	ErrNoSession     = errors.New("no valid session")
	ErrSecretTooWeak = errors.New("session secret must be at least 32 bytes")
)

const minSecretLength = 32

// Claims is the signed session payload: {sub, role, iat, exp}.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenIssuer mints and verifies stateless HS256 session tokens. A token is
// valid for maxAge after issuance and is reissued once it is older than updateAge.
type TokenIssuer struct {
	secret    []byte
	maxAge    time.Duration
	updateAge time.Duration
	now       func() time.Time
}

func NewTokenIssuer(secret string, maxAge, updateAge time.Duration) (*TokenIssuer, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooWeak
	}
	if updateAge <= 0 || updateAge > maxAge {
		updateAge = maxAge
	}
	return &TokenIssuer{
		secret:    []byte(secret),
		maxAge:    maxAge,
		updateAge: updateAge,
		now:       time.Now,
	}, nil
}

func (i *TokenIssuer) MaxAge() time.Duration { return i.maxAge }

// SigningKey exposes the HMAC key for middleware that verifies tokens itself.
func (i *TokenIssuer) SigningKey() []byte { return i.secret }

func (i *TokenIssuer) Mint(userID uuid.UUID, role Role) (string, *Claims, error) {
	if !role.Valid() {
		return "", nil, fmt.Errorf("cannot mint token: unknown role %q", role)
	}

	now := i.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.maxAge)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, claims, nil
}

func (i *TokenIssuer) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoSession
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if err := validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Refresh reissues the token when it is due for an update. The returned bool
// is false when claims are still fresh and the caller should keep the old token.
func (i *TokenIssuer) Refresh(claims *Claims) (string, *Claims, bool, error) {
	if claims == nil || claims.IssuedAt == nil {
		return "", nil, false, ErrNoSession
	}
	if i.now().Sub(claims.IssuedAt.Time) < i.updateAge {
		return "", claims, false, nil
	}

	userID, err := claims.UserID()
	if err != nil {
		return "", nil, false, fmt.Errorf("%w: bad subject", ErrNoSession)
	}
	token, fresh, err := i.Mint(userID, claims.Role)
	if err != nil {
		return "", nil, false, err
	}
	return token, fresh, true, nil
}

func (i *TokenIssuer) keyFunc(_ *jwt.Token) (interface{}, error) {
	return i.secret, nil
}

// validateClaims applies the checks jwt parsing does not know about.
func validateClaims(claims *Claims) error {
	if !claims.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrNoSession, claims.Role)
	}
	if _, err := claims.UserID(); err != nil {
		return fmt.Errorf("%w: bad subject", ErrNoSession)
	}
	return nil
}

// ValidateClaims is used by middleware that parsed the token with its own jwt setup.
func ValidateClaims(claims *Claims) error {
	if claims == nil {
		return ErrNoSession
	}
	return validateClaims(claims)
}
