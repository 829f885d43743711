package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	appleIssuer         = "https://appleid.apple.com"
	defaultAppleJWKSURL = "https://appleid.apple.com/auth/keys"
)

// AppleProvider verifies Sign in with Apple identity tokens against Apple's
// published signing keys. The key set is fetched on first use and refreshed
// in the background.
type AppleProvider struct {
	audiences []string
	jwksURL   string

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

func NewAppleProvider(audiences []string, jwksURL string) *AppleProvider {
	if jwksURL == "" {
		jwksURL = defaultAppleJWKSURL
	}
	return &AppleProvider{audiences: audiences, jwksURL: jwksURL}
}

func (p *AppleProvider) Name() string { return "apple" }

// appleBool accepts both true and "true"; Apple has sent either form.
type appleBool bool

func (b *appleBool) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*b = appleBool(s == "true")
	return nil
}

type appleClaims struct {
	Email         string    `json:"email"`
	EmailVerified appleBool `json:"email_verified"`
	jwt.RegisteredClaims
}

func (p *AppleProvider) keySet() (*keyfunc.JWKS, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.jwks != nil {
		return p.jwks, nil
	}

	jwks, err := keyfunc.Get(p.jwksURL, keyfunc.Options{
		RefreshInterval:   24 * time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.Error("apple jwks refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch apple jwks: %w", err)
	}
	p.jwks = jwks
	return jwks, nil
}

func (p *AppleProvider) Verify(_ context.Context, a Assertion) (*FederatedProfile, error) {
	if a.IDToken == "" {
		return nil, errors.New("apple: identity token is required")
	}
	if len(p.audiences) == 0 {
		return nil, errors.New("apple: no client ids configured")
	}

	jwks, err := p.keySet()
	if err != nil {
		return nil, err
	}

	claims := &appleClaims{}
	_, err = jwt.ParseWithClaims(a.IDToken, claims, jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("apple: invalid identity token: %w", err)
	}
	if !p.audienceAllowed(claims.Audience) {
		return nil, fmt.Errorf("apple: invalid audience %v", claims.Audience)
	}
	if claims.Subject == "" {
		return nil, errors.New("apple: token has no subject")
	}

	return &FederatedProfile{
		Provider:      p.Name(),
		AccountID:     claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          a.Name,
		IDToken:       a.IDToken,
		TokenType:     "id_token",
	}, nil
}

func (p *AppleProvider) audienceAllowed(aud jwt.ClaimStrings) bool {
	for _, got := range aud {
		for _, want := range p.audiences {
			if got == want {
				return true
			}
		}
	}
	return false
}

// Close stops the background key refresh.
func (p *AppleProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.jwks != nil {
		p.jwks.EndBackground()
	}
}

var _ IdentityProvider = (*AppleProvider)(nil)
