package services

import (
	"context"
	"time"
)

// Assertion is what the client hands us to prove a federated identity.
// Redirect flows send Code; native flows send IDToken.
type Assertion struct {
	Code    string
	IDToken string
	// Name is a display name supplied by the client. Some providers only
	// reveal it on the first authorization.
	Name string
}

// FederatedProfile is the verified identity extracted from an assertion.
type FederatedProfile struct {
	Provider      string
	AccountID     string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string

	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	Scope        string
	ExpiresAt    *time.Time
}

// IdentityProvider verifies assertions for one external provider.
type IdentityProvider interface {
	Name() string
	Verify(ctx context.Context, a Assertion) (*FederatedProfile, error)
}

// RedirectProvider is a provider that supports the browser redirect flow.
type RedirectProvider interface {
	IdentityProvider
	AuthCodeURL(state string) string
}
