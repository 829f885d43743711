package services

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "this-is-a-test-secret-with-32-bytes!"

// =============================================================================
// Fakes
// =============================================================================

type fakeProvider struct {
	name     string
	verifyFn func(ctx context.Context, a Assertion) (*FederatedProfile, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Verify(ctx context.Context, a Assertion) (*FederatedProfile, error) {
	return f.verifyFn(ctx, a)
}

func staticProvider(name string, profile FederatedProfile) *fakeProvider {
	return &fakeProvider{name: name, verifyFn: func(context.Context, Assertion) (*FederatedProfile, error) {
		p := profile
		return &p, nil
	}}
}

// =============================================================================
// Setup
// =============================================================================

func newTestHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(bcrypt.MinCost)
}

func newTestIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(testSecret, 30*24*time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	return issuer
}

func newTestAuthService(t *testing.T, store *repository.MemoryStore, providers ...IdentityProvider) *AuthService {
	t.Helper()
	return NewAuthService(store.Users(), store.Identities(), newTestHasher(), newTestIssuer(t), nil, providers...)
}

func seedUser(t *testing.T, store *repository.MemoryStore, email, password string, role auth.Role) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "seed", Role: role}
	if password != "" {
		hash, err := newTestHasher().Hash(password)
		if err != nil {
			t.Fatalf("Hash() error = %v", err)
		}
		u.PasswordHash = &hash
	}
	if err := store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return u
}

func seedProduct(t *testing.T, store *repository.MemoryStore, name string, priceCents int64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, PriceCents: priceCents}
	if err := store.Products().Create(context.Background(), p); err != nil {
		t.Fatalf("Create product: %v", err)
	}
	return p
}
