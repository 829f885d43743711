package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Register
// =============================================================================

func TestRegister_Success(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAuthService(t, store)

	user, err := svc.Register(context.Background(), RegisterInput{Email: "  Jane.Doe@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "jane.doe@example.com" {
		t.Errorf("Email = %q, want normalized", user.Email)
	}
	if user.Name != "jane.doe" {
		t.Errorf("Name = %q, want the email local part", user.Name)
	}
	if user.Role != auth.RoleStandard {
		t.Errorf("Role = %q, want standard", user.Role)
	}
	if user.PasswordHash == nil || *user.PasswordHash == "secret1" {
		t.Error("password must be stored hashed")
	}
}

func TestRegister_Validation(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAuthService(t, store)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing email", RegisterInput{Password: "secret1"}},
		{"malformed email", RegisterInput{Email: "not-an-email", Password: "secret1"}},
		{"display-name email", RegisterInput{Email: "Jane <jane@example.com>", Password: "secret1"}},
		{"short password", RegisterInput{Email: "a@example.com", Password: "12345"}},
		{"long password", RegisterInput{Email: "a@example.com", Password: strings.Repeat("x", 73)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			if !IsValidation(err) {
				t.Errorf("Register() error = %v, want ValidationError", err)
			}
		})
	}

	if n, _ := store.Users().Count(context.Background()); n != 0 {
		t.Errorf("%d users created by invalid input", n)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Email: "A@EXAMPLE.COM", Password: "other12"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
}

// =============================================================================
// Password sign-in
// =============================================================================

func TestSignInWithPassword(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()
	admin := seedUser(t, store, "admin@example.com", "secret1", auth.RoleAdmin)
	seedUser(t, store, "federated@example.com", "", auth.RoleStandard)

	identity, err := svc.SignInWithPassword(ctx, "Admin@Example.com", "secret1")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	if identity.ID != admin.ID || identity.Role != auth.RoleAdmin {
		t.Errorf("identity = %+v, want admin %s", identity, admin.ID)
	}

	failures := []struct {
		name, email, password string
	}{
		{"unknown email", "nobody@example.com", "secret1"},
		{"wrong password", "admin@example.com", "wrong!!"},
		{"no password hash", "federated@example.com", "secret1"},
		{"empty password", "admin@example.com", ""},
	}
	for _, f := range failures {
		t.Run(f.name, func(t *testing.T) {
			_, err := svc.SignInWithPassword(ctx, f.email, f.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("error = %v, want ErrInvalidCredentials", err)
			}
			if err.Error() != "invalid email or password" {
				t.Errorf("message = %q, must be identical for every failure", err.Error())
			}
		})
	}
}

func TestSignInWithPassword_StoreFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAuthService(t, store)
	store.SetError(errors.New("connection reset"))

	_, err := svc.SignInWithPassword(context.Background(), "a@example.com", "secret1")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want the store error", err)
	}
}

// =============================================================================
// Federated sign-in
// =============================================================================

func googleProfile(email string) FederatedProfile {
	return FederatedProfile{
		Provider:      "google",
		AccountID:     "google-123",
		Email:         email,
		EmailVerified: true,
		Name:          "Jane Doe",
		AvatarURL:     "https://lh3.example.com/jane.png",
		AccessToken:   "access-1",
		RefreshToken:  "refresh-1",
	}
}

func TestSignInWithProvider_NewUserIsStandard(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAuthService(t, store, staticProvider("google", googleProfile("jane@example.com")))
	ctx := context.Background()

	identity, err := svc.SignInWithProvider(ctx, "google", Assertion{Code: "c"})
	if err != nil {
		t.Fatalf("SignInWithProvider() error = %v", err)
	}
	if identity.Role != auth.RoleStandard {
		t.Errorf("Role = %q, want standard", identity.Role)
	}
	if identity.Name != "Jane Doe" || identity.Avatar != "https://lh3.example.com/jane.png" {
		t.Errorf("identity = %+v", identity)
	}

	user, _ := store.Users().FindByEmail(ctx, "jane@example.com")
	if user.EmailVerifiedAt == nil {
		t.Error("verified provider email should mark the account verified")
	}
	if user.HasPassword() {
		t.Error("federated account must not get a password")
	}

	link, err := store.Identities().FindByProviderAccount(ctx, "google", "google-123")
	if err != nil || link.UserID != user.ID {
		t.Errorf("identity link = %+v, %v", link, err)
	}
}

func TestSignInWithProvider_PreservesAdminRole(t *testing.T) {
	store := repository.NewMemoryStore()
	admin := seedUser(t, store, "jane@example.com", "secret1", auth.RoleAdmin)
	svc := newTestAuthService(t, store, staticProvider("google", googleProfile("jane@example.com")))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		identity, err := svc.SignInWithProvider(ctx, "google", Assertion{Code: "c"})
		if err != nil {
			t.Fatalf("SignInWithProvider() #%d error = %v", i, err)
		}
		if identity.ID != admin.ID || identity.Role != auth.RoleAdmin {
			t.Errorf("identity #%d = %+v, want admin role preserved", i, identity)
		}
	}

	stored, _ := store.Users().FindByID(ctx, admin.ID)
	if stored.Role != auth.RoleAdmin {
		t.Errorf("stored role = %q, federated sign-in must not change it", stored.Role)
	}
	if !stored.HasPassword() {
		t.Error("linking a provider must keep the existing password")
	}
	if stored.Name != "Jane Doe" {
		t.Errorf("Name = %q, profile should be refreshed", stored.Name)
	}
}

func TestSignInWithProvider_RefreshesTokensKeepsMissing(t *testing.T) {
	store := repository.NewMemoryStore()
	profile := googleProfile("jane@example.com")
	provider := staticProvider("google", profile)
	svc := newTestAuthService(t, store, provider)
	ctx := context.Background()

	if _, err := svc.SignInWithProvider(ctx, "google", Assertion{Code: "c"}); err != nil {
		t.Fatalf("first sign-in: %v", err)
	}

	profile.AccessToken = "access-2"
	profile.RefreshToken = ""
	profile.EmailVerified = false
	provider.verifyFn = func(context.Context, Assertion) (*FederatedProfile, error) {
		p := profile
		return &p, nil
	}
	if _, err := svc.SignInWithProvider(ctx, "google", Assertion{Code: "c"}); err != nil {
		t.Fatalf("second sign-in: %v", err)
	}

	link, _ := store.Identities().FindByProviderAccount(ctx, "google", "google-123")
	if link.AccessToken != "access-2" || link.RefreshToken != "refresh-1" {
		t.Errorf("tokens = %q/%q, want access-2/refresh-1", link.AccessToken, link.RefreshToken)
	}

	user, _ := store.Users().FindByEmail(ctx, "jane@example.com")
	if user.EmailVerifiedAt == nil {
		t.Error("an unverified sign-in must not clear an earlier verification")
	}
}

func TestSignInWithProvider_AccountLinkedToAnotherUser(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	owner := seedUser(t, store, "owner@example.com", "", auth.RoleStandard)
	_, _ = store.Identities().Upsert(ctx, &models.LinkedIdentity{UserID: owner.ID, Provider: "google", ProviderAccountID: "google-123"})
	seedUser(t, store, "jane@example.com", "", auth.RoleStandard)

	svc := newTestAuthService(t, store, staticProvider("google", googleProfile("jane@example.com")))

	if _, err := svc.SignInWithProvider(ctx, "google", Assertion{Code: "c"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignInWithProvider_UnverifiedEmailCannotClaimAccount(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	admin := seedUser(t, store, "boss@example.com", "secret1", auth.RoleAdmin)

	profile := googleProfile("boss@example.com")
	profile.AccountID = "other-sub"
	profile.EmailVerified = false
	svc := newTestAuthService(t, store, staticProvider("google", profile))

	identity, err := svc.SignInWithProvider(ctx, "google", Assertion{Code: "c"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("error = %v, want ErrInvalidCredentials", err)
	}
	if identity.ID == admin.ID {
		t.Error("an unverified email must not yield the existing account")
	}
	if _, err := store.Identities().FindByProviderAccount(ctx, "google", "other-sub"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("provider account must not be linked, lookup error = %v", err)
	}
}

func TestSignInWithProvider_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown provider", func(t *testing.T) {
		svc := newTestAuthService(t, repository.NewMemoryStore())
		if _, err := svc.SignInWithProvider(ctx, "github", Assertion{}); !errors.Is(err, ErrUnknownProvider) {
			t.Errorf("error = %v, want ErrUnknownProvider", err)
		}
	})

	t.Run("verification fails", func(t *testing.T) {
		p := &fakeProvider{name: "google", verifyFn: func(context.Context, Assertion) (*FederatedProfile, error) {
			return nil, errors.New("bad code")
		}}
		svc := newTestAuthService(t, repository.NewMemoryStore(), p)
		if _, err := svc.SignInWithProvider(ctx, "google", Assertion{Code: "x"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("profile without email", func(t *testing.T) {
		svc := newTestAuthService(t, repository.NewMemoryStore(), staticProvider("google", googleProfile("")))
		if _, err := svc.SignInWithProvider(ctx, "google", Assertion{Code: "x"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("store failure fails closed", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newTestAuthService(t, store, staticProvider("google", googleProfile("jane@example.com")))
		store.SetError(errors.New("db down"))

		identity, err := svc.SignInWithProvider(ctx, "google", Assertion{Code: "x"})
		if err == nil {
			t.Fatal("sign-in must fail when the store fails")
		}
		if identity.ID != uuid.Nil {
			t.Error("no identity may be returned on failure")
		}
	})
}

// racingUsers reports the first email lookup as missing so the create path
// hits a concurrent winner's row.
type racingUsers struct {
	repository.UserRepository
	missedOnce bool
}

func (r *racingUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if !r.missedOnce {
		r.missedOnce = true
		return nil, repository.ErrNotFound
	}
	return r.UserRepository.FindByEmail(ctx, email)
}

func TestSignInWithProvider_CoalescesCreateRace(t *testing.T) {
	store := repository.NewMemoryStore()
	winner := seedUser(t, store, "jane@example.com", "", auth.RoleAdmin)

	users := &racingUsers{UserRepository: store.Users()}
	svc := NewAuthService(users, store.Identities(), newTestHasher(), newTestIssuer(t), nil,
		staticProvider("google", googleProfile("jane@example.com")))

	identity, err := svc.SignInWithProvider(context.Background(), "google", Assertion{Code: "c"})
	if err != nil {
		t.Fatalf("SignInWithProvider() error = %v", err)
	}
	if identity.ID != winner.ID || identity.Role != auth.RoleAdmin {
		t.Errorf("identity = %+v, want the existing row", identity)
	}
}

func TestAuthCodeURL(t *testing.T) {
	google := NewGoogleProvider(GoogleConfig{ClientID: "cid", RedirectURL: "https://shop.example.com/cb"})
	apple := NewAppleProvider([]string{"com.example"}, "")
	svc := newTestAuthService(t, repository.NewMemoryStore(), google, apple)

	u, err := svc.AuthCodeURL("google", "state-1")
	if err != nil {
		t.Fatalf("AuthCodeURL() error = %v", err)
	}
	if !strings.Contains(u, "state=state-1") || !strings.Contains(u, "client_id=cid") {
		t.Errorf("AuthCodeURL() = %q", u)
	}

	if _, err := svc.AuthCodeURL("apple", "s"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("apple has no redirect flow, error = %v", err)
	}
}

// =============================================================================
// Sessions
// =============================================================================

func TestIssueSession(t *testing.T) {
	store := repository.NewMemoryStore()
	issuer := newTestIssuer(t)
	svc := NewAuthService(store.Users(), store.Identities(), newTestHasher(), issuer, nil)
	user := seedUser(t, store, "a@example.com", "secret1", auth.RoleStandard)

	session, err := svc.IssueSession(user.Identity())
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}

	claims, err := issuer.Decode(session.Token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if claims.Subject != user.ID.String() || claims.Role != auth.RoleStandard {
		t.Errorf("claims = %+v", claims)
	}
	if d := time.Until(session.ExpiresAt); d < 29*24*time.Hour {
		t.Errorf("session expires in %v, want about 30 days", d)
	}
}

func TestCurrentUser_Missing(t *testing.T) {
	svc := newTestAuthService(t, repository.NewMemoryStore())
	if _, err := svc.CurrentUser(context.Background(), uuid.New()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("error = %v, want ErrUnauthenticated", err)
	}
}
