package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/google/uuid"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordLength = 72
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is a freshly minted session token and the identity it carries.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      auth.Identity
}

type AuthService struct {
	users      repository.UserRepository
	identities repository.IdentityRepository
	hasher     *auth.PasswordHasher
	issuer     *auth.TokenIssuer
	providers  map[string]IdentityProvider
	metrics    metrics.Recorder
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	identities repository.IdentityRepository,
	hasher *auth.PasswordHasher,
	issuer *auth.TokenIssuer,
	recorder metrics.Recorder,
	providers ...IdentityProvider,
) *AuthService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	byName := make(map[string]IdentityProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &AuthService{
		users:      users,
		identities: identities,
		hasher:     hasher,
		issuer:     issuer,
		providers:  byName,
		metrics:    recorder,
		now:        time.Now,
	}
}

// NormalizeEmail lowercases and trims so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "email is not a valid address")
	}
	return nil
}

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalid("password", "password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return invalid("password", "password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// Register creates a password account with the standard role.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = localPart(email)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: &hash,
		Name:         name,
		Role:         auth.RoleStandard,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID.String())
	return user, nil
}

// SignInWithPassword checks email and password. Unknown email, missing
// password hash and wrong password all fail with ErrInvalidCredentials.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (auth.Identity, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.RecordSignIn("password", "failure")
		return auth.Identity{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordSignIn("password", "failure")
			return auth.Identity{}, ErrInvalidCredentials
		}
		s.metrics.RecordSignIn("password", "error")
		return auth.Identity{}, err
	}

	if !user.HasPassword() || !s.hasher.Compare(password, *user.PasswordHash) {
		s.metrics.RecordSignIn("password", "failure")
		return auth.Identity{}, ErrInvalidCredentials
	}

	s.metrics.RecordSignIn("password", "success")
	return user.Identity(), nil
}

func (s *AuthService) Provider(name string) (IdentityProvider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// AuthCodeURL returns the provider's consent page for the redirect flow.
func (s *AuthService) AuthCodeURL(provider, state string) (string, error) {
	p, err := s.Provider(provider)
	if err != nil {
		return "", err
	}
	rp, ok := p.(RedirectProvider)
	if !ok {
		return "", ErrUnknownProvider
	}
	return rp.AuthCodeURL(state), nil
}

// SignInWithProvider verifies the assertion with the named provider, then
// finds or creates the account by email and links the provider account to it.
// An existing account is only linked when the provider verified the email.
// The stored role is never changed here.
func (s *AuthService) SignInWithProvider(ctx context.Context, provider string, a Assertion) (auth.Identity, error) {
	p, err := s.Provider(provider)
	if err != nil {
		return auth.Identity{}, err
	}

	profile, err := p.Verify(ctx, a)
	if err != nil {
		slog.Warn("federated assertion rejected", "provider", provider, "error", err)
		s.metrics.RecordSignIn(provider, "failure")
		return auth.Identity{}, ErrInvalidCredentials
	}
	profile.Email = NormalizeEmail(profile.Email)
	if profile.Email == "" || profile.AccountID == "" {
		slog.Warn("federated profile incomplete", "provider", provider)
		s.metrics.RecordSignIn(provider, "failure")
		return auth.Identity{}, ErrInvalidCredentials
	}

	identity, err := s.signInFederated(ctx, profile)
	switch {
	case err == nil:
		s.metrics.RecordSignIn(provider, "success")
	case errors.Is(err, ErrInvalidCredentials):
		s.metrics.RecordSignIn(provider, "failure")
	default:
		s.metrics.RecordSignIn(provider, "error")
	}
	return identity, err
}

func (s *AuthService) signInFederated(ctx context.Context, profile *FederatedProfile) (auth.Identity, error) {
	user, err := s.users.FindByEmail(ctx, profile.Email)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.createFederatedUser(ctx, profile)
		if err == nil {
			return user.Identity(), nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return auth.Identity{}, err
		}
		// Lost a race with a concurrent first sign-in; continue with the winner's row.
		user, err = s.users.FindByEmail(ctx, profile.Email)
		if errors.Is(err, repository.ErrNotFound) {
			// The duplicate was the provider account, owned by another email.
			return auth.Identity{}, ErrInvalidCredentials
		}
	}
	if err != nil {
		return auth.Identity{}, err
	}

	// An unverified email may only reach an account this provider account is
	// already linked to.
	if !profile.EmailVerified {
		link, err := s.identities.FindByProviderAccount(ctx, profile.Provider, profile.AccountID)
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("unverified federated email for existing account",
				"provider", profile.Provider, "user_id", user.ID.String())
			return auth.Identity{}, ErrInvalidCredentials
		}
		if err != nil {
			return auth.Identity{}, err
		}
		if link.UserID != user.ID {
			return auth.Identity{}, ErrInvalidCredentials
		}
	}

	stored, err := s.identities.Upsert(ctx, linkedIdentity(user.ID, profile))
	if err != nil {
		return auth.Identity{}, err
	}
	if stored.UserID != user.ID {
		slog.Warn("provider account linked to another user",
			"provider", profile.Provider, "user_id", user.ID.String())
		return auth.Identity{}, ErrInvalidCredentials
	}

	update := repository.ProfileUpdate{Name: profile.Name, AvatarURL: profile.AvatarURL}
	if profile.EmailVerified {
		now := s.now()
		update.EmailVerifiedAt = &now
	}
	if err := s.users.UpdateProfile(ctx, user.ID, update); err != nil {
		return auth.Identity{}, err
	}
	if update.Name != "" {
		user.Name = update.Name
	}
	if update.AvatarURL != "" {
		user.AvatarURL = update.AvatarURL
	}
	return user.Identity(), nil
}

func (s *AuthService) createFederatedUser(ctx context.Context, profile *FederatedProfile) (*models.User, error) {
	name := profile.Name
	if name == "" {
		name = localPart(profile.Email)
	}
	user := &models.User{
		ID:        uuid.New(),
		Email:     profile.Email,
		Name:      name,
		AvatarURL: profile.AvatarURL,
		Role:      auth.RoleStandard,
	}
	if profile.EmailVerified {
		now := s.now()
		user.EmailVerifiedAt = &now
	}

	if err := s.users.CreateWithIdentity(ctx, user, linkedIdentity(user.ID, profile)); err != nil {
		return nil, err
	}
	slog.Info("federated user created", "user_id", user.ID.String(), "provider", profile.Provider)
	return user, nil
}

func linkedIdentity(userID uuid.UUID, p *FederatedProfile) *models.LinkedIdentity {
	return &models.LinkedIdentity{
		UserID:            userID,
		Provider:          p.Provider,
		ProviderAccountID: p.AccountID,
		AccessToken:       p.AccessToken,
		RefreshToken:      p.RefreshToken,
		IDToken:           p.IDToken,
		TokenType:         p.TokenType,
		Scope:             p.Scope,
		ExpiresAt:         p.ExpiresAt,
	}
}

// IssueSession mints a session token for identity.
func (s *AuthService) IssueSession(identity auth.Identity) (*Session, error) {
	token, claims, err := s.issuer.Mint(identity.ID, identity.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: identity}, nil
}

// CurrentUser loads the account behind a verified session.
func (s *AuthService) CurrentUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}
