// Package repository is the data access layer. Every repository has a gorm
// implementation for PostgreSQL and an in-memory one (MemoryStore) for tests.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository stores accounts and their reset-token fields.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	// Create fails with ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *models.User) error
	// CreateWithIdentity inserts the user and its first linked identity atomically.
	CreateWithIdentity(ctx context.Context, user *models.User, identity *models.LinkedIdentity) error
	// UpdateProfile overwrites name and avatar when non-empty and sets the
	// verification timestamp only if none is stored yet. Role is never touched.
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	// ConsumeResetToken replaces the password hash and clears the token in one
	// conditional write. It reports false when the token no longer matches or
	// expired before now.
	ConsumeResetToken(ctx context.Context, id uuid.UUID, token, passwordHash string, now time.Time) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type ProfileUpdate struct {
	Name            string
	AvatarURL       string
	EmailVerifiedAt *time.Time
}

// IdentityRepository stores (provider, provider account id) links.
type IdentityRepository interface {
	FindByProviderAccount(ctx context.Context, provider, accountID string) (*models.LinkedIdentity, error)
	// Upsert inserts the link or refreshes its tokens in one statement and
	// returns the stored row. Tokens are only refreshed when the stored row
	// belongs to identity.UserID; empty incoming tokens keep stored values.
	Upsert(ctx context.Context, identity *models.LinkedIdentity) (*models.LinkedIdentity, error)
}

type ProductQuery struct {
	Search string
	Limit  int
	Offset int
}

type ProductRepository interface {
	// List returns products newest first.
	List(ctx context.Context, q ProductQuery) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// MaxCartQuantity caps a single cart line.
const MaxCartQuantity = 99

type CartRepository interface {
	// AddItem inserts the line or bumps its quantity atomically, clamped to
	// MaxCartQuantity.
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	// ListItems returns the cart oldest first with products loaded.
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
}

type WishlistRepository interface {
	// Add is idempotent; created is false when the item was already present.
	Add(ctx context.Context, userID, productID uuid.UUID) (item *models.WishlistItem, created bool, err error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
}

type RatingSummary struct {
	Average float64
	Count   int64
}

type RatingRepository interface {
	// Upsert keeps one rating per (user, product); a second call replaces value and comment.
	Upsert(ctx context.Context, rating *models.Rating) (*models.Rating, error)
	// ListForProduct returns ratings newest first with the author loaded.
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]models.Rating, error)
	Summary(ctx context.Context, productID uuid.UUID) (RatingSummary, error)
	Count(ctx context.Context) (int64, error)
}

// translate maps driver errors onto the repository sentinels.
func translate(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case database.IsNotFound(err):
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
