package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find user %s", id)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "failed to find user by email")
	}
	return &user, nil
}

func (r *userRepository) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("reset_token = ?", token).First(&user).Error; err != nil {
		return nil, translate(err, "failed to find user by reset token")
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(user).Error, "failed to create user")
}

func (r *userRepository) CreateWithIdentity(ctx context.Context, user *models.User, identity *models.LinkedIdentity) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	identity.UserID = user.ID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Omit("User").Create(identity).Error
	})
	return translate(err, "failed to create federated user")
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) error {
	values := map[string]interface{}{}
	if update.Name != "" {
		values["name"] = update.Name
	}
	if update.AvatarURL != "" {
		values["avatar_url"] = update.AvatarURL
	}
	if update.EmailVerifiedAt != nil {
		values["email_verified_at"] = gorm.Expr("COALESCE(email_verified_at, ?)", *update.EmailVerifiedAt)
	}
	if len(values) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return translate(result.Error, "failed to update profile for %s", id)
	}
	if result.RowsAffected == 0 {
		return translate(ErrNotFound, "failed to update profile for %s", id)
	}
	return nil
}

func (r *userRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"reset_token":            token,
		"reset_token_expires_at": expiresAt,
	})
	if result.Error != nil {
		return translate(result.Error, "failed to store reset token for %s", id)
	}
	if result.RowsAffected == 0 {
		return translate(ErrNotFound, "failed to store reset token for %s", id)
	}
	return nil
}

func (r *userRepository) ConsumeResetToken(ctx context.Context, id uuid.UUID, token, passwordHash string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND reset_token = ? AND reset_token_expires_at >= ?", id, token, now).
		Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"reset_token":            nil,
			"reset_token_expires_at": nil,
		})
	if result.Error != nil {
		return false, translate(result.Error, "failed to consume reset token for %s", id)
	}
	return result.RowsAffected == 1, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, translate(err, "failed to count users")
}
