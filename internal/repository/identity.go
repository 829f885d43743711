package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type identityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) FindByProviderAccount(ctx context.Context, provider, accountID string) (*models.LinkedIdentity, error) {
	var identity models.LinkedIdentity
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", provider, accountID).
		First(&identity).Error
	if err != nil {
		return nil, translate(err, "failed to find %s identity", provider)
	}
	return &identity, nil
}

// keepIfEmpty refreshes a token column only when the provider sent a value.
func keepIfEmpty(column string) clause.Assignment {
	return clause.Assignment{
		Column: clause.Column{Name: column},
		Value:  gorm.Expr("COALESCE(NULLIF(EXCLUDED." + column + ", ''), linked_identities." + column + ")"),
	}
}

func (r *identityRepository) Upsert(ctx context.Context, identity *models.LinkedIdentity) (*models.LinkedIdentity, error) {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	row := *identity
	row.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Omit("User").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "provider_account_id"}},
		DoUpdates: clause.Set{
			keepIfEmpty("access_token"),
			keepIfEmpty("refresh_token"),
			keepIfEmpty("id_token"),
			keepIfEmpty("token_type"),
			keepIfEmpty("scope"),
			{Column: clause.Column{Name: "expires_at"}, Value: gorm.Expr("COALESCE(EXCLUDED.expires_at, linked_identities.expires_at)")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("EXCLUDED.updated_at")},
		},
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("linked_identities.user_id = EXCLUDED.user_id"),
		}},
	}).Create(&row).Error
	if err != nil {
		return nil, translate(err, "failed to link %s identity", identity.Provider)
	}

	return r.FindByProviderAccount(ctx, identity.Provider, identity.ProviderAccountID)
}
