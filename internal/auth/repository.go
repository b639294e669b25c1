package auth

import (
	"context"

	"gorm.io/gorm"

	"github.com/solmart/solmart-backend/pkg/db/models"
)

// Repository wires together user persistence for wallet sessions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByWallet loads a user by their wallet address.
func (r *Repository) FindByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "wallet_address = ?", wallet).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts the user row.
func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Save persists the full user row.
func (r *Repository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
