package vendor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	"github.com/solmart/solmart-backend/pkg/pagination"
)

// Repository wires together vendor persistence on the shared users table.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the user row for the given id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByWallet loads the user row for the given wallet address.
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

// ListByStatus returns vendors in the given approval state, newest first.
func (r *Repository) ListByStatus(ctx context.Context, status enums.VendorStatus, params pagination.Params) ([]models.User, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).
		Where("vendor_status = ?", status).
		Where("applied_at IS NOT NULL").
		Order("created_at DESC, id DESC").
		Limit(limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var vendors []models.User
	if err := query.Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// CountByStatus counts vendor applications in the given state.
func (r *Repository) CountByStatus(ctx context.Context, status enums.VendorStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("vendor_status = ?", status).
		Where("applied_at IS NOT NULL").
		Count(&count).Error
	return count, err
}

// MarkReviewed stamps the review metadata alongside a status change.
func (r *Repository) MarkReviewed(ctx context.Context, id uuid.UUID, status enums.VendorStatus, reviewer uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"vendor_status": status,
			"reviewed_at":   now,
			"reviewed_by":   reviewer,
		}).Error
}
