package order

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	"github.com/solmart/solmart-backend/pkg/pagination"
)

// Repository wires together order persistence helpers.
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

// FindByID loads the order row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts the order row.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Save persists the full order row.
func (r *Repository) Save(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func applyCursor(query *gorm.DB, cursorValue string) (*gorm.DB, error) {
	cursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	return query, nil
}

// ListByWallet returns the wallet's orders, newest first.
func (r *Repository) ListByWallet(ctx context.Context, wallet string, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("user_wallet = ?", wallet).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	query, err := applyCursor(query, params.Cursor)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAll returns every order, newest first, optionally filtered by status.
func (r *Repository) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	query, err := applyCursor(query, params.Cursor)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Search matches orders by wallet or transaction signature fragments.
func (r *Repository) Search(ctx context.Context, term string, params pagination.Params) ([]models.Order, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	query := r.db.WithContext(ctx).
		Where("LOWER(user_wallet) LIKE ? OR LOWER(transaction_signature) LIKE ?", pattern, pattern).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	query, err := applyCursor(query, params.Cursor)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindBySignature loads the order recorded for a transaction signature.
func (r *Repository) FindBySignature(ctx context.Context, signature string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "transaction_signature = ?", signature).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
