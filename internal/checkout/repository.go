package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
)

// Repository wires together checkout attempt persistence.
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

// Create inserts the attempt row.
func (r *Repository) Create(ctx context.Context, attempt *models.CheckoutAttempt) (*models.CheckoutAttempt, error) {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

// Save persists the full attempt row.
func (r *Repository) Save(ctx context.Context, attempt *models.CheckoutAttempt) (*models.CheckoutAttempt, error) {
	if err := r.db.WithContext(ctx).Save(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

// FindByID loads the attempt row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CheckoutAttempt, error) {
	var attempt models.CheckoutAttempt
	if err := r.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FindByToken loads the attempt recorded under the idempotency token.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.CheckoutAttempt, error) {
	var attempt models.CheckoutAttempt
	if err := r.db.WithContext(ctx).First(&attempt, "idempotency_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListNeedingReconciliation returns the oldest unsettled attempts, capped
// at limit. Oldest first so a stuck row cannot starve the rest. Paid rows
// older than stalePaidBefore are included; they mark a crash between
// confirmation and order recording.
func (r *Repository) ListNeedingReconciliation(ctx context.Context, limit int, stalePaidBefore time.Time) ([]models.CheckoutAttempt, error) {
	var attempts []models.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND updated_at < ?)",
			enums.AttemptStatusNeedsReconciliation, enums.AttemptStatusPaid, stalePaidBefore).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// RecordFailure increments the attempt counter and stores the error text.
func (r *Repository) RecordFailure(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"last_error":    lastError,
			"updated_at":    time.Now().UTC(),
		}).Error
}
