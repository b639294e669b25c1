package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solmart/solmart-backend/pkg/db"
	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/pagination"
	"github.com/solmart/solmart-backend/pkg/types"
)

// orderTransitions is the canonical fulfillment state machine. A transition
// absent from the table is rejected with a state conflict; delivered and
// cancelled are terminal.
var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
}

// CanTransition reports whether the fulfillment flow permits moving from
// one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Service exposes the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOwnedByID(ctx context.Context, wallet string, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	UpdateTracking(ctx context.Context, id uuid.UUID, input TrackingInput) (*models.Order, error)
	ListByWallet(ctx context.Context, wallet string, params pagination.Params) ([]models.Order, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error)
	Search(ctx context.Context, term string, params pagination.Params) ([]models.Order, error)
}

// CreateInput holds the payload for recording a confirmed purchase.
type CreateInput struct {
	UserWallet           string
	UserEmail            *string
	Items                []types.OrderItem
	TransactionSignature *string
	ShippingAddress      *types.Address
	Notes                *string
}

// TrackingInput carries fulfillment tracking mutations.
type TrackingInput struct {
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	Notes             *string
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs an order service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// Create records a purchase. New orders always enter the lifecycle as
// pending, and the stored total is derived from the item snapshots so the
// two can never disagree.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	wallet := strings.TrimSpace(input.UserWallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user wallet is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s has non-positive quantity", item.ProductName))
		}
		if item.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s has negative price", item.ProductName))
		}
	}

	order := &models.Order{
		UserWallet:           wallet,
		UserEmail:            input.UserEmail,
		Items:                input.Items,
		TotalAmount:          types.SumItemTotals(input.Items),
		Status:               enums.OrderStatusPending,
		TransactionSignature: input.TransactionSignature,
		ShippingAddress:      input.ShippingAddress,
		Notes:                input.Notes,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
	}
	return created, nil
}

// GetByID loads an order without ownership checks. Admin read path.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return order, nil
}

// GetOwnedByID loads an order only when the wallet owns it.
func (s *service) GetOwnedByID(ctx context.Context, wallet string, id uuid.UUID) (*models.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserWallet != strings.TrimSpace(wallet) {
		// Foreign orders read as not found so ownership stays private.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// UpdateStatus moves an order through the fulfillment state machine.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}

	var updated *models.Order
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
		}

		if order.Status == next {
			// Replayed updates are accepted without rewriting the row.
			updated = order
			return nil
		}
		if !CanTransition(order.Status, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
		}

		order.Status = next
		if _, err := txRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order status")
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateTracking stamps fulfillment tracking data. Safe to replay.
func (s *service) UpdateTracking(ctx context.Context, id uuid.UUID, input TrackingInput) (*models.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.TrackingNumber != nil {
		trimmed := strings.TrimSpace(*input.TrackingNumber)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number cannot be empty")
		}
		order.TrackingNumber = &trimmed
	}
	if input.EstimatedDelivery != nil {
		order.EstimatedDelivery = input.EstimatedDelivery
	}
	if input.Notes != nil {
		order.Notes = input.Notes
	}

	if _, err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order tracking")
	}
	return order, nil
}

// ListByWallet returns the wallet's order history, newest first.
func (s *service) ListByWallet(ctx context.Context, wallet string, params pagination.Params) ([]models.Order, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet is required")
	}
	orders, err := s.repo.ListByWallet(ctx, wallet, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders by wallet")
	}
	return orders, nil
}

// ListAll returns every order, optionally filtered by status. Admin read path.
func (s *service) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *status))
	}
	orders, err := s.repo.ListAll(ctx, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return orders, nil
}

// Search matches orders by wallet or transaction signature. Admin read path.
func (s *service) Search(ctx context.Context, term string, params pagination.Params) ([]models.Order, error) {
	if strings.TrimSpace(term) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search term is required")
	}
	orders, err := s.repo.Search(ctx, term, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search orders")
	}
	return orders, nil
}
