package vendor

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

// vendorTransitions is the canonical approval state machine. A transition
// absent from the table is rejected with a state conflict.
var vendorTransitions = map[enums.VendorStatus][]enums.VendorStatus{
	enums.VendorStatusPending:   {enums.VendorStatusApproved, enums.VendorStatusRejected},
	enums.VendorStatusApproved:  {enums.VendorStatusSuspended},
	enums.VendorStatusSuspended: {enums.VendorStatusApproved},
	enums.VendorStatusRejected:  {enums.VendorStatusApproved},
}

// CanTransition reports whether the approval workflow permits moving from
// one status to another.
func CanTransition(from, to enums.VendorStatus) bool {
	for _, allowed := range vendorTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Service exposes the vendor approval workflow.
type Service interface {
	Register(ctx context.Context, wallet string, input RegisterInput) (*models.User, error)
	UpdateStatus(ctx context.Context, vendorID uuid.UUID, next enums.VendorStatus, reviewer uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, wallet string, input UpdateProfileInput) (*models.User, error)
	GetByWallet(ctx context.Context, wallet string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListByStatus(ctx context.Context, status enums.VendorStatus, params pagination.Params) ([]models.User, error)
	IsApproved(ctx context.Context, vendorID uuid.UUID) (bool, error)
}

// RegisterInput holds the validated vendor application payload.
type RegisterInput struct {
	BusinessName string
	Description  *string
	LogoURL      *string
	ContactEmail *string
	Address      *types.Address
}

// UpdateProfileInput holds optional vendor profile mutations.
type UpdateProfileInput struct {
	BusinessName *string
	Description  *string
	LogoURL      *string
	ContactEmail *string
	Address      *types.Address
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a vendor service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// Register files a vendor application for the wallet. Re-applying while an
// application is under review or already approved is rejected; a rejected
// or suspended vendor may not re-apply either, the status transition flow
// owns those moves.
func (s *service) Register(ctx context.Context, wallet string, input RegisterInput) (*models.User, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet address is required")
	}
	if strings.TrimSpace(input.BusinessName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}

	var registered *models.User
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		user, err := txRepo.FindByWallet(ctx, wallet)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user by wallet")
		}

		now := time.Now().UTC()
		if user == nil {
			user = &models.User{
				WalletAddress: wallet,
				Role:          enums.UserRoleBuyer,
			}
		}
		if user.AppliedAt != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a vendor application already exists for this wallet")
		}

		name := strings.TrimSpace(input.BusinessName)
		user.BusinessName = &name
		user.Description = input.Description
		user.LogoURL = input.LogoURL
		user.ContactEmail = input.ContactEmail
		user.Address = input.Address
		// Applications always enter review as pending regardless of input.
		user.VendorStatus = enums.VendorStatusPending
		user.AppliedAt = &now
		user.ReviewedAt = nil
		user.ReviewedBy = nil

		if user.ID == uuid.Nil {
			if _, err := txRepo.Create(ctx, user); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert vendor application")
			}
		} else {
			if _, err := txRepo.Save(ctx, user); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save vendor application")
			}
		}

		registered = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registered, nil
}

// UpdateStatus moves a vendor application through the approval workflow.
func (s *service) UpdateStatus(ctx context.Context, vendorID uuid.UUID, next enums.VendorStatus, reviewer uuid.UUID) (*models.User, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid vendor status %q", next))
	}

	var updated *models.User
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		user, err := txRepo.FindByID(ctx, vendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor")
		}
		if user.AppliedAt == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}

		if !CanTransition(user.VendorStatus, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move vendor from %s to %s", user.VendorStatus, next))
		}

		now := time.Now().UTC()
		user.VendorStatus = next
		user.ReviewedAt = &now
		user.ReviewedBy = &reviewer
		if next == enums.VendorStatusApproved {
			user.Role = enums.UserRoleVendor
		}

		if _, err := txRepo.Save(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save vendor status")
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateProfile mutates vendor profile fields without touching the approval state.
func (s *service) UpdateProfile(ctx context.Context, wallet string, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	if input.BusinessName != nil {
		name := strings.TrimSpace(*input.BusinessName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name cannot be empty")
		}
		user.BusinessName = &name
	}
	if input.Description != nil {
		user.Description = input.Description
	}
	if input.LogoURL != nil {
		user.LogoURL = input.LogoURL
	}
	if input.ContactEmail != nil {
		user.ContactEmail = input.ContactEmail
	}
	if input.Address != nil {
		user.Address = input.Address
	}

	if _, err := s.repo.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save vendor profile")
	}
	return user, nil
}

// GetByWallet loads the vendor application tied to the wallet address.
func (s *service) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet address is required")
	}

	user, err := s.repo.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor by wallet")
	}
	if user.AppliedAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	return user, nil
}

// GetByID loads the vendor application by id.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor")
	}
	if user.AppliedAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	return user, nil
}

// ListByStatus returns vendor applications in the requested state.
func (s *service) ListByStatus(ctx context.Context, status enums.VendorStatus, params pagination.Params) ([]models.User, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid vendor status %q", status))
	}
	vendors, err := s.repo.ListByStatus(ctx, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list vendors")
	}
	return vendors, nil
}

// IsApproved reports whether the vendor is currently approved to sell.
func (s *service) IsApproved(ctx context.Context, vendorID uuid.UUID) (bool, error) {
	user, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor")
	}
	return user.VendorStatus == enums.VendorStatusApproved, nil
}
