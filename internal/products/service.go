package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/solmart/solmart-backend/pkg/db"
	"github.com/solmart/solmart-backend/pkg/db/models"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/pagination"
)

// Service exposes vendor product management and the buyer-facing catalog.
type Service interface {
	CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, vendorID, productID uuid.UUID) error
	ListVendorProducts(ctx context.Context, vendorID uuid.UUID) ([]models.Product, error)
	GetCatalogProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListCatalog(ctx context.Context, filter CatalogFilter, params pagination.Params) ([]models.Product, error)
}

// CreateProductInput holds the validated payload to create a listing.
type CreateProductInput struct {
	Name        string
	Description *string
	Category    string
	Price       decimal.Decimal
	Stock       int
	ImageURL    *string
	IsActive    bool
}

// UpdateProductInput holds optional mutation values for a listing.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	ImageURL    *string
	IsActive    *bool
}

type vendorApprovalChecker interface {
	IsApproved(ctx context.Context, vendorID uuid.UUID) (bool, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	vendors  vendorApprovalChecker
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, vendors vendorApprovalChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor approval checker required")
	}
	return &service{repo: repo, dbClient: dbClient, vendors: vendors}, nil
}

func (s *service) ensureApprovedVendor(ctx context.Context, vendorID uuid.UUID) error {
	ok, err := s.vendors.IsApproved(ctx, vendorID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "vendor is not approved to sell")
	}
	return nil
}

// CreateProduct creates a listing for an approved vendor.
func (s *service) CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureApprovedVendor(ctx, vendorID); err != nil {
		return nil, err
	}

	product := &models.Product{
		VendorID:    vendorID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
		IsActive:    input.IsActive,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return created, nil
}

// UpdateProduct mutates a listing owned by the vendor.
func (s *service) UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.loadOwnedProduct(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}

	if err := applyUpdateToProduct(product, input); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save product")
	}
	return saved, nil
}

// DeleteProduct removes a listing owned by the vendor.
func (s *service) DeleteProduct(ctx context.Context, vendorID, productID uuid.UUID) error {
	if _, err := s.loadOwnedProduct(ctx, vendorID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

// ListVendorProducts returns every listing the vendor owns, including
// inactive ones.
func (s *service) ListVendorProducts(ctx context.Context, vendorID uuid.UUID) ([]models.Product, error) {
	products, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list vendor products")
	}
	return products, nil
}

// GetCatalogProduct loads a single listing through the visibility gate.
func (s *service) GetCatalogProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindVisibleByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load catalog product")
	}
	return product, nil
}

// ListCatalog returns the buyer-facing catalog page.
func (s *service) ListCatalog(ctx context.Context, filter CatalogFilter, params pagination.Params) ([]models.Product, error) {
	products, err := s.repo.ListVisible(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list catalog")
	}
	return products, nil
}

func (s *service) loadOwnedProduct(ctx context.Context, vendorID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if product.VendorID != vendorID {
		// Ownership failures read as not found so listings stay private.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func validateCreateInput(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product category is required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product category cannot be empty")
		}
		product.Category = category
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	return nil
}
