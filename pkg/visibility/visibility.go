package visibility

import (
	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
)

// ProductVisibilityInput drives the shared visibility checks for buyer-facing queries.
type ProductVisibilityInput struct {
	Product *models.Product
	Vendor  *models.User
}

// Visible reports whether a listing may appear in buyer-facing catalog
// results: the product must be active and its vendor currently approved.
// Suspended and rejected vendors hide their catalog without deleting it.
func Visible(product *models.Product, vendor *models.User) bool {
	if product == nil || vendor == nil {
		return false
	}
	return product.IsActive && vendor.VendorStatus == enums.VendorStatusApproved
}

// EnsureProductVisible enforces the canonical rules so gated listings never
// leak through buyer queries. Hidden listings surface as not found rather
// than forbidden so the reason stays private.
func EnsureProductVisible(input ProductVisibilityInput) error {
	if input.Product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if input.Vendor == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if !input.Product.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if input.Vendor.VendorStatus != enums.VendorStatusApproved {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
