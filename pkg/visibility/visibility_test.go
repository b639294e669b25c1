package visibility

import (
	"testing"

	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	"github.com/solmart/solmart-backend/pkg/errors"
)

func activeProduct() *models.Product {
	return &models.Product{Name: "Solana Hoodie", IsActive: true}
}

func approvedVendor() *models.User {
	return &models.User{Role: enums.UserRoleVendor, VendorStatus: enums.VendorStatusApproved}
}

func TestVisible(t *testing.T) {
	cases := []struct {
		name     string
		active   bool
		status   enums.VendorStatus
		expected bool
	}{
		{"active product approved vendor", true, enums.VendorStatusApproved, true},
		{"inactive product approved vendor", false, enums.VendorStatusApproved, false},
		{"active product suspended vendor", true, enums.VendorStatusSuspended, false},
		{"inactive product suspended vendor", false, enums.VendorStatusSuspended, false},
		{"active product pending vendor", true, enums.VendorStatusPending, false},
		{"active product rejected vendor", true, enums.VendorStatusRejected, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product := activeProduct()
			product.IsActive = tc.active
			vendor := approvedVendor()
			vendor.VendorStatus = tc.status
			if got := Visible(product, vendor); got != tc.expected {
				t.Fatalf("expected visible=%v, got %v", tc.expected, got)
			}
		})
	}

	if Visible(nil, approvedVendor()) {
		t.Fatal("nil product should not be visible")
	}
	if Visible(activeProduct(), nil) {
		t.Fatal("nil vendor should not be visible")
	}
}

func TestEnsureProductVisible(t *testing.T) {
	t.Run("product missing", func(t *testing.T) {
		err := EnsureProductVisible(ProductVisibilityInput{Vendor: approvedVendor()})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("vendor missing", func(t *testing.T) {
		err := EnsureProductVisible(ProductVisibilityInput{Product: activeProduct()})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("inactive product", func(t *testing.T) {
		product := activeProduct()
		product.IsActive = false
		err := EnsureProductVisible(ProductVisibilityInput{Product: product, Vendor: approvedVendor()})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("suspended vendor", func(t *testing.T) {
		vendor := approvedVendor()
		vendor.VendorStatus = enums.VendorStatusSuspended
		err := EnsureProductVisible(ProductVisibilityInput{Product: activeProduct(), Vendor: vendor})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("success", func(t *testing.T) {
		err := EnsureProductVisible(ProductVisibilityInput{Product: activeProduct(), Vendor: approvedVendor()})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})
}
