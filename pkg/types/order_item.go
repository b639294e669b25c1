package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is the immutable snapshot of a product at order time. Catalog
// edits never retroactively alter these values.
type OrderItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Qty         int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image,omitempty"`
	VendorID    *uuid.UUID      `json:"vendor_id,omitempty"`
	VendorName  *string         `json:"vendor_name,omitempty"`
}

// Total returns price multiplied by quantity.
func (i OrderItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// SumItemTotals adds up the line totals of the provided snapshots.
func SumItemTotals(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Total())
	}
	return sum
}
