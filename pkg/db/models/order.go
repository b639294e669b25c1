package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solmart/solmart-backend/pkg/enums"
	"github.com/solmart/solmart-backend/pkg/types"
)

// Order represents a confirmed purchase. Items is a frozen snapshot of the
// cart at checkout time; later catalog edits never alter it.
type Order struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserWallet           string            `gorm:"column:user_wallet;type:text;not null;index"`
	UserEmail            *string           `gorm:"column:user_email"`
	Items                []types.OrderItem `gorm:"column:items;type:jsonb;serializer:json;not null"`
	TotalAmount          decimal.Decimal   `gorm:"column:total_amount;type:numeric(20,9);not null"`
	Status               enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	TransactionSignature *string           `gorm:"column:transaction_signature"`
	TrackingNumber       *string           `gorm:"column:tracking_number"`
	EstimatedDelivery    *time.Time        `gorm:"column:estimated_delivery"`
	ShippingAddress      *types.Address    `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Notes                *string           `gorm:"column:notes"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
