package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solmart/solmart-backend/pkg/enums"
	"github.com/solmart/solmart-backend/pkg/types"
)

// CheckoutAttempt is the durable record written before any payment is
// broadcast. It carries a checkout from pending_payment through the
// terminal states, and is the row the reconciler drains when an order
// could not be recorded after a confirmed payment.
type CheckoutAttempt struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	IdempotencyToken string              `gorm:"column:idempotency_token;type:text;not null;uniqueIndex:checkout_attempts_idempotency_token_key"`
	Wallet           string              `gorm:"column:wallet;type:text;not null;index"`
	CartSnapshot     []types.OrderItem   `gorm:"column:cart_snapshot;type:jsonb;serializer:json;not null"`
	Total            decimal.Decimal     `gorm:"column:total;type:numeric(20,9);not null"`
	Memo             string              `gorm:"column:memo;not null"`
	Status           enums.AttemptStatus `gorm:"column:status;type:text;not null;default:'pending_payment';index"`
	TxSignature      *string             `gorm:"column:tx_signature"`
	OrderID          *uuid.UUID          `gorm:"column:order_id;type:uuid"`
	AttemptCount     int                 `gorm:"column:attempt_count;not null;default:0"`
	LastError        *string             `gorm:"column:last_error"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
