package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/solmart/solmart-backend/pkg/enums"
	"github.com/solmart/solmart-backend/pkg/types"
)

// User represents a wallet-identified account. Vendor profile fields are
// populated once the user applies to sell; vendor_status tracks the
// approval workflow for that application.
type User struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	WalletAddress string             `gorm:"column:wallet_address;type:text;not null;uniqueIndex:users_wallet_address_key"`
	Email         *string            `gorm:"column:email"`
	Name          *string            `gorm:"column:name"`
	Role          enums.UserRole     `gorm:"column:role;type:text;not null;default:'buyer'"`
	BusinessName  *string            `gorm:"column:business_name"`
	Description   *string            `gorm:"column:description"`
	LogoURL       *string            `gorm:"column:logo_url"`
	ContactEmail  *string            `gorm:"column:contact_email"`
	Address       *types.Address     `gorm:"column:address;type:jsonb;serializer:json"`
	VendorStatus  enums.VendorStatus `gorm:"column:vendor_status;type:text;not null;default:'pending'"`
	AppliedAt     *time.Time         `gorm:"column:applied_at"`
	ReviewedAt    *time.Time         `gorm:"column:reviewed_at"`
	ReviewedBy    *uuid.UUID         `gorm:"column:reviewed_by;type:uuid"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
