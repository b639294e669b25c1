package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	"github.com/solmart/solmart-backend/pkg/pagination"
	"github.com/solmart/solmart-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_wallet TEXT NOT NULL,
  user_email TEXT,
  items TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  transaction_signature TEXT,
  tracking_number TEXT,
  estimated_delivery DATETIME,
  shipping_address TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, wallet string, created time.Time, status enums.OrderStatus, signature string) *models.Order {
	t.Helper()

	vendorID := uuid.New()
	vendorName := "Test Vendor"
	order := &models.Order{
		ID:         uuid.New(),
		UserWallet: wallet,
		Items: []types.OrderItem{
			{
				ProductID:   uuid.New(),
				ProductName: "Test Item",
				Qty:         2,
				Price:       decimal.NewFromFloat(0.5),
				VendorID:    &vendorID,
				VendorName:  &vendorName,
			},
		},
		TotalAmount: decimal.NewFromFloat(1.0),
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if signature != "" {
		order.TransactionSignature = &signature
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryListByWalletPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	wallet := "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var created []*models.Order
	for i := 0; i < 3; i++ {
		created = append(created, createTestOrder(t, db, wallet, base.Add(time.Duration(i)*time.Hour), enums.OrderStatusPending, ""))
	}
	createTestOrder(t, db, "other-wallet", base, enums.OrderStatusPending, "")

	page, err := repo.ListByWallet(context.Background(), wallet, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, created[2].ID, page[0].ID)
	assert.Equal(t, created[1].ID, page[1].ID)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID})
	rest, err := repo.ListByWallet(context.Background(), wallet, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, created[0].ID, rest[0].ID)
}

func TestRepositoryListAllFiltersByStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	createTestOrder(t, db, "wallet-a", base, enums.OrderStatusPending, "")
	shipped := createTestOrder(t, db, "wallet-b", base.Add(time.Hour), enums.OrderStatusShipped, "")

	status := enums.OrderStatusShipped
	rows, err := repo.ListAll(context.Background(), &status, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, shipped.ID, rows[0].ID)

	all, err := repo.ListAll(context.Background(), nil, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositorySearchMatchesWalletAndSignature(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	byWallet := createTestOrder(t, db, "7fUAJdStEuGbc3sM84cKRL6yYaaSstyLSU4ve5oovLS7", base, enums.OrderStatusPending, "")
	bySig := createTestOrder(t, db, "wallet-x", base.Add(time.Minute), enums.OrderStatusPending, "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnb")

	rows, err := repo.Search(context.Background(), "7fuajd", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, byWallet.ID, rows[0].ID)

	rows, err = repo.Search(context.Background(), "5verv8", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, bySig.ID, rows[0].ID)

	rows, err = repo.Search(context.Background(), "no-such-term", pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryFindBySignature(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := createTestOrder(t, db, "wallet-a", base, enums.OrderStatusPending, "sig-abc")

	found, err := repo.FindBySignature(context.Background(), "sig-abc")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindBySignature(context.Background(), "sig-missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
