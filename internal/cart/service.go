package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/solmart/solmart-backend/pkg/config"
	"github.com/solmart/solmart-backend/pkg/db/models"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/types"
)

// MaxItemQty caps a single cart line.
const MaxItemQty = 100

// Cart is the wallet-keyed aggregate stored in Redis. Item entries are
// price snapshots taken when the line was added; checkout re-validates
// against the live catalog before any payment.
type Cart struct {
	Wallet    string            `json:"wallet"`
	Items     []types.OrderItem `json:"items"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Total sums the cart's line totals.
func (c *Cart) Total() decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	return types.SumItemTotals(c.Items)
}

// store is the keyed-value surface the cart needs from Redis.
type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(wallet string) string
}

// catalogReader resolves visible products so cart lines snapshot real listings.
type catalogReader interface {
	GetCatalogProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

type vendorNamer interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service exposes the cart operations.
type Service interface {
	Fetch(ctx context.Context, wallet string) (*Cart, error)
	UpsertItem(ctx context.Context, wallet string, productID uuid.UUID, qty int) (*Cart, error)
	RemoveItem(ctx context.Context, wallet string, productID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, wallet string) error
}

type service struct {
	store   store
	catalog catalogReader
	vendors vendorNamer
	ttl     time.Duration
}

// NewService constructs a cart service instance.
func NewService(kv store, catalog catalogReader, vendors vendorNamer, cfg config.CartConfig) (Service, error) {
	if kv == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &service{store: kv, catalog: catalog, vendors: vendors, ttl: cfg.TTL}, nil
}

// Fetch loads the wallet's cart, returning an empty cart when none exists.
func (s *service) Fetch(ctx context.Context, wallet string) (*Cart, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet is required")
	}

	raw, err := s.store.Get(ctx, s.store.CartKey(wallet))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return &Cart{Wallet: wallet, Items: []types.OrderItem{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: load cart")
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart payload")
	}
	cart.Wallet = wallet
	if cart.Items == nil {
		cart.Items = []types.OrderItem{}
	}
	return &cart, nil
}

// UpsertItem sets the line quantity for the product, snapshotting the
// listing into the cart. A quantity of zero removes the line.
func (s *service) UpsertItem(ctx context.Context, wallet string, productID uuid.UUID, qty int) (*Cart, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if qty > MaxItemQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d", MaxItemQty))
	}
	if qty == 0 {
		return s.RemoveItem(ctx, wallet, productID)
	}

	cart, err := s.Fetch(ctx, wallet)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.GetCatalogProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < qty {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name))
	}

	item := types.OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Qty:         qty,
		Price:       product.Price,
		Image:       product.ImageURL,
	}
	vendorID := product.VendorID
	item.VendorID = &vendorID
	if s.vendors != nil {
		if vendor, err := s.vendors.GetByID(ctx, product.VendorID); err == nil && vendor.BusinessName != nil {
			item.VendorName = vendor.BusinessName
		}
	}

	replaced := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		cart.Items = append(cart.Items, item)
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops the product's line from the cart. Removing an absent
// line is a no-op.
func (s *service) RemoveItem(ctx context.Context, wallet string, productID uuid.UUID) (*Cart, error) {
	cart, err := s.Fetch(ctx, wallet)
	if err != nil {
		return nil, err
	}

	filtered := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			filtered = append(filtered, item)
		}
	}
	cart.Items = filtered

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear drops the wallet's cart entirely.
func (s *service) Clear(ctx context.Context, wallet string) error {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet is required")
	}
	if err := s.store.Del(ctx, s.store.CartKey(wallet)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: clear cart")
	}
	return nil
}

func (s *service) save(ctx context.Context, cart *Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encode cart payload")
	}
	if err := s.store.Set(ctx, s.store.CartKey(cart.Wallet), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: save cart")
	}
	return nil
}
