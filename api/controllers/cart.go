package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solmart/solmart-backend/api/middleware"
	"github.com/solmart/solmart-backend/api/responses"
	"github.com/solmart/solmart-backend/api/validators"
	cartsvc "github.com/solmart/solmart-backend/internal/cart"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/types"
)

type cartResponse struct {
	Wallet    string            `json:"wallet"`
	Items     []types.OrderItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func newCartResponse(basket *cartsvc.Cart) cartResponse {
	items := basket.Items
	if items == nil {
		items = []types.OrderItem{}
	}
	return cartResponse{
		Wallet:    basket.Wallet,
		Items:     items,
		Total:     basket.Total(),
		UpdatedAt: basket.UpdatedAt,
	}
}

func walletFromContext(r *http.Request) (string, error) {
	wallet := middleware.WalletFromContext(r.Context())
	if wallet == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "wallet context missing")
	}
	return wallet, nil
}

// CartGet returns the wallet's current cart.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		basket, err := svc.Fetch(r.Context(), wallet)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(basket))
	}
}

type upsertCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"quantity" validate:"required,gt=0"`
}

// CartUpsertItem sets the quantity for one product line.
func CartUpsertItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload upsertCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		basket, err := svc.UpsertItem(r.Context(), wallet, payload.ProductID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(basket))
	}
}

// CartRemoveItem drops one product line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		basket, err := svc.RemoveItem(r.Context(), wallet, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(basket))
	}
}

// CartClear empties the wallet's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), wallet); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
