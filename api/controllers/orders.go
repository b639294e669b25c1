package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solmart/solmart-backend/api/responses"
	"github.com/solmart/solmart-backend/api/validators"
	ordersvc "github.com/solmart/solmart-backend/internal/orders"
	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/types"
)

type orderResponse struct {
	ID                   uuid.UUID         `json:"id"`
	UserWallet           string            `json:"user_wallet"`
	UserEmail            *string           `json:"user_email,omitempty"`
	Items                []types.OrderItem `json:"items"`
	TotalAmount          decimal.Decimal   `json:"total_amount"`
	Status               string            `json:"status"`
	TransactionSignature *string           `json:"transaction_signature,omitempty"`
	TrackingNumber       *string           `json:"tracking_number,omitempty"`
	EstimatedDelivery    *time.Time        `json:"estimated_delivery,omitempty"`
	ShippingAddress      *types.Address    `json:"shipping_address,omitempty"`
	Notes                *string           `json:"notes,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	return orderResponse{
		ID:                   order.ID,
		UserWallet:           order.UserWallet,
		UserEmail:            order.UserEmail,
		Items:                order.Items,
		TotalAmount:          order.TotalAmount,
		Status:               string(order.Status),
		TransactionSignature: order.TransactionSignature,
		TrackingNumber:       order.TrackingNumber,
		EstimatedDelivery:    order.EstimatedDelivery,
		ShippingAddress:      order.ShippingAddress,
		Notes:                order.Notes,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

func newOrderListResponse(orders []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return out
}

// OrdersList returns the wallet's own order history.
func OrdersList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListByWallet(r.Context(), wallet, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(orders))
	}
}

// OrderGet returns one of the wallet's own orders.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.GetOwnedByID(r.Context(), wallet, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderCancel cancels one of the wallet's own orders. Ownership is checked
// first so a foreign order id reads as not found, never as forbidden.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		if _, err := svc.GetOwnedByID(r.Context(), wallet, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, enums.OrderStatusCancelled)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
