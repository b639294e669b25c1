package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solmart/solmart-backend/api/responses"
	"github.com/solmart/solmart-backend/api/validators"
	checkoutsvc "github.com/solmart/solmart-backend/internal/checkout"
	"github.com/solmart/solmart-backend/pkg/config"
	"github.com/solmart/solmart-backend/pkg/db/models"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/solana"
	"github.com/solmart/solmart-backend/pkg/types"
)

type checkoutRequest struct {
	IdempotencyToken *string        `json:"idempotency_token,omitempty"`
	Email            *string        `json:"email,omitempty" validate:"omitempty,email"`
	ShippingAddress  *types.Address `json:"shipping_address,omitempty"`
	Notes            *string        `json:"notes,omitempty"`
}

type attemptResponse struct {
	ID               uuid.UUID         `json:"id"`
	IdempotencyToken string            `json:"idempotency_token"`
	Items            []types.OrderItem `json:"items"`
	Total            decimal.Decimal   `json:"total"`
	Status           string            `json:"status"`
	TxSignature      *string           `json:"transaction_signature,omitempty"`
	OrderID          *uuid.UUID        `json:"order_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type checkoutResponse struct {
	Attempt attemptResponse `json:"attempt"`
	Order   *orderResponse  `json:"order,omitempty"`
	Outcome string          `json:"outcome"`
}

func newAttemptResponse(attempt *models.CheckoutAttempt) attemptResponse {
	return attemptResponse{
		ID:               attempt.ID,
		IdempotencyToken: attempt.IdempotencyToken,
		Items:            attempt.CartSnapshot,
		Total:            attempt.Total,
		Status:           string(attempt.Status),
		TxSignature:      attempt.TxSignature,
		OrderID:          attempt.OrderID,
		CreatedAt:        attempt.CreatedAt,
		UpdatedAt:        attempt.UpdatedAt,
	}
}

func newCheckoutResponse(result *checkoutsvc.Result) checkoutResponse {
	out := checkoutResponse{
		Attempt: newAttemptResponse(result.Attempt),
		Outcome: string(result.Outcome),
	}
	if result.Order != nil {
		order := newOrderResponse(result.Order)
		out.Order = &order
	}
	return out
}

// CheckoutBegin drives a full checkout: cart revalidation, the on-ledger
// payment, and order recording. The signer is the server-custodied dev
// wallet; production deployments leave the seed unset and sign client-side.
func CheckoutBegin(svc checkoutsvc.Service, ledger *solana.Client, paymentCfg config.PaymentConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if paymentCfg.DevWalletSeed == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "wallet signing is not available"))
			return
		}
		signer, err := solana.NewDevSigner(paymentCfg.DevWalletSeed, wallet, ledger)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build wallet signer"))
			return
		}

		input := checkoutsvc.BeginInput{
			UserEmail:       payload.Email,
			ShippingAddress: payload.ShippingAddress,
			Notes:           payload.Notes,
		}
		if payload.IdempotencyToken != nil {
			input.IdempotencyToken = strings.TrimSpace(*payload.IdempotencyToken)
		}

		result, err := svc.Begin(r.Context(), wallet, signer, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutResponse(result))
	}
}

// CheckoutGetAttempt returns the wallet's checkout attempt for a token, so
// a buyer can poll a payment that landed in reconciliation.
func CheckoutGetAttempt(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "checkout token is required"))
			return
		}

		attempt, err := svc.GetAttempt(r.Context(), wallet, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAttemptResponse(attempt))
	}
}
