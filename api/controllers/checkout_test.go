package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solmart/solmart-backend/api/middleware"
	checkoutsvc "github.com/solmart/solmart-backend/internal/checkout"
	"github.com/solmart/solmart-backend/pkg/config"
	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/solana"
	"github.com/solmart/solmart-backend/pkg/types"
)

const testControllerWallet = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func authedRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithWallet(req.Context(), testControllerWallet)
	ctx = middleware.WithUserID(ctx, uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.UserRoleBuyer))
	return req.WithContext(ctx)
}

type stubCheckoutService struct {
	result  *checkoutsvc.Result
	attempt *models.CheckoutAttempt
	err     error

	gotWallet string
	gotInput  checkoutsvc.BeginInput
}

func (s *stubCheckoutService) Begin(_ context.Context, wallet string, _ solana.WalletSigner, input checkoutsvc.BeginInput) (*checkoutsvc.Result, error) {
	s.gotWallet = wallet
	s.gotInput = input
	return s.result, s.err
}

func (s *stubCheckoutService) GetAttempt(context.Context, string, string) (*models.CheckoutAttempt, error) {
	return s.attempt, s.err
}

func (s *stubCheckoutService) ReconcileBatch(context.Context) (checkoutsvc.ReconcileStats, error) {
	return checkoutsvc.ReconcileStats{}, nil
}

func testPaymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		MerchantWallet: "8ZNnKDZFP5MBLMpQcQCQBtEWYS6xNfJXLbW7jjwQ2jLU",
		DefaultMemo:    "SolMart Purchase",
		DevWalletSeed:  "test-seed",
	}
}

func TestCheckoutBeginSuccess(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubCheckoutService{
		result: &checkoutsvc.Result{
			Attempt: &models.CheckoutAttempt{
				ID:               uuid.New(),
				IdempotencyToken: "tok-1",
				Wallet:           testControllerWallet,
				Total:            decimal.RequireFromString("0.055"),
				Status:           enums.AttemptStatusCompleted,
				OrderID:          &orderID,
			},
			Order: &models.Order{
				ID:         orderID,
				UserWallet: testControllerWallet,
				Items:      []types.OrderItem{},
			},
			Outcome: enums.PaymentOutcomeSuccess,
		},
	}

	handler := CheckoutBegin(svc, nil, testPaymentConfig(), testLogger())
	req := authedRequest(http.MethodPost, "/api/v1/checkout", `{"idempotency_token":"tok-1","notes":"leave at door"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotWallet != testControllerWallet {
		t.Fatalf("expected session wallet forwarded, got %q", svc.gotWallet)
	}
	if svc.gotInput.IdempotencyToken != "tok-1" {
		t.Fatalf("expected token forwarded, got %q", svc.gotInput.IdempotencyToken)
	}

	var envelope struct {
		Data checkoutResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Outcome != "success" {
		t.Fatalf("expected success outcome, got %q", envelope.Data.Outcome)
	}
	if envelope.Data.Order == nil || envelope.Data.Order.ID != orderID {
		t.Fatal("expected the recorded order in the response")
	}
}

func TestCheckoutBeginWithoutDevSeedRefuses(t *testing.T) {
	t.Parallel()

	cfg := testPaymentConfig()
	cfg.DevWalletSeed = ""

	handler := CheckoutBegin(&stubCheckoutService{}, nil, cfg, testLogger())
	req := authedRequest(http.MethodPost, "/api/v1/checkout", `{}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestCheckoutBeginSurfacesPaymentDecline(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment was declined in the wallet")}

	handler := CheckoutBegin(svc, nil, testPaymentConfig(), testLogger())
	req := authedRequest(http.MethodPost, "/api/v1/checkout", `{}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "declined in the wallet") {
		t.Fatalf("expected decline message, got %s", rec.Body.String())
	}
}

func TestCheckoutBeginRequiresWalletContext(t *testing.T) {
	t.Parallel()

	handler := CheckoutBegin(&stubCheckoutService{}, nil, testPaymentConfig(), testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCheckoutGetAttempt(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{
		attempt: &models.CheckoutAttempt{
			ID:               uuid.New(),
			IdempotencyToken: "tok-9",
			Wallet:           testControllerWallet,
			Status:           enums.AttemptStatusNeedsReconciliation,
		},
	}

	r := chi.NewRouter()
	r.Get("/api/v1/checkout/{token}", CheckoutGetAttempt(svc, testLogger()))

	req := authedRequest(http.MethodGet, "/api/v1/checkout/tok-9", "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "needs_reconciliation") {
		t.Fatalf("expected attempt status in body, got %s", rec.Body.String())
	}
}
