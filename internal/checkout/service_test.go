package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/solmart/solmart-backend/internal/cart"
	"github.com/solmart/solmart-backend/internal/orders"
	"github.com/solmart/solmart-backend/internal/payments"
	"github.com/solmart/solmart-backend/pkg/config"
	"github.com/solmart/solmart-backend/pkg/db"
	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/solana"
	"github.com/solmart/solmart-backend/pkg/types"
)

const testWallet = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

type stubCart struct {
	cart    *cart.Cart
	cleared int
}

func (s *stubCart) Fetch(ctx context.Context, wallet string) (*cart.Cart, error) {
	if s.cart == nil {
		return &cart.Cart{Wallet: wallet}, nil
	}
	return s.cart, nil
}

func (s *stubCart) Clear(ctx context.Context, wallet string) error {
	s.cleared++
	return nil
}

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubCatalog) GetCatalogProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[productID]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type stubStock struct {
	decrements map[uuid.UUID]int
}

func (s *stubStock) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if s.decrements == nil {
		s.decrements = map[uuid.UUID]int{}
	}
	s.decrements[id] += qty
	return true, nil
}

type stubOrders struct {
	err     error
	created []order.CreateInput
}

func (s *stubOrders) Create(ctx context.Context, input order.CreateInput) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, input)
	return &models.Order{
		ID:          uuid.New(),
		UserWallet:  input.UserWallet,
		Items:       input.Items,
		TotalAmount: types.SumItemTotals(input.Items),
		Status:      enums.OrderStatusPending,
	}, nil
}

type stubPayer struct {
	receipt  *payment.Receipt
	err      error
	requests []payment.Request
}

func (s *stubPayer) Pay(ctx context.Context, signer solana.WalletSigner, req payment.Request) (*payment.Receipt, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.receipt, nil
}

type stubConfirmer struct {
	err  error
	hits int
}

func (s *stubConfirmer) ConfirmSignature(ctx context.Context, signature string, poll, timeout time.Duration) error {
	s.hits++
	return s.err
}

type harness struct {
	svc      Service
	repo     *Repository
	conn     *gorm.DB
	carts    *stubCart
	catalog  *stubCatalog
	stock    *stubStock
	orders   *stubOrders
	payer    *stubPayer
	ledger   *stubConfirmer
	itemsIDs []uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.CheckoutAttempt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hoodieID, stickersID := uuid.New(), uuid.New()
	h := &harness{
		repo: NewRepository(conn),
		conn: conn,
		carts: &stubCart{cart: &cart.Cart{
			Wallet: testWallet,
			Items: []types.OrderItem{
				{ProductID: hoodieID, ProductName: "Solana Hoodie", Qty: 1, Price: decimal.RequireFromString("0.05")},
				{ProductID: stickersID, ProductName: "Sticker Pack", Qty: 2, Price: decimal.RequireFromString("0.0025")},
			},
		}},
		catalog: &stubCatalog{products: map[uuid.UUID]*models.Product{
			hoodieID:   {ID: hoodieID, Name: "Solana Hoodie", Stock: 5, IsActive: true},
			stickersID: {ID: stickersID, Name: "Sticker Pack", Stock: 10, IsActive: true},
		}},
		stock:    &stubStock{},
		orders:   &stubOrders{},
		payer:    &stubPayer{receipt: &payment.Receipt{Signature: "sig-live-1", Lamports: 55_000_000}},
		ledger:   &stubConfirmer{},
		itemsIDs: []uuid.UUID{hoodieID, stickersID},
	}

	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	svc, err := NewService(
		h.repo, db.NewWithConn(conn), h.carts, h.catalog, h.stock, h.orders, h.payer, h.ledger,
		config.PaymentConfig{MerchantWallet: "8ZNnKDZFP5MBLMpQcQCQBtEWYS6xNfJXLbW7jjwQ2jLU", DefaultMemo: "SolMart Purchase"},
		config.LedgerConfig{ConfirmPollMS: 1, ConfirmTimeout: time.Second},
		config.ReconcilerConfig{BatchSize: 10, MaxAttempts: 3},
		logg,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h.svc = svc
	return h
}

func (h *harness) attemptCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := h.conn.Model(&models.CheckoutAttempt{}).Count(&n).Error; err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	return n
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected classified error, got %v", err)
	}
	return typed.Code()
}

func TestBeginCompletesCheckout(t *testing.T) {
	h := newHarness(t)

	result, err := h.svc.Begin(context.Background(), testWallet, nil, BeginInput{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if result.Order == nil {
		t.Fatal("expected a recorded order")
	}
	if !result.Order.TotalAmount.Equal(decimal.RequireFromString("0.055")) {
		t.Fatalf("expected order total 0.055, got %s", result.Order.TotalAmount)
	}
	if result.Attempt.Status != enums.AttemptStatusCompleted {
		t.Fatalf("expected completed attempt, got %s", result.Attempt.Status)
	}
	if result.Attempt.TxSignature == nil || *result.Attempt.TxSignature != "sig-live-1" {
		t.Fatal("completed attempt must carry the transaction signature")
	}
	if result.Attempt.OrderID == nil || *result.Attempt.OrderID != result.Order.ID {
		t.Fatal("completed attempt must reference its order")
	}

	if len(h.payer.requests) != 1 {
		t.Fatalf("expected one payment, got %d", len(h.payer.requests))
	}
	if !h.payer.requests[0].Amount.Equal(decimal.RequireFromString("0.055")) {
		t.Fatalf("expected payment of 0.055 SOL, got %s", h.payer.requests[0].Amount)
	}
	if h.payer.requests[0].Memo != "SolMart Purchase" {
		t.Fatalf("expected default memo, got %q", h.payer.requests[0].Memo)
	}
	if h.stock.decrements[h.itemsIDs[0]] != 1 || h.stock.decrements[h.itemsIDs[1]] != 2 {
		t.Fatalf("expected stock decrements per line, got %v", h.stock.decrements)
	}
	if h.carts.cleared != 1 {
		t.Fatal("cart must be cleared after a completed checkout")
	}
}

func TestBeginRejectsEmptyCart(t *testing.T) {
	h := newHarness(t)
	h.carts.cart = &cart.Cart{Wallet: testWallet}

	_, err := h.svc.Begin(context.Background(), testWallet, nil, BeginInput{})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.payer.requests) != 0 {
		t.Fatal("empty cart must not reach the payment layer")
	}
}

func TestBeginRevalidatesStock(t *testing.T) {
	h := newHarness(t)
	h.catalog.products[h.itemsIDs[1]].Stock = 1

	_, err := h.svc.Begin(context.Background(), testWallet, nil, BeginInput{})
	if codeOf(t, err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for sold-out line, got %v", err)
	}
	if h.attemptCount(t) != 0 {
		t.Fatal("failed revalidation must not open an attempt")
	}
	if len(h.payer.requests) != 0 {
		t.Fatal("failed revalidation must not reach the payment layer")
	}
}

func TestBeginRevalidatesVisibility(t *testing.T) {
	h := newHarness(t)
	delete(h.catalog.products, h.itemsIDs[0])

	_, err := h.svc.Begin(context.Background(), testWallet, nil, BeginInput{})
	if codeOf(t, err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for hidden listing, got %v", err)
	}
}

func TestBeginUserCancelledMarksAttemptCancelled(t *testing.T) {
	h := newHarness(t)
	h.payer.err = &payment.Error{Outcome: enums.PaymentOutcomeUserCancelled, Err: solana.ErrUserDeclined}

	_, err := h.svc.Begin(context.Background(), testWallet, nil, BeginInput{IdempotencyToken: "tok-cancel"})
	if codeOf(t, err) != pkgerrors.CodePaymentDeclined {
		t.Fatalf("expected payment declined, got %v", err)
	}

	attempt, findErr := h.repo.FindByToken(context.Background(), "tok-cancel")
	if findErr != nil {
		t.Fatalf("find attempt: %v", findErr)
	}
	if attempt.Status != enums.AttemptStatusCancelled {
		t.Fatalf("expected cancelled attempt, got %s", attempt.Status)
	}
	if h.carts.cleared != 0 {
		t.Fatal("cancelled checkout must keep the cart")
	}
	if len(h.stock.decrements) != 0 {
		t.Fatal("cancelled checkout must not touch stock")
	}
}

func TestBeginInsufficientFundsMarksAttemptFailed(t *testing.T) {
	h := newHarness(t)
	h.payer.err = &payment.Error{Outcome: enums.PaymentOutcomeInsufficientFunds, Err: solana.ErrInsufficientFunds}

	_, err := h.svc.Begin(context.Background(), testWallet, nil, BeginInput{IdempotencyToken: "tok-funds"})
	if codeOf(t, err) != pkgerrors.CodePaymentFailed {
		t.Fatalf("expected payment failed, got %v", err)
	}

	attempt, _ := h.repo.FindByToken(context.Background(), "tok-funds")
	if attempt.Status != enums.AttemptStatusFailed {
		t.Fatalf("expected failed attempt, got %s", attempt.Status)
	}
	if attempt.LastError == nil {
		t.Fatal("failed attempt must record the reason")
	}
}

func TestBeginExecutionFailureKeepsSignature(t *testing.T) {
	h := newHarness(t)
	h.payer.err = &payment.Error{
		Outcome:   enums.PaymentOutcomeExecutionFailed,
		Signature: "sig-reverted",
		Err:       fmt.Errorf("%w: sig-reverted: custom program error", solana.ErrTransactionFailed),
	}

	_, err := h.svc.Begin(context.Background(), testWallet, nil, BeginInput{IdempotencyToken: "tok-reverted"})
	if codeOf(t, err) != pkgerrors.CodePaymentFailed {
		t.Fatalf("expected payment failed, got %v", err)
	}

	attempt, _ := h.repo.FindByToken(context.Background(), "tok-reverted")
	if attempt.Status != enums.AttemptStatusFailed {
		t.Fatalf("expected failed attempt, got %s", attempt.Status)
	}
	if attempt.TxSignature == nil || *attempt.TxSignature != "sig-reverted" {
		t.Fatal("on-chain failure must keep the broadcast signature for audit")
	}
}

func TestBeginUnknownOutcomeQueuesReconciliation(t *testing.T) {
	h := newHarness(t)
	h.payer.err = &payment.Error{
		Outcome:   enums.PaymentOutcomeUnknown,
		Signature: "sig-limbo",
		Err:       solana.ErrConfirmTimeout,
	}

	_, err := h.svc.Begin(context.Background(), testWallet, nil, BeginInput{IdempotencyToken: "tok-limbo"})
	if codeOf(t, err) != pkgerrors.CodePaymentFailed {
		t.Fatalf("expected payment failed for unknown outcome, got %v", err)
	}

	attempt, _ := h.repo.FindByToken(context.Background(), "tok-limbo")
	if attempt.Status != enums.AttemptStatusNeedsReconciliation {
		t.Fatalf("expected needs_reconciliation, got %s", attempt.Status)
	}
	if attempt.TxSignature == nil || *attempt.TxSignature != "sig-limbo" {
		t.Fatal("unknown outcome must keep the broadcast signature for the reconciler")
	}
}

func TestBeginParksPaidAttemptWhenOrderFails(t *testing.T) {
	h := newHarness(t)
	h.orders.err = errors.New("orders table unavailable")

	_, err := h.svc.Begin(context.Background(), testWallet, nil, BeginInput{IdempotencyToken: "tok-park"})
	if codeOf(t, err) != pkgerrors.CodeOrderUnreconciled {
		t.Fatalf("expected order unreconciled, got %v", err)
	}

	attempt, _ := h.repo.FindByToken(context.Background(), "tok-park")
	if attempt.Status != enums.AttemptStatusNeedsReconciliation {
		t.Fatalf("paid attempt with no order must park, got %s", attempt.Status)
	}
	if attempt.TxSignature == nil || *attempt.TxSignature != "sig-live-1" {
		t.Fatal("parked attempt must keep its signature")
	}
	if attempt.LastError == nil {
		t.Fatal("parked attempt must record why the order failed")
	}
}

func TestBeginReplaysCompletedToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.Begin(ctx, testWallet, nil, BeginInput{IdempotencyToken: "tok-replay"})
	if err != nil {
		t.Fatalf("first begin: %v", err)
	}

	second, err := h.svc.Begin(ctx, testWallet, nil, BeginInput{IdempotencyToken: "tok-replay"})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.Attempt.ID != first.Attempt.ID {
		t.Fatal("replay must return the original attempt")
	}
	if len(h.payer.requests) != 1 {
		t.Fatalf("replay must not charge again, got %d payments", len(h.payer.requests))
	}
}

func TestBeginRejectsInFlightToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.repo.Create(ctx, &models.CheckoutAttempt{
		IdempotencyToken: "tok-inflight",
		Wallet:           testWallet,
		CartSnapshot:     h.carts.cart.Items,
		Total:            h.carts.cart.Total(),
		Memo:             "SolMart Purchase",
		Status:           enums.AttemptStatusPendingPayment,
	})
	if err != nil {
		t.Fatalf("seed attempt: %v", err)
	}

	_, err = h.svc.Begin(ctx, testWallet, nil, BeginInput{IdempotencyToken: "tok-inflight"})
	if codeOf(t, err) != pkgerrors.CodeIdempotency {
		t.Fatalf("expected idempotency error, got %v", err)
	}
}

func TestBeginRejectsForeignToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.repo.Create(ctx, &models.CheckoutAttempt{
		IdempotencyToken: "tok-foreign",
		Wallet:           "someone-else",
		CartSnapshot:     h.carts.cart.Items,
		Total:            h.carts.cart.Total(),
		Memo:             "SolMart Purchase",
		Status:           enums.AttemptStatusCompleted,
	})
	if err != nil {
		t.Fatalf("seed attempt: %v", err)
	}

	_, err = h.svc.Begin(ctx, testWallet, nil, BeginInput{IdempotencyToken: "tok-foreign"})
	if codeOf(t, err) != pkgerrors.CodeIdempotency {
		t.Fatalf("expected idempotency error for foreign token, got %v", err)
	}
}

func TestBeginRetriesFailedToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reason := "insufficient funds"
	seeded, err := h.repo.Create(ctx, &models.CheckoutAttempt{
		IdempotencyToken: "tok-retry",
		Wallet:           testWallet,
		CartSnapshot:     h.carts.cart.Items,
		Total:            h.carts.cart.Total(),
		Memo:             "SolMart Purchase",
		Status:           enums.AttemptStatusFailed,
		LastError:        &reason,
	})
	if err != nil {
		t.Fatalf("seed attempt: %v", err)
	}

	result, err := h.svc.Begin(ctx, testWallet, nil, BeginInput{IdempotencyToken: "tok-retry"})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Attempt.ID != seeded.ID {
		t.Fatal("retry must revive the existing attempt row")
	}
	if result.Attempt.Status != enums.AttemptStatusCompleted {
		t.Fatalf("expected completed after retry, got %s", result.Attempt.Status)
	}
	if result.Attempt.LastError != nil {
		t.Fatal("completed attempt must drop the stale error")
	}
}

func TestGetAttemptHidesForeignWallets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.Begin(ctx, testWallet, nil, BeginInput{IdempotencyToken: "tok-owned"}); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if _, err := h.svc.GetAttempt(ctx, testWallet, "tok-owned"); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	_, err := h.svc.GetAttempt(ctx, "someone-else", "tok-owned")
	if codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("foreign lookup must read as not found, got %v", err)
	}
	_, err = h.svc.GetAttempt(ctx, testWallet, "tok-missing")
	if codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("missing token must read as not found, got %v", err)
	}
}

func seedReconcilable(t *testing.T, h *harness, token string, mutate func(a *models.CheckoutAttempt)) *models.CheckoutAttempt {
	t.Helper()
	sig := fmt.Sprintf("sig-%s", token)
	attempt := &models.CheckoutAttempt{
		IdempotencyToken: token,
		Wallet:           testWallet,
		CartSnapshot:     h.carts.cart.Items,
		Total:            h.carts.cart.Total(),
		Memo:             "SolMart Purchase",
		Status:           enums.AttemptStatusNeedsReconciliation,
		TxSignature:      &sig,
	}
	if mutate != nil {
		mutate(attempt)
	}
	created, err := h.repo.Create(context.Background(), attempt)
	if err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
	return created
}

func TestReconcileBatchSettlesConfirmedAttempt(t *testing.T) {
	h := newHarness(t)
	seeded := seedReconcilable(t, h, "tok-settle", nil)

	stats, err := h.svc.ReconcileBatch(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if stats.Settled != 1 {
		t.Fatalf("expected one settled attempt, got %+v", stats)
	}

	attempt, _ := h.repo.FindByID(context.Background(), seeded.ID)
	if attempt.Status != enums.AttemptStatusCompleted {
		t.Fatalf("expected completed, got %s", attempt.Status)
	}
	if attempt.OrderID == nil {
		t.Fatal("settled attempt must reference its order")
	}
	if len(h.orders.created) != 1 {
		t.Fatalf("expected one recorded order, got %d", len(h.orders.created))
	}
	if h.orders.created[0].TransactionSignature == nil || *h.orders.created[0].TransactionSignature != "sig-tok-settle" {
		t.Fatal("recovered order must carry the confirmed signature")
	}
	if h.stock.decrements[h.itemsIDs[0]] != 1 {
		t.Fatal("settling must decrement stock for the recovered order")
	}
}

func TestReconcileBatchRetriesOnTimeout(t *testing.T) {
	h := newHarness(t)
	seeded := seedReconcilable(t, h, "tok-wait", nil)
	h.ledger.err = solana.ErrConfirmTimeout

	stats, err := h.svc.ReconcileBatch(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if stats.Retried != 1 {
		t.Fatalf("expected one retried attempt, got %+v", stats)
	}

	attempt, _ := h.repo.FindByID(context.Background(), seeded.ID)
	if attempt.Status != enums.AttemptStatusNeedsReconciliation {
		t.Fatalf("retried attempt must stay queued, got %s", attempt.Status)
	}
	if attempt.AttemptCount != 1 {
		t.Fatalf("expected attempt count 1, got %d", attempt.AttemptCount)
	}
}

func TestReconcileBatchAbandonsAfterMaxChecks(t *testing.T) {
	h := newHarness(t)
	seeded := seedReconcilable(t, h, "tok-giveup", func(a *models.CheckoutAttempt) {
		a.AttemptCount = 2
	})
	h.ledger.err = solana.ErrConfirmTimeout

	stats, err := h.svc.ReconcileBatch(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if stats.Abandoned != 1 {
		t.Fatalf("expected one abandoned attempt, got %+v", stats)
	}

	attempt, _ := h.repo.FindByID(context.Background(), seeded.ID)
	if attempt.Status != enums.AttemptStatusAbandoned {
		t.Fatalf("expected abandoned, got %s", attempt.Status)
	}
}

func TestReconcileBatchFailsOnChainFailure(t *testing.T) {
	h := newHarness(t)
	seeded := seedReconcilable(t, h, "tok-dead", nil)
	h.ledger.err = fmt.Errorf("%w: sig-tok-dead: custom program error", solana.ErrTransactionFailed)

	stats, err := h.svc.ReconcileBatch(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected one failed attempt, got %+v", stats)
	}

	attempt, _ := h.repo.FindByID(context.Background(), seeded.ID)
	if attempt.Status != enums.AttemptStatusFailed {
		t.Fatalf("expected failed, got %s", attempt.Status)
	}
	if len(h.orders.created) != 0 {
		t.Fatal("on-chain failure must not record an order")
	}
}

func TestReconcileBatchRetriesOnRPCFailure(t *testing.T) {
	h := newHarness(t)
	seeded := seedReconcilable(t, h, "tok-rpc-down", nil)
	h.ledger.err = pkgerrors.New(pkgerrors.CodeDependency, "rpc node request failed: connection refused")

	stats, err := h.svc.ReconcileBatch(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if stats.Retried != 1 {
		t.Fatalf("expected one retried attempt, got %+v", stats)
	}

	attempt, _ := h.repo.FindByID(context.Background(), seeded.ID)
	if attempt.Status != enums.AttemptStatusNeedsReconciliation {
		t.Fatalf("rpc failure must keep the attempt queued, got %s", attempt.Status)
	}
	if attempt.AttemptCount != 1 {
		t.Fatalf("expected one recorded check, got %d", attempt.AttemptCount)
	}
}

func TestReconcileBatchAbandonsSignaturelessAttempt(t *testing.T) {
	h := newHarness(t)
	seeded := seedReconcilable(t, h, "tok-nosig", func(a *models.CheckoutAttempt) {
		a.TxSignature = nil
	})

	stats, err := h.svc.ReconcileBatch(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if stats.Abandoned != 1 {
		t.Fatalf("expected one abandoned attempt, got %+v", stats)
	}
	if h.ledger.hits != 0 {
		t.Fatal("signatureless attempt must not hit the ledger")
	}

	attempt, _ := h.repo.FindByID(context.Background(), seeded.ID)
	if attempt.Status != enums.AttemptStatusAbandoned {
		t.Fatalf("expected abandoned, got %s", attempt.Status)
	}
}

func TestReconcileBatchSweepsStalePaidAttempt(t *testing.T) {
	h := newHarness(t)
	seeded := seedReconcilable(t, h, "tok-stale-paid", func(a *models.CheckoutAttempt) {
		a.Status = enums.AttemptStatusPaid
	})
	stale := time.Now().UTC().Add(-time.Hour)
	if err := h.conn.Model(&models.CheckoutAttempt{}).Where("id = ?", seeded.ID).UpdateColumn("updated_at", stale).Error; err != nil {
		t.Fatalf("age attempt: %v", err)
	}

	fresh := seedReconcilable(t, h, "tok-fresh-paid", func(a *models.CheckoutAttempt) {
		a.Status = enums.AttemptStatusPaid
	})

	stats, err := h.svc.ReconcileBatch(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if stats.Settled != 1 {
		t.Fatalf("expected only the stale paid attempt settled, got %+v", stats)
	}

	attempt, _ := h.repo.FindByID(context.Background(), seeded.ID)
	if attempt.Status != enums.AttemptStatusCompleted {
		t.Fatalf("stale paid attempt should settle, got %s", attempt.Status)
	}
	untouched, _ := h.repo.FindByID(context.Background(), fresh.ID)
	if untouched.Status != enums.AttemptStatusPaid {
		t.Fatalf("fresh paid attempt must stay with its request, got %s", untouched.Status)
	}
}

func TestGenerateToken(t *testing.T) {
	items := []types.OrderItem{{ProductID: uuid.New(), Qty: 1, Price: decimal.NewFromInt(1)}}
	a := GenerateToken(testWallet, items)
	b := GenerateToken(testWallet, items)
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Fatal("generated tokens must not collide across calls")
	}
}
