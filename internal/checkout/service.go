package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
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

// cartReader is the slice of the cart service checkout needs.
type cartReader interface {
	Fetch(ctx context.Context, wallet string) (*cart.Cart, error)
	Clear(ctx context.Context, wallet string) error
}

// catalogReader re-validates cart lines against the live catalog.
type catalogReader interface {
	GetCatalogProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

// stockKeeper performs the conditional stock decrement after a sale.
type stockKeeper interface {
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

// orderWriter records the confirmed purchase.
type orderWriter interface {
	Create(ctx context.Context, input order.CreateInput) (*models.Order, error)
}

// payer executes the wallet payment.
type payer interface {
	Pay(ctx context.Context, signer solana.WalletSigner, req payment.Request) (*payment.Receipt, error)
}

// confirmer is the ledger surface the reconciler needs.
type confirmer interface {
	ConfirmSignature(ctx context.Context, signature string, poll, timeout time.Duration) error
}

// BeginInput carries the validated checkout payload.
type BeginInput struct {
	IdempotencyToken string
	UserEmail        *string
	ShippingAddress  *types.Address
	Notes            *string
}

// Result is what a finished checkout hands back. Order is nil unless the
// attempt reached completed.
type Result struct {
	Attempt *models.CheckoutAttempt
	Order   *models.Order
	Outcome enums.PaymentOutcome
}

// ReconcileStats summarizes one reconciler sweep.
type ReconcileStats struct {
	Settled   int
	Retried   int
	Abandoned int
	Failed    int
}

// Service drives a checkout from cart to recorded order, writing a durable
// attempt row before any payment is broadcast so no confirmed payment can
// be lost to a crash.
type Service interface {
	Begin(ctx context.Context, wallet string, signer solana.WalletSigner, input BeginInput) (*Result, error)
	GetAttempt(ctx context.Context, wallet, token string) (*models.CheckoutAttempt, error)
	ReconcileBatch(ctx context.Context) (ReconcileStats, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	carts    cartReader
	catalog  catalogReader
	stock    stockKeeper
	orders   orderWriter
	payments payer
	ledger   confirmer
	memo     string
	poll     time.Duration
	timeout  time.Duration
	batch    int
	maxTries int
	logg     *logger.Logger
}

// NewService constructs the checkout orchestrator.
func NewService(
	repo *Repository,
	dbClient *db.Client,
	carts cartReader,
	catalog catalogReader,
	stock stockKeeper,
	orderSvc orderWriter,
	paymentSvc payer,
	ledger confirmer,
	paymentCfg config.PaymentConfig,
	ledgerCfg config.LedgerConfig,
	reconcilerCfg config.ReconcilerConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if paymentSvc == nil {
		return nil, fmt.Errorf("payment service required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	poll := time.Duration(ledgerCfg.ConfirmPollMS) * time.Millisecond
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	batch := reconcilerCfg.BatchSize
	if batch <= 0 {
		batch = 50
	}
	maxTries := reconcilerCfg.MaxAttempts
	if maxTries <= 0 {
		maxTries = 10
	}

	return &service{
		repo:     repo,
		dbClient: dbClient,
		carts:    carts,
		catalog:  catalog,
		stock:    stock,
		orders:   orderSvc,
		payments: paymentSvc,
		ledger:   ledger,
		memo:     paymentCfg.DefaultMemo,
		poll:     poll,
		timeout:  ledgerCfg.ConfirmTimeout,
		batch:    batch,
		maxTries: maxTries,
		logg:     logg,
	}, nil
}

// GenerateToken derives an idempotency token from the wallet and the cart
// contents. Callers that supply their own token get stronger replay
// protection; this is the fallback.
func GenerateToken(wallet string, items []types.OrderItem) string {
	h := sha256.New()
	h.Write([]byte(wallet))
	for _, item := range items {
		fmt.Fprintf(h, "|%s:%d:%s", item.ProductID, item.Qty, item.Price.String())
	}
	fmt.Fprintf(h, "|%d", time.Now().UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}

func (s *service) Begin(ctx context.Context, wallet string, signer solana.WalletSigner, input BeginInput) (*Result, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet address is required")
	}

	basket, err := s.carts.Fetch(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if len(basket.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := s.revalidateItems(ctx, basket.Items); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(input.IdempotencyToken)
	if token == "" {
		token = GenerateToken(wallet, basket.Items)
	}

	attempt, replay, err := s.openAttempt(ctx, wallet, token, basket)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"wallet":     wallet,
		"attempt_id": attempt.ID,
	})

	receipt, payErr := s.payments.Pay(ctx, signer, payment.Request{
		Amount: attempt.Total,
		Memo:   attempt.Memo,
	})
	if payErr != nil {
		return s.settleFailedPayment(ctx, attempt, payErr)
	}

	attempt.Status = enums.AttemptStatusPaid
	attempt.TxSignature = &receipt.Signature
	if attempt, err = s.repo.Save(ctx, attempt); err != nil {
		// Payment went through but the paid marker did not land. The row
		// is still pending_payment with no signature, so we cannot hand it
		// to the reconciler; surface the signature to the caller instead.
		s.logg.Error(ctx, "failed to mark attempt paid", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderUnreconciled, err,
			fmt.Sprintf("payment %s confirmed but attempt could not be updated", receipt.Signature))
	}

	return s.finalize(ctx, attempt, input)
}

// revalidateItems checks every cart line against the live catalog so a
// listing hidden or sold out since the cart was built cannot be bought.
func (s *service) revalidateItems(ctx context.Context, items []types.OrderItem) error {
	for _, item := range items {
		product, err := s.catalog.GetCatalogProduct(ctx, item.ProductID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("%s is no longer available", item.ProductName))
			}
			return err
		}
		if product.Stock < item.Qty {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name))
		}
	}
	return nil
}

// openAttempt inserts the durable attempt row, or resolves a token replay.
// A second Result return means the caller should stop and hand it back.
func (s *service) openAttempt(ctx context.Context, wallet, token string, basket *cart.Cart) (*models.CheckoutAttempt, *Result, error) {
	attempt := &models.CheckoutAttempt{
		IdempotencyToken: token,
		Wallet:           wallet,
		CartSnapshot:     basket.Items,
		Total:            basket.Total(),
		Memo:             s.memo,
		Status:           enums.AttemptStatusPendingPayment,
	}

	created, err := s.repo.Create(ctx, attempt)
	if err == nil {
		return created, nil, nil
	}
	if !db.IsUniqueViolation(err, "checkout_attempts_idempotency_token_key") {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record checkout attempt")
	}

	existing, findErr := s.repo.FindByToken(ctx, token)
	if findErr != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "failed to load replayed attempt")
	}
	if existing.Wallet != wallet {
		return nil, nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency token already used")
	}

	switch existing.Status {
	case enums.AttemptStatusCompleted, enums.AttemptStatusPaid:
		// The earlier attempt already charged the wallet. Replay returns
		// its record instead of charging again.
		return nil, &Result{Attempt: existing, Outcome: enums.PaymentOutcomeSuccess}, nil
	case enums.AttemptStatusPendingPayment, enums.AttemptStatusNeedsReconciliation:
		return nil, nil, pkgerrors.New(pkgerrors.CodeIdempotency, "checkout is already in progress for this token")
	default:
		// cancelled, failed, abandoned: the earlier attempt never charged
		// anything, so the token may be retried with a fresh snapshot.
		existing.CartSnapshot = basket.Items
		existing.Total = basket.Total()
		existing.Memo = s.memo
		existing.Status = enums.AttemptStatusPendingPayment
		existing.TxSignature = nil
		existing.OrderID = nil
		existing.LastError = nil
		revived, saveErr := s.repo.Save(ctx, existing)
		if saveErr != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, saveErr, "failed to revive checkout attempt")
		}
		return revived, nil, nil
	}
}

// settleFailedPayment maps a classified payment failure onto the attempt
// row and the API error the caller sees.
func (s *service) settleFailedPayment(ctx context.Context, attempt *models.CheckoutAttempt, payErr error) (*Result, error) {
	outcome := payment.OutcomeOf(payErr)
	reason := payErr.Error()
	attempt.LastError = &reason

	switch outcome {
	case enums.PaymentOutcomeUserCancelled:
		attempt.Status = enums.AttemptStatusCancelled
		if _, err := s.repo.Save(ctx, attempt); err != nil {
			s.logg.Error(ctx, "failed to record cancelled attempt", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, payErr, "payment was declined in the wallet")

	case enums.PaymentOutcomeUnknown:
		attempt.Status = enums.AttemptStatusNeedsReconciliation
		var typed *payment.Error
		if errors.As(payErr, &typed) && typed.Signature != "" {
			attempt.TxSignature = &typed.Signature
		}
		if _, err := s.repo.Save(ctx, attempt); err != nil {
			s.logg.Error(ctx, "failed to queue attempt for reconciliation", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, payErr,
			"payment outcome is unknown and has been queued for verification")

	default:
		attempt.Status = enums.AttemptStatusFailed
		// Keep the signature for audit even though the ledger rejected it.
		var typed *payment.Error
		if errors.As(payErr, &typed) && typed.Signature != "" {
			attempt.TxSignature = &typed.Signature
		}
		if _, err := s.repo.Save(ctx, attempt); err != nil {
			s.logg.Error(ctx, "failed to record failed attempt", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, payErr,
			fmt.Sprintf("payment failed: %s", outcome))
	}
}

// finalize records the order for a paid attempt and walks the attempt to
// completed. A paid attempt whose order cannot be recorded parks in
// needs_reconciliation so the reconciler can finish the job.
func (s *service) finalize(ctx context.Context, attempt *models.CheckoutAttempt, input BeginInput) (*Result, error) {
	recorded, err := s.orders.Create(ctx, order.CreateInput{
		UserWallet:           attempt.Wallet,
		UserEmail:            input.UserEmail,
		Items:                attempt.CartSnapshot,
		TransactionSignature: attempt.TxSignature,
		ShippingAddress:      input.ShippingAddress,
		Notes:                input.Notes,
	})
	if err != nil {
		reason := err.Error()
		attempt.Status = enums.AttemptStatusNeedsReconciliation
		attempt.LastError = &reason
		if _, saveErr := s.repo.Save(ctx, attempt); saveErr != nil {
			s.logg.Error(ctx, "failed to park paid attempt for reconciliation", saveErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderUnreconciled, err,
			"payment confirmed but the order could not be recorded, contact support with your checkout token").
			WithDetails(map[string]any{"checkout_token": attempt.IdempotencyToken})
	}

	s.deductStock(ctx, attempt.CartSnapshot)

	attempt.Status = enums.AttemptStatusCompleted
	attempt.OrderID = &recorded.ID
	attempt.LastError = nil
	if attempt, err = s.repo.Save(ctx, attempt); err != nil {
		// The order exists; a stale attempt row is a reporting blemish,
		// not a lost sale.
		s.logg.Error(ctx, "failed to mark attempt completed", err)
	}

	if err := s.carts.Clear(ctx, attempt.Wallet); err != nil {
		s.logg.Error(ctx, "failed to clear cart after checkout", err)
	}

	s.logg.Info(s.logg.WithField(ctx, "order_id", recorded.ID), "checkout completed")
	return &Result{Attempt: attempt, Order: recorded, Outcome: enums.PaymentOutcomeSuccess}, nil
}

// deductStock applies the conditional decrement per line. A line that
// raced to zero stock is logged and skipped; the sale already happened.
func (s *service) deductStock(ctx context.Context, items []types.OrderItem) {
	for _, item := range items {
		ok, err := s.stock.DecrementStock(ctx, item.ProductID, item.Qty)
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "product_id", item.ProductID), "stock decrement failed", err)
			continue
		}
		if !ok {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", item.ProductID), "stock decrement skipped, insufficient stock")
		}
	}
}

func (s *service) GetAttempt(ctx context.Context, wallet, token string) (*models.CheckoutAttempt, error) {
	attempt, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout attempt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load checkout attempt")
	}
	if attempt.Wallet != wallet {
		// Foreign attempts read as missing so tokens cannot be probed.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout attempt not found")
	}
	return attempt, nil
}

// stalePaidGrace keeps live requests out of the sweep; a paid row younger
// than this is still being finalized by its own request.
const stalePaidGrace = 10 * time.Minute

// ReconcileBatch drains one batch of attempts parked in
// needs_reconciliation, plus paid rows whose request died before the order
// landed, confirming signatures and recording the orders that were paid
// for but never written.
func (s *service) ReconcileBatch(ctx context.Context) (ReconcileStats, error) {
	var stats ReconcileStats

	attempts, err := s.repo.ListNeedingReconciliation(ctx, s.batch, time.Now().UTC().Add(-stalePaidGrace))
	if err != nil {
		return stats, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list attempts needing reconciliation")
	}

	var errs []error
	for i := range attempts {
		attempt := &attempts[i]
		actx := s.logg.WithFields(ctx, map[string]any{
			"attempt_id": attempt.ID,
			"wallet":     attempt.Wallet,
		})

		verdict, err := s.reconcileOne(actx, attempt)
		if err != nil {
			errs = append(errs, fmt.Errorf("attempt %s: %w", attempt.ID, err))
		}
		switch verdict {
		case reconcileSettled:
			stats.Settled++
		case reconcileRetried:
			stats.Retried++
		case reconcileAbandoned:
			stats.Abandoned++
		case reconcileFailed:
			stats.Failed++
		}
	}
	return stats, multierr.Combine(errs...)
}

type reconcileVerdict int

const (
	reconcileSettled reconcileVerdict = iota
	reconcileRetried
	reconcileAbandoned
	reconcileFailed
)

func (s *service) reconcileOne(ctx context.Context, attempt *models.CheckoutAttempt) (reconcileVerdict, error) {
	if attempt.TxSignature == nil {
		// Nothing was ever broadcast; there is no payment to settle.
		reason := "no transaction signature recorded"
		attempt.Status = enums.AttemptStatusAbandoned
		attempt.LastError = &reason
		if _, err := s.repo.Save(ctx, attempt); err != nil {
			s.logg.Error(ctx, "failed to abandon signatureless attempt", err)
			return reconcileAbandoned, err
		}
		return reconcileAbandoned, nil
	}

	err := s.ledger.ConfirmSignature(ctx, *attempt.TxSignature, s.poll, s.timeout)
	switch {
	case err == nil:
		return s.settleReconciled(ctx, attempt)

	case errors.Is(err, solana.ErrConfirmTimeout):
		if attempt.AttemptCount+1 >= s.maxTries {
			reason := fmt.Sprintf("unconfirmed after %d checks", attempt.AttemptCount+1)
			attempt.Status = enums.AttemptStatusAbandoned
			attempt.LastError = &reason
			if _, saveErr := s.repo.Save(ctx, attempt); saveErr != nil {
				s.logg.Error(ctx, "failed to abandon attempt", saveErr)
				return reconcileAbandoned, saveErr
			}
			s.logg.Warn(ctx, "attempt abandoned after repeated confirmation timeouts")
			return reconcileAbandoned, nil
		}
		if recErr := s.repo.RecordFailure(ctx, attempt.ID, err.Error()); recErr != nil {
			s.logg.Error(ctx, "failed to record reconciliation retry", recErr)
			return reconcileRetried, recErr
		}
		return reconcileRetried, nil

	case errors.Is(err, solana.ErrTransactionFailed):
		// The ledger answered and the transaction failed on chain. The
		// wallet was not charged, so the attempt is a plain failure.
		reason := err.Error()
		attempt.Status = enums.AttemptStatusFailed
		attempt.LastError = &reason
		if _, saveErr := s.repo.Save(ctx, attempt); saveErr != nil {
			s.logg.Error(ctx, "failed to record on-chain failure", saveErr)
			return reconcileFailed, saveErr
		}
		return reconcileFailed, nil

	default:
		// The confirmation poll itself failed; the verdict is still out.
		// Leave the attempt in the queue for the next sweep.
		if recErr := s.repo.RecordFailure(ctx, attempt.ID, err.Error()); recErr != nil {
			s.logg.Error(ctx, "failed to record reconciliation retry", recErr)
			return reconcileRetried, recErr
		}
		return reconcileRetried, nil
	}
}

// settleReconciled finishes a confirmed attempt: record the order if it
// is still missing, then mark the attempt completed.
func (s *service) settleReconciled(ctx context.Context, attempt *models.CheckoutAttempt) (reconcileVerdict, error) {
	if attempt.OrderID == nil {
		recorded, err := s.orders.Create(ctx, order.CreateInput{
			UserWallet:           attempt.Wallet,
			Items:                attempt.CartSnapshot,
			TransactionSignature: attempt.TxSignature,
		})
		if err != nil {
			if recErr := s.repo.RecordFailure(ctx, attempt.ID, err.Error()); recErr != nil {
				s.logg.Error(ctx, "failed to record order creation retry", recErr)
				return reconcileRetried, recErr
			}
			return reconcileRetried, nil
		}
		attempt.OrderID = &recorded.ID
		s.deductStock(ctx, attempt.CartSnapshot)
	}

	attempt.Status = enums.AttemptStatusCompleted
	attempt.LastError = nil
	if _, err := s.repo.Save(ctx, attempt); err != nil {
		s.logg.Error(ctx, "failed to mark reconciled attempt completed", err)
		return reconcileRetried, err
	}
	s.logg.Info(ctx, "attempt reconciled")
	return reconcileSettled, nil
}
