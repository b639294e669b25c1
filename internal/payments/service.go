package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solmart/solmart-backend/pkg/config"
	"github.com/solmart/solmart-backend/pkg/enums"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/metrics"
	"github.com/solmart/solmart-backend/pkg/solana"
)

// Error carries the classified outcome of a failed payment attempt.
// Signature is set when the transaction was broadcast before the failure,
// which is what the reconciler needs to settle an unknown outcome later.
type Error struct {
	Outcome   enums.PaymentOutcome
	Signature string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment %s: %v", e.Outcome, e.Err)
	}
	return fmt.Sprintf("payment %s", e.Outcome)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// OutcomeOf extracts the classified outcome from an error, defaulting to
// unknown for errors that did not come out of the orchestrator.
func OutcomeOf(err error) enums.PaymentOutcome {
	if err == nil {
		return enums.PaymentOutcomeSuccess
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Outcome
	}
	return enums.PaymentOutcomeUnknown
}

// Request describes a single payment to the merchant wallet.
type Request struct {
	Amount decimal.Decimal
	Memo   string
}

// Receipt is the result of a successful payment.
type Receipt struct {
	Signature string
	Lamports  uint64
}

// ledger is the node surface the orchestrator needs.
type ledger interface {
	GetLatestBlockhash(ctx context.Context) (string, error)
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solana.AccountInfo, error)
	ConfirmSignature(ctx context.Context, signature string, poll, timeout time.Duration) error
}

// Service orchestrates wallet payments and classifies their failures.
type Service interface {
	Pay(ctx context.Context, signer solana.WalletSigner, req Request) (*Receipt, error)
}

type service struct {
	ledger   ledger
	merchant solana.PublicKey
	memo     string
	poll     time.Duration
	timeout  time.Duration
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
}

// NewService constructs the payment orchestrator.
func NewService(node ledger, paymentCfg config.PaymentConfig, ledgerCfg config.LedgerConfig, pm *metrics.PaymentMetrics, logg *logger.Logger) (Service, error) {
	if node == nil {
		return nil, fmt.Errorf("ledger client required")
	}
	merchant, err := solana.ParsePublicKey(strings.TrimSpace(paymentCfg.MerchantWallet))
	if err != nil {
		return nil, fmt.Errorf("invalid merchant wallet: %w", err)
	}

	poll := time.Duration(ledgerCfg.ConfirmPollMS) * time.Millisecond
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	return &service{
		ledger:   node,
		merchant: merchant,
		memo:     paymentCfg.DefaultMemo,
		poll:     poll,
		timeout:  ledgerCfg.ConfirmTimeout,
		metrics:  pm,
		logg:     logg,
	}, nil
}

// LamportsFromSOL converts a decimal SOL amount into lamports, rounding to
// the nearest lamport.
func LamportsFromSOL(amount decimal.Decimal) (uint64, error) {
	if amount.IsNegative() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "payment amount cannot be negative")
	}
	lamports := amount.Mul(decimal.NewFromInt(int64(solana.LamportsPerSOL))).Round(0)
	if !lamports.IsInteger() || lamports.Sign() < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("amount %s does not convert to lamports", amount))
	}
	big := lamports.BigInt()
	if !big.IsUint64() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("amount %s overflows lamports", amount))
	}
	return big.Uint64(), nil
}

// Pay executes a single payment attempt end to end: connectivity check,
// transaction assembly, wallet signing, and on-chain confirmation. Every
// failure is classified into a payment outcome; success returns the
// confirmed signature.
func (s *service) Pay(ctx context.Context, signer solana.WalletSigner, req Request) (*Receipt, error) {
	outcome, signature, receipt, err := s.attempt(ctx, signer, req)
	s.metrics.IncOutcome(outcome.String())

	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "outcome", outcome.String()), fmt.Sprintf("payment attempt failed: %v", err))
		}
		return nil, &Error{Outcome: outcome, Signature: signature, Err: err}
	}
	return receipt, nil
}

func (s *service) attempt(ctx context.Context, signer solana.WalletSigner, req Request) (enums.PaymentOutcome, string, *Receipt, error) {
	// Wallet connectivity is checked before anything touches the network.
	if signer == nil || !signer.Connected() {
		return enums.PaymentOutcomeNotConnected, "", nil, fmt.Errorf("no wallet connected")
	}

	lamports, err := LamportsFromSOL(req.Amount)
	if err != nil {
		return enums.PaymentOutcomeUnknown, "", nil, err
	}
	if lamports == 0 {
		return enums.PaymentOutcomeUnknown, "", nil, fmt.Errorf("payment amount rounds to zero lamports")
	}

	payer, err := signer.PublicKey()
	if err != nil {
		return enums.PaymentOutcomeNotConnected, "", nil, err
	}

	// Preflight account checks. A confirmed shortfall fails fast without
	// broadcasting; an RPC hiccup defers to the on-chain verdict.
	if balance, balErr := s.ledger.GetBalance(ctx, payer); balErr == nil && balance < lamports {
		return enums.PaymentOutcomeInsufficientFunds, "", nil,
			fmt.Errorf("wallet holds %d lamports, payment needs %d", balance, lamports)
	}
	if info, infoErr := s.ledger.GetAccountInfo(ctx, s.merchant); infoErr == nil && info == nil && s.logg != nil {
		// The transfer itself creates the account; worth a note the first time.
		s.logg.Warn(ctx, "merchant account does not exist yet, transfer will create it")
	}

	blockhash, err := s.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return enums.PaymentOutcomeUnknown, "", nil, err
	}

	memo := req.Memo
	if memo == "" {
		memo = s.memo
	}
	tx := solana.NewPaymentTransaction(blockhash, payer, s.merchant, lamports, memo)

	signature, err := signer.SignAndSend(ctx, tx)
	if err != nil {
		switch {
		case solana.IsUserDeclined(err):
			return enums.PaymentOutcomeUserCancelled, "", nil, err
		case solana.IsInsufficientFunds(err):
			return enums.PaymentOutcomeInsufficientFunds, "", nil, err
		default:
			return enums.PaymentOutcomeExecutionFailed, "", nil, err
		}
	}

	if err := s.ledger.ConfirmSignature(ctx, signature, s.poll, s.timeout); err != nil {
		if errors.Is(err, solana.ErrTransactionFailed) {
			// Only a ledger verdict is terminal; the wallet was not charged.
			return enums.PaymentOutcomeExecutionFailed, signature, nil, err
		}
		// Timeout or a transport failure of the poll. The transfer may
		// still have landed; callers must not retry blindly.
		return enums.PaymentOutcomeUnknown, signature, nil, err
	}

	return enums.PaymentOutcomeSuccess, signature, &Receipt{Signature: signature, Lamports: lamports}, nil
}
