package solana

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUserDeclined signals the wallet owner rejected the signing prompt.
	ErrUserDeclined = errors.New("User rejected the request")
	// ErrInsufficientFunds signals the payer balance cannot cover the
	// transfer plus fees.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// WalletSigner abstracts the wallet that signs and broadcasts payment
// transactions on behalf of a buyer.
type WalletSigner interface {
	// Connected reports whether a wallet is attached to the session.
	Connected() bool
	// PublicKey returns the payer account.
	PublicKey() (PublicKey, error)
	// SignAndSend signs the transaction and submits it, returning the
	// transaction signature.
	SignAndSend(ctx context.Context, tx *Transaction) (string, error)
}

// IsUserDeclined reports whether the error represents the wallet owner
// rejecting the signing prompt.
func IsUserDeclined(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserDeclined) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user declined")
}

// IsInsufficientFunds reports whether the error represents a balance too low
// to cover the transfer.
func IsInsufficientFunds(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInsufficientFunds) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "insufficient funds")
}
