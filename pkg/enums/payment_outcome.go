package enums

import "fmt"

// PaymentOutcome classifies the result of a payment attempt against the ledger.
type PaymentOutcome string

const (
	PaymentOutcomeSuccess           PaymentOutcome = "success"
	PaymentOutcomeNotConnected      PaymentOutcome = "not_connected"
	PaymentOutcomeUserCancelled     PaymentOutcome = "user_cancelled"
	PaymentOutcomeInsufficientFunds PaymentOutcome = "insufficient_funds"
	PaymentOutcomeExecutionFailed   PaymentOutcome = "execution_failed"
	PaymentOutcomeUnknown           PaymentOutcome = "unknown"
)

var validPaymentOutcomes = []PaymentOutcome{
	PaymentOutcomeSuccess,
	PaymentOutcomeNotConnected,
	PaymentOutcomeUserCancelled,
	PaymentOutcomeInsufficientFunds,
	PaymentOutcomeExecutionFailed,
	PaymentOutcomeUnknown,
}

// String implements fmt.Stringer.
func (p PaymentOutcome) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentOutcome.
func (p PaymentOutcome) IsValid() bool {
	for _, candidate := range validPaymentOutcomes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentOutcome converts raw input into a PaymentOutcome.
func ParsePaymentOutcome(value string) (PaymentOutcome, error) {
	for _, candidate := range validPaymentOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment outcome %q", value)
}
