package enums

import "fmt"

// AttemptStatus tracks a durable checkout attempt from broadcast to settlement.
//
// pending_payment  written before the transaction is handed to the signer
// cancelled        the buyer declined the signing prompt
// failed           the payment itself failed (never broadcast or ledger error)
// paid             payment confirmed on-chain, order row not yet created
// needs_reconciliation  payment confirmed but order creation failed
// completed        order row created and linked
// abandoned        reconciliation retries exhausted; operator backlog
type AttemptStatus string

const (
	AttemptStatusPendingPayment      AttemptStatus = "pending_payment"
	AttemptStatusCancelled           AttemptStatus = "cancelled"
	AttemptStatusFailed              AttemptStatus = "failed"
	AttemptStatusPaid                AttemptStatus = "paid"
	AttemptStatusNeedsReconciliation AttemptStatus = "needs_reconciliation"
	AttemptStatusCompleted           AttemptStatus = "completed"
	AttemptStatusAbandoned           AttemptStatus = "abandoned"
)

var validAttemptStatuses = []AttemptStatus{
	AttemptStatusPendingPayment,
	AttemptStatusCancelled,
	AttemptStatusFailed,
	AttemptStatusPaid,
	AttemptStatusNeedsReconciliation,
	AttemptStatusCompleted,
	AttemptStatusAbandoned,
}

// String implements fmt.Stringer.
func (a AttemptStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AttemptStatus.
func (a AttemptStatus) IsValid() bool {
	for _, candidate := range validAttemptStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAttemptStatus converts raw input into an AttemptStatus.
func ParseAttemptStatus(value string) (AttemptStatus, error) {
	for _, candidate := range validAttemptStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attempt status %q", value)
}
