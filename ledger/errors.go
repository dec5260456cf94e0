/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch on sentinel errors with errors.Is(); the structured
  variants carry enough context to render a useful rejection message.

ERROR CATEGORIES:
  1. Validation rejections - business rule violations, returned to callers
  2. Concurrency errors - optimistic locking conflicts, retryable
  3. Integrity errors - ledger corruption, fatal and never retried
  4. Store errors - persistence-level failures

SEE ALSO:
  - apply.go: Produces the validation rejections
  - verify.go: Produces CorruptionError
  - store.go: Store implementations map driver errors onto these
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotActive is returned when an inactive or suspended account
	// receives a request other than a fine settlement.
	ErrAccountNotActive = errors.New("account not active")

	// ErrAmountBelowMinimum is returned when a deposit or withdrawal is
	// under its type-specific floor.
	ErrAmountBelowMinimum = errors.New("amount below minimum")

	// ErrWithdrawalLimitExceeded is returned when the monthly withdrawal
	// count is exhausted, regardless of amount.
	ErrWithdrawalLimitExceeded = errors.New("withdrawal limit exceeded")

	// ErrInsufficientFunds is returned when balance cannot cover the
	// requested amount plus fee.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrFineExceedsPending is returned when a fine settlement is larger
	// than the pending fines on the account.
	ErrFineExceedsPending = errors.New("fine settlement exceeds pending fines")

	// ErrFineReasonRequired is returned when a fine settlement carries no
	// metadata.fineReason.
	ErrFineReasonRequired = errors.New("fine settlement requires a reason")

	// ErrInvalidAmount is returned for zero or negative request amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnsupportedTransactionType is returned for request types outside
	// the ledger's vocabulary.
	ErrUnsupportedTransactionType = errors.New("unsupported transaction type")

	// ErrInvalidCursor is returned for a malformed pagination cursor.
	ErrInvalidCursor = errors.New("invalid pagination cursor")

	// ErrConcurrentModification is returned after the bounded optimistic
	// retry budget is exhausted.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrVersionConflict is returned by a store when the expected account
	// version no longer matches. The service retries; callers see
	// ErrConcurrentModification only once retries run out.
	ErrVersionConflict = errors.New("account version conflict")

	// ErrLedgerCorruption is fatal: stored accumulators disagree with the
	// replayed transaction log. Never retried, never auto-corrected.
	ErrLedgerCorruption = errors.New("ledger corruption detected")

	// ErrAccountNotFound is returned when no account exists for the ID.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned when opening a second account for a member.
	ErrAccountExists = errors.New("account already exists")

	// ErrStoreUnavailable wraps transient persistence failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientFundsError reports the exact shortfall including fee.
type InsufficientFundsError struct {
	AccountID AccountID
	Available Money
	Requested Money // amount + fee
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s",
		e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// CorruptionError reports which accumulator diverged during replay.
type CorruptionError struct {
	AccountID AccountID
	Field     string
	Stored    Money
	Replayed  Money
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("ledger corruption on %s: %s stored %s, replay %s",
		e.AccountID, e.Field, e.Stored, e.Replayed)
}

func (e *CorruptionError) Unwrap() error { return ErrLedgerCorruption }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrStoreUnavailable)
}

// IsClientError returns true if the error is due to an invalid request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAccountNotActive) ||
		errors.Is(err, ErrAmountBelowMinimum) ||
		errors.Is(err, ErrWithdrawalLimitExceeded) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrFineExceedsPending) ||
		errors.Is(err, ErrFineReasonRequired) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrUnsupportedTransactionType)
}

// IsNotFound returns true if the error indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
