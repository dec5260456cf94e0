/*
Package ledger provides the savings-account ledger engine.

PURPOSE:
  This package contains the types and algorithms that make a member's
  savings account meaningful: a fixed-point Money type, an immutable
  Transaction record, the Account snapshot derived from those records,
  and the pure Apply function that is the only way state changes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A fixed-point currency amount (Colombian pesos)
  - Account: The derived state snapshot for one member's fund
  - Transaction: An immutable ledger entry recording a balance change
  - Request: What callers submit to mutate an account

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified, only offset
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Determinism: Replaying the transaction log reproduces the Account
  4. Explicit DI: Policy and Store are injected, never ambient

SEE ALSO:
  - policy.go: Business constants (contribution floor, fees, fines)
  - apply.go: The transaction applier
  - cycle.go: Monthly rollover evaluation
  - verify.go: Replay-based invariant checking
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-point currency amount
// =============================================================================

// Money is an amount of currency in whole pesos. Arithmetic goes through
// decimal.Decimal so a ledger never accumulates floating-point drift.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(units int64) Money        { return Money{Value: decimal.NewFromInt(units)} }
func NewMoneyFromFloat(v float64) Money { return Money{Value: decimal.NewFromFloat(v)} }
func ZeroMoney() Money                  { return Money{Value: decimal.Zero} }

// MustParseMoney parses a decimal string, returning zero on malformed input.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money           { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money           { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money                  { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool                { return m.Value.IsZero() }
func (m Money) IsNegative() bool            { return m.Value.IsNegative() }
func (m Money) IsPositive() bool            { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool          { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool    { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool       { return m.Value.LessThan(o.Value) }
func (m Money) GreaterOrEqual(o Money) bool { return m.Value.GreaterThanOrEqual(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

// Percent returns p percent of the amount, e.g. fee calculation at 2%.
func (m Money) Percent(p int64) Money {
	return Money{Value: m.Value.Mul(decimal.NewFromInt(p)).Div(decimal.NewFromInt(100))}
}

// Ceil rounds up to the next whole currency unit.
func (m Money) Ceil() Money {
	return Money{Value: m.Value.Ceil()}
}

func (m Money) String() string { return m.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type UserID string
type TransactionID string

// =============================================================================
// TRANSACTION - Immutable, append-only ledger entry
// =============================================================================

type TransactionType string

const (
	TxDeposit      TransactionType = "deposit"
	TxWithdrawal   TransactionType = "withdrawal"
	TxFine         TransactionType = "fine"          // fine settlement paid by the member
	TxFineAssessed TransactionType = "fine_assessed" // system-only, emitted at month rollover
	TxInterest     TransactionType = "interest"
)

// TxMetadata carries optional context for a transaction.
type TxMetadata struct {
	Fee        Money  `json:"fee,omitempty"`
	FineReason string `json:"fineReason,omitempty"`
	ApprovedBy string `json:"approvedBy,omitempty"`
	ReceiptURL string `json:"receiptUrl,omitempty"`
}

// Transaction records one applied change. Created exactly once, never
// mutated or deleted; corrections are new offsetting transactions.
type Transaction struct {
	ID        TransactionID
	AccountID AccountID
	UserID    UserID
	Type      TransactionType
	Amount    Money // always positive
	Balance   Money // post-transaction snapshot
	Concept   string
	Metadata  TxMetadata
	CreatedAt time.Time
	CreatedBy string
}

// =============================================================================
// ACCOUNT - Derived state snapshot, one per member
// =============================================================================

type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
)

// ContributionState tracks monthly contribution compliance for the open month.
type ContributionState string

const (
	ContributionPending ContributionState = "pending"
	ContributionMet     ContributionState = "met"
	ContributionMissed  ContributionState = "missed"
)

// Account is the reconciled snapshot of one member's savings fund.
// It is mutated only through Apply; replaying the transaction log must
// reproduce every accumulator below (see verify.go).
type Account struct {
	ID     AccountID
	UserID UserID
	Status AccountStatus

	Balance          Money
	TotalDeposits    Money // monotonically non-decreasing
	TotalWithdrawals Money // monotonically non-decreasing, excludes fees
	TotalFees        Money
	TotalInterest    Money

	// Monthly contribution tracking. MonthlyContribution accumulates
	// qualifying deposits within CycleMonth and resets at rollover.
	MonthlyContribution    Money
	MinMonthlyContribution Money
	ContributionState      ContributionState
	ContributionStreak     int
	LastContributionDate   *time.Time

	// Withdrawal limits. WithdrawalsThisMonth resets at rollover.
	WithdrawalsThisMonth   int
	MaxWithdrawalsPerMonth int
	LastWithdrawalDate     *time.Time

	// Fines. FinesPending decreases only via fine-settlement transactions.
	TotalFines   Money
	FinesPending Money

	// CycleMonth is the first day (UTC) of the calendar month the monthly
	// counters refer to. A request in a later month forces rollover first.
	CycleMonth time.Time

	// Version guards the read-apply-write cycle (optimistic concurrency).
	Version int64

	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastTransactionID TransactionID
}

// MonthOf truncates t to the first instant of its calendar month, UTC.
func MonthOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// FinesPaid is the settled portion of all fines ever assessed.
func (a Account) FinesPaid() Money {
	return a.TotalFines.Sub(a.FinesPending)
}

// =============================================================================
// REQUEST - Caller-submitted mutation
// =============================================================================

// Request is what the presentation layer submits. RequestedAt drives the
// month-rollover clock and becomes the transaction's CreatedAt.
type Request struct {
	AccountID   AccountID
	Type        TransactionType
	Amount      Money
	Concept     string
	Metadata    TxMetadata
	RequestedAt time.Time
	RequestedBy string
}
