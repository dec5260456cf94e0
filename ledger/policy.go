package ledger

// =============================================================================
// POLICY - Business constants for the fund
// =============================================================================

// Default policy values. Overridable through config; never read as globals
// by the engine, always carried in a Policy passed to Apply.
const (
	DefaultMinMonthlyContribution = 15000
	DefaultWithdrawalFeePercent   = 2
	DefaultMaxWithdrawalsPerMonth = 2
	DefaultFineAmount             = 10000
	DefaultMinDepositAmount       = 1000
	DefaultMinWithdrawalAmount    = 5000
)

// Policy holds the fund's business constants. A Policy is injected into the
// engine at construction; accounts snapshot the per-account fields
// (contribution floor, withdrawal cap) when they are opened.
type Policy struct {
	// Monthly deposit floor a member must reach to keep their streak.
	MinMonthlyContribution Money

	// Withdrawal fee, as an integer percentage of the withdrawn amount.
	WithdrawalFeePercent int64

	// How many withdrawals an account may make per calendar month.
	MaxWithdrawalsPerMonth int

	// Fine assessed when a month closes without meeting the floor.
	FineAmount Money

	// Type-specific amount floors.
	MinDepositAmount    Money
	MinWithdrawalAmount Money
}

// DefaultPolicy returns the fund's standing policy.
func DefaultPolicy() Policy {
	return Policy{
		MinMonthlyContribution: NewMoney(DefaultMinMonthlyContribution),
		WithdrawalFeePercent:   DefaultWithdrawalFeePercent,
		MaxWithdrawalsPerMonth: DefaultMaxWithdrawalsPerMonth,
		FineAmount:             NewMoney(DefaultFineAmount),
		MinDepositAmount:       NewMoney(DefaultMinDepositAmount),
		MinWithdrawalAmount:    NewMoney(DefaultMinWithdrawalAmount),
	}
}

// WithdrawalFee computes the fee for a withdrawal of amount. Fractional
// fees round up to the next whole peso; every stored amount stays integral.
func (p Policy) WithdrawalFee(amount Money) Money {
	return amount.Percent(p.WithdrawalFeePercent).Ceil()
}
