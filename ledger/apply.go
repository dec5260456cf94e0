/*
apply.go - The transaction applier

PURPOSE:
  Apply is the single entry point for mutating an account. It is a pure
  function over immutable inputs: (account snapshot, request, policy) in,
  (new snapshot, transactions to persist) or a typed rejection out.
  Validation failures leave the account unchanged; there is no partial
  application.

VALIDATION ORDER:
  1. Request shape (positive amount, supported type)
  2. Lazy month rollover (may emit fine_assessed transactions first)
  3. Account status (fine settlement is also allowed when suspended)
  4. Type-specific floors and limits
  5. Funds check including the withdrawal fee

SEE ALSO:
  - cycle.go: Rollover invoked before every request
  - verify.go: Replay law that Apply's output must satisfy
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewAccount creates the single account for a member: balance 0, active,
// all counters 0, cycle anchored to the opening month.
func NewAccount(id AccountID, userID UserID, p Policy, now time.Time) Account {
	return Account{
		ID:                     id,
		UserID:                 userID,
		Status:                 StatusActive,
		Balance:                ZeroMoney(),
		TotalDeposits:          ZeroMoney(),
		TotalWithdrawals:       ZeroMoney(),
		TotalFees:              ZeroMoney(),
		TotalInterest:          ZeroMoney(),
		MonthlyContribution:    ZeroMoney(),
		MinMonthlyContribution: p.MinMonthlyContribution,
		ContributionState:      ContributionPending,
		MaxWithdrawalsPerMonth: p.MaxWithdrawalsPerMonth,
		TotalFines:             ZeroMoney(),
		FinesPending:           ZeroMoney(),
		CycleMonth:             MonthOf(now),
		Version:                1,
		CreatedAt:              now.UTC(),
		UpdatedAt:              now.UTC(),
	}
}

// Apply validates the request against the account snapshot and produces the
// updated snapshot plus the transactions to persist (rollover fines first,
// then the requested transaction). The input account is never mutated.
func Apply(account Account, req Request, p Policy) (Account, []Transaction, error) {
	if !req.Amount.IsPositive() {
		return account, nil, ErrInvalidAmount
	}

	switch req.Type {
	case TxDeposit, TxWithdrawal, TxFine, TxInterest:
	default:
		return account, nil, fmt.Errorf("%w %q", ErrUnsupportedTransactionType, req.Type)
	}

	at := req.RequestedAt.UTC()

	// Close out any elapsed months before touching the request.
	acct, txs := rollover(account, p, at)

	if acct.Status != StatusActive {
		// Suspended accounts may still settle fines.
		if !(req.Type == TxFine && acct.Status == StatusSuspended) {
			return account, nil, ErrAccountNotActive
		}
	}

	var tx Transaction
	var err error

	switch req.Type {
	case TxDeposit:
		acct, tx, err = applyDeposit(acct, req, p, at)
	case TxWithdrawal:
		acct, tx, err = applyWithdrawal(acct, req, p, at)
	case TxFine:
		acct, tx, err = applyFineSettlement(acct, req, at)
	case TxInterest:
		acct, tx, err = applyInterest(acct, req, at)
	}
	if err != nil {
		return account, nil, err
	}

	txs = append(txs, tx)
	acct.LastTransactionID = tx.ID
	acct.UpdatedAt = at
	acct.Version = account.Version + 1
	return acct, txs, nil
}

func applyDeposit(acct Account, req Request, p Policy, at time.Time) (Account, Transaction, error) {
	if req.Amount.LessThan(p.MinDepositAmount) {
		return acct, Transaction{}, ErrAmountBelowMinimum
	}

	acct.Balance = acct.Balance.Add(req.Amount)
	acct.TotalDeposits = acct.TotalDeposits.Add(req.Amount)
	acct.MonthlyContribution = acct.MonthlyContribution.Add(req.Amount)

	// First time the month's cumulative deposits reach the floor.
	if acct.ContributionState == ContributionPending &&
		acct.MonthlyContribution.GreaterOrEqual(acct.MinMonthlyContribution) {
		acct.ContributionState = ContributionMet
		t := at
		acct.LastContributionDate = &t
	}

	return acct, newTransaction(acct, req, at), nil
}

func applyWithdrawal(acct Account, req Request, p Policy, at time.Time) (Account, Transaction, error) {
	if req.Amount.LessThan(p.MinWithdrawalAmount) {
		return acct, Transaction{}, ErrAmountBelowMinimum
	}
	if acct.WithdrawalsThisMonth >= acct.MaxWithdrawalsPerMonth {
		return acct, Transaction{}, ErrWithdrawalLimitExceeded
	}

	fee := p.WithdrawalFee(req.Amount)
	total := req.Amount.Add(fee)
	if acct.Balance.LessThan(total) {
		return acct, Transaction{}, &InsufficientFundsError{
			AccountID: acct.ID,
			Available: acct.Balance,
			Requested: total,
		}
	}

	acct.Balance = acct.Balance.Sub(total)
	acct.TotalWithdrawals = acct.TotalWithdrawals.Add(req.Amount)
	acct.TotalFees = acct.TotalFees.Add(fee)
	acct.WithdrawalsThisMonth++
	t := at
	acct.LastWithdrawalDate = &t

	req.Metadata.Fee = fee
	return acct, newTransaction(acct, req, at), nil
}

func applyFineSettlement(acct Account, req Request, at time.Time) (Account, Transaction, error) {
	if req.Metadata.FineReason == "" {
		return acct, Transaction{}, ErrFineReasonRequired
	}
	if req.Amount.GreaterThan(acct.FinesPending) {
		return acct, Transaction{}, ErrFineExceedsPending
	}
	if acct.Balance.LessThan(req.Amount) {
		return acct, Transaction{}, &InsufficientFundsError{
			AccountID: acct.ID,
			Available: acct.Balance,
			Requested: req.Amount,
		}
	}

	acct.Balance = acct.Balance.Sub(req.Amount)
	acct.FinesPending = acct.FinesPending.Sub(req.Amount)
	return acct, newTransaction(acct, req, at), nil
}

func applyInterest(acct Account, req Request, at time.Time) (Account, Transaction, error) {
	// Credit-only; excluded from TotalDeposits.
	acct.Balance = acct.Balance.Add(req.Amount)
	acct.TotalInterest = acct.TotalInterest.Add(req.Amount)
	return acct, newTransaction(acct, req, at), nil
}

func newTransaction(acct Account, req Request, at time.Time) Transaction {
	createdBy := req.RequestedBy
	if createdBy == "" {
		createdBy = string(acct.UserID)
	}
	return Transaction{
		ID:        TransactionID(uuid.NewString()),
		AccountID: acct.ID,
		UserID:    acct.UserID,
		Type:      req.Type,
		Amount:    req.Amount,
		Balance:   acct.Balance, // post-operation snapshot
		Concept:   req.Concept,
		Metadata:  req.Metadata,
		CreatedAt: at,
		CreatedBy: createdBy,
	}
}
