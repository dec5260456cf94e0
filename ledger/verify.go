/*
verify.go - Replay-based invariant checking

PURPOSE:
  The transaction log is the source of truth; the Account snapshot is a
  derived cache. Replay recomputes every monetary accumulator from the
  ordered history, and Verify asserts the stored snapshot matches. Any
  mismatch is ledger corruption: fatal, surfaced, never auto-corrected.

REPLAY LAW:
  For any account, replaying all transactions ordered by CreatedAt must
  deterministically reproduce Balance, TotalDeposits, TotalWithdrawals,
  TotalFees, TotalInterest, TotalFines and FinesPending, and each
  transaction's recorded post-balance must equal the running balance.
*/
package ledger

// ReplayResult holds the accumulators recomputed from a transaction history.
type ReplayResult struct {
	Balance          Money
	TotalDeposits    Money
	TotalWithdrawals Money
	TotalFees        Money
	TotalInterest    Money
	TotalFines       Money
	FinesPending     Money
}

// Replay recomputes account accumulators from the full ordered history.
// It returns the result and the ID of the first transaction whose recorded
// post-balance disagrees with the running balance ("" when consistent).
func Replay(txs []Transaction) (ReplayResult, TransactionID) {
	r := ReplayResult{
		Balance:          ZeroMoney(),
		TotalDeposits:    ZeroMoney(),
		TotalWithdrawals: ZeroMoney(),
		TotalFees:        ZeroMoney(),
		TotalInterest:    ZeroMoney(),
		TotalFines:       ZeroMoney(),
		FinesPending:     ZeroMoney(),
	}

	var mismatch TransactionID
	for _, tx := range txs {
		switch tx.Type {
		case TxDeposit:
			r.Balance = r.Balance.Add(tx.Amount)
			r.TotalDeposits = r.TotalDeposits.Add(tx.Amount)
		case TxWithdrawal:
			r.Balance = r.Balance.Sub(tx.Amount).Sub(tx.Metadata.Fee)
			r.TotalWithdrawals = r.TotalWithdrawals.Add(tx.Amount)
			r.TotalFees = r.TotalFees.Add(tx.Metadata.Fee)
		case TxFine:
			r.Balance = r.Balance.Sub(tx.Amount)
			r.FinesPending = r.FinesPending.Sub(tx.Amount)
		case TxFineAssessed:
			r.TotalFines = r.TotalFines.Add(tx.Amount)
			r.FinesPending = r.FinesPending.Add(tx.Amount)
		case TxInterest:
			r.Balance = r.Balance.Add(tx.Amount)
			r.TotalInterest = r.TotalInterest.Add(tx.Amount)
		}

		if mismatch == "" && !tx.Balance.Equal(r.Balance) {
			mismatch = tx.ID
		}
	}
	return r, mismatch
}

// Verify replays the full history and asserts it reproduces the stored
// snapshot. Returns a *CorruptionError naming the first diverging field,
// or nil when the ledger is consistent.
func Verify(account Account, txs []Transaction) error {
	replayed, mismatch := Replay(txs)

	checks := []struct {
		field    string
		stored   Money
		replayed Money
	}{
		{"balance", account.Balance, replayed.Balance},
		{"totalDeposits", account.TotalDeposits, replayed.TotalDeposits},
		{"totalWithdrawals", account.TotalWithdrawals, replayed.TotalWithdrawals},
		{"totalFees", account.TotalFees, replayed.TotalFees},
		{"totalInterest", account.TotalInterest, replayed.TotalInterest},
		{"totalFines", account.TotalFines, replayed.TotalFines},
		{"finesPending", account.FinesPending, replayed.FinesPending},
	}
	for _, c := range checks {
		if !c.stored.Equal(c.replayed) {
			return &CorruptionError{
				AccountID: account.ID,
				Field:     c.field,
				Stored:    c.stored,
				Replayed:  c.replayed,
			}
		}
	}

	if mismatch != "" {
		return &CorruptionError{
			AccountID: account.ID,
			Field:     "transaction " + string(mismatch) + " balance snapshot",
			Stored:    account.Balance,
			Replayed:  replayed.Balance,
		}
	}
	return nil
}
