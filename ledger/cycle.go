/*
cycle.go - Monthly cycle evaluation

PURPOSE:
  Closes out calendar months lazily. The first request in a new month
  forces every elapsed month to be evaluated, in order, before the
  request itself is applied:

    PENDING --(cumulative deposits reach floor)--> MET
    PENDING --(month closes without floor)-------> MISSED

  A MET month increments the contribution streak. A MISSED month emits a
  fine_assessed transaction of the policy fine amount, raises
  FinesPending and TotalFines, and resets the streak to zero. Every
  rollover resets WithdrawalsThisMonth and MonthlyContribution.

  The MET transition itself happens in apply.go when the qualifying
  deposit lands; this file only closes months.
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// rollover closes every month between account.CycleMonth and the month
// containing now. Accounts with a long gap get one evaluation per elapsed
// month, so a member absent for three months accrues three fines.
func rollover(account Account, p Policy, now time.Time) (Account, []Transaction) {
	acct := account
	var fines []Transaction

	current := MonthOf(now)
	for acct.CycleMonth.Before(current) {
		boundary := acct.CycleMonth.AddDate(0, 1, 0)

		if acct.ContributionState == ContributionMet {
			acct.ContributionStreak++
		} else {
			acct.ContributionState = ContributionMissed
			acct.ContributionStreak = 0
			acct.TotalFines = acct.TotalFines.Add(p.FineAmount)
			acct.FinesPending = acct.FinesPending.Add(p.FineAmount)
			fines = append(fines, fineAssessment(acct, p, boundary))
		}

		acct.CycleMonth = boundary
		acct.ContributionState = ContributionPending
		acct.MonthlyContribution = ZeroMoney()
		acct.WithdrawalsThisMonth = 0
	}

	return acct, fines
}

func fineAssessment(acct Account, p Policy, boundary time.Time) Transaction {
	month := boundary.AddDate(0, -1, 0)
	return Transaction{
		ID:        TransactionID(uuid.NewString()),
		AccountID: acct.ID,
		UserID:    acct.UserID,
		Type:      TxFineAssessed,
		Amount:    p.FineAmount,
		Balance:   acct.Balance, // assessment does not move the balance
		Concept:   "monthly contribution missed " + month.Format("2006-01"),
		Metadata: TxMetadata{
			FineReason: "monthly contribution below minimum",
		},
		CreatedAt: boundary,
		CreatedBy: "system",
	}
}
