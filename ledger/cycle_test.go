package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Staillim/IQCapitalMaster-sub001/ledger"
)

// Rollover is driven lazily by Apply: the first request in a later month
// closes every elapsed month before the request itself runs. These tests
// exercise it through Apply the same way production traffic does.

// =============================================================================
// MONTH CLOSE - MET
// =============================================================================

func TestRollover_ContributionMet_IncrementsStreak(t *testing.T) {
	// GIVEN: March contributions reached the 15,000 floor
	// WHEN: The first April request arrives
	// THEN: The streak grows, no fine, counters reset

	acct := mustApply(t, newTestAccount(t), deposit(20000, timeDate(2025, time.March, 5)))
	require.Equal(t, ledger.ContributionMet, acct.ContributionState)

	updated, txs, err := ledger.Apply(acct, deposit(5000, timeDate(2025, time.April, 2)), ledger.DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, 1, updated.ContributionStreak)
	assert.True(t, updated.FinesPending.IsZero())
	assert.Len(t, txs, 1, "only the deposit, no fine assessment")
	assert.Equal(t, timeDate(2025, time.April, 1), updated.CycleMonth)
	assert.Equal(t, ledger.ContributionPending, updated.ContributionState)
	assert.True(t, updated.MonthlyContribution.Equal(ledger.NewMoney(5000)), "April deposit only")
}

func TestRollover_StreakAccumulatesAcrossMonths(t *testing.T) {
	acct := newTestAccount(t)

	acct = mustApply(t, acct,
		deposit(15000, timeDate(2025, time.March, 5)),
		deposit(15000, timeDate(2025, time.April, 5)),
		deposit(15000, timeDate(2025, time.May, 5)),
		deposit(15000, timeDate(2025, time.June, 5)),
	)

	// March, April and May closed MET; June is still open.
	assert.Equal(t, 3, acct.ContributionStreak)
	assert.Equal(t, ledger.ContributionMet, acct.ContributionState)
}

// =============================================================================
// MONTH CLOSE - MISSED
// =============================================================================

func TestRollover_ContributionMissed_AssessesFine(t *testing.T) {
	// GIVEN: March closes with only 10,000 contributed (floor 15,000)
	// WHEN: The first April request arrives
	// THEN: A 10,000 fine is assessed without touching the balance

	acct := mustApply(t, newTestAccount(t), deposit(10000, timeDate(2025, time.March, 5)))
	require.Equal(t, ledger.ContributionPending, acct.ContributionState)

	updated, txs, err := ledger.Apply(acct, deposit(5000, timeDate(2025, time.April, 2)), ledger.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, txs, 2, "fine assessment then the deposit")

	fine := txs[0]
	assert.Equal(t, ledger.TxFineAssessed, fine.Type)
	assert.True(t, fine.Amount.Equal(ledger.NewMoney(10000)))
	assert.True(t, fine.Balance.Equal(ledger.NewMoney(10000)), "assessment leaves the balance where it was")
	assert.Equal(t, "system", fine.CreatedBy)
	assert.Equal(t, timeDate(2025, time.April, 1), fine.CreatedAt, "assessed at the month boundary")
	assert.Contains(t, fine.Concept, "2025-03")

	assert.True(t, updated.TotalFines.Equal(ledger.NewMoney(10000)))
	assert.True(t, updated.FinesPending.Equal(ledger.NewMoney(10000)))
	assert.Equal(t, 0, updated.ContributionStreak)
	// The fine never debits the balance; settlement is a separate request.
	assert.True(t, updated.Balance.Equal(ledger.NewMoney(15000)))
}

func TestRollover_MissedMonth_ResetsStreak(t *testing.T) {
	acct := mustApply(t, newTestAccount(t),
		deposit(15000, timeDate(2025, time.March, 5)),
		deposit(15000, timeDate(2025, time.April, 5)),
	)
	require.Equal(t, 1, acct.ContributionStreak)

	// May passes with nothing; June request closes both May (missed) and
	// nothing else.
	updated, _, err := ledger.Apply(acct, deposit(15000, timeDate(2025, time.June, 5)), ledger.DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, 0, updated.ContributionStreak)
	assert.True(t, updated.TotalFines.Equal(ledger.NewMoney(10000)))
}

func TestRollover_MultiMonthGap_OneFinePerMissedMonth(t *testing.T) {
	// GIVEN: A member deposits in March then disappears until July
	// WHEN: The July request forces the gap to close
	// THEN: April, May and June each contribute one fine

	acct := mustApply(t, newTestAccount(t), deposit(20000, timeDate(2025, time.March, 5)))

	updated, txs, err := ledger.Apply(acct, deposit(20000, timeDate(2025, time.July, 3)), ledger.DefaultPolicy())
	require.NoError(t, err)

	var fines []ledger.Transaction
	for _, tx := range txs {
		if tx.Type == ledger.TxFineAssessed {
			fines = append(fines, tx)
		}
	}
	require.Len(t, fines, 3)
	assert.Contains(t, fines[0].Concept, "2025-04")
	assert.Contains(t, fines[1].Concept, "2025-05")
	assert.Contains(t, fines[2].Concept, "2025-06")

	assert.True(t, updated.TotalFines.Equal(ledger.NewMoney(30000)))
	assert.True(t, updated.FinesPending.Equal(ledger.NewMoney(30000)))
	// March was met before the gap, so the streak went 1 then back to 0.
	assert.Equal(t, 0, updated.ContributionStreak)
	assert.Equal(t, timeDate(2025, time.July, 1), updated.CycleMonth)
}

// =============================================================================
// COUNTER RESETS
// =============================================================================

func TestRollover_ResetsMonthlyCounters(t *testing.T) {
	acct := mustApply(t, newTestAccount(t),
		deposit(100000, timeDate(2025, time.March, 2)),
		withdrawal(10000, timeDate(2025, time.March, 5)),
		withdrawal(10000, timeDate(2025, time.March, 10)),
	)
	require.Equal(t, 2, acct.WithdrawalsThisMonth)

	updated, _, err := ledger.Apply(acct, deposit(5000, timeDate(2025, time.April, 2)), ledger.DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, 0, updated.WithdrawalsThisMonth)
	assert.True(t, updated.MonthlyContribution.Equal(ledger.NewMoney(5000)))
}

func TestRollover_SameMonthRequests_NoRollover(t *testing.T) {
	acct := mustApply(t, newTestAccount(t), deposit(20000, timeDate(2025, time.March, 2)))

	updated, txs, err := ledger.Apply(acct, deposit(5000, timeDate(2025, time.March, 31)), ledger.DefaultPolicy())
	require.NoError(t, err)

	assert.Len(t, txs, 1)
	assert.Equal(t, timeDate(2025, time.March, 1), updated.CycleMonth)
	assert.Equal(t, 0, updated.ContributionStreak)
}

func TestRollover_YearBoundary(t *testing.T) {
	acct := ledger.NewAccount("acct-1", "user-1", ledger.DefaultPolicy(), timeDate(2025, time.December, 1))

	acct = mustApply(t, acct, deposit(20000, timeDate(2025, time.December, 10)))

	updated, _, err := ledger.Apply(acct, deposit(20000, timeDate(2026, time.January, 5)), ledger.DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, timeDate(2026, time.January, 1), updated.CycleMonth)
	assert.Equal(t, 1, updated.ContributionStreak)
}
