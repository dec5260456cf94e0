/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract. Monetary
  amounts travel as decimal strings so clients never see float drift.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/Staillim/IQCapitalMaster-sub001/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// OpenAccountRequest opens the single account for a member.
type OpenAccountRequest struct {
	UserID string `json:"userId"`
}

// SubmitTransactionRequest submits a deposit/withdrawal/fine/interest.
type SubmitTransactionRequest struct {
	Type     string      `json:"type"`
	Amount   string      `json:"amount"`
	Concept  string      `json:"concept"`
	Metadata MetadataDTO `json:"metadata"`
	By       string      `json:"by,omitempty"`
}

// SetStatusRequest changes an account's status (admin).
type SetStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AccountDTO represents an account snapshot in API responses.
type AccountDTO struct {
	ID                     string  `json:"id"`
	UserID                 string  `json:"userId"`
	Status                 string  `json:"status"`
	Balance                string  `json:"balance"`
	TotalDeposits          string  `json:"totalDeposits"`
	TotalWithdrawals       string  `json:"totalWithdrawals"`
	TotalFees              string  `json:"totalFees"`
	TotalInterest          string  `json:"totalInterest"`
	MonthlyContribution    string  `json:"monthlyContribution"`
	MinMonthlyContribution string  `json:"minMonthlyContribution"`
	ContributionState      string  `json:"contributionState"`
	ContributionStreak     int     `json:"contributionStreak"`
	LastContributionDate   *string `json:"lastContributionDate,omitempty"`
	WithdrawalsThisMonth   int     `json:"withdrawalsThisMonth"`
	MaxWithdrawalsPerMonth int     `json:"maxWithdrawalsPerMonth"`
	LastWithdrawalDate     *string `json:"lastWithdrawalDate,omitempty"`
	TotalFines             string  `json:"totalFines"`
	FinesPending           string  `json:"finesPending"`
	CycleMonth             string  `json:"cycleMonth"`
	Version                int64   `json:"version"`
	CreatedAt              string  `json:"createdAt"`
	UpdatedAt              string  `json:"updatedAt"`
	LastTransactionID      string  `json:"lastTransactionId,omitempty"`
}

// TransactionDTO represents a ledger entry in API responses.
type TransactionDTO struct {
	ID        string       `json:"id"`
	AccountID string       `json:"accountId"`
	UserID    string       `json:"userId"`
	Type      string       `json:"type"`
	Amount    string       `json:"amount"`
	Balance   string       `json:"balance"`
	Concept   string       `json:"concept,omitempty"`
	Metadata  *MetadataDTO `json:"metadata,omitempty"`
	CreatedAt string       `json:"createdAt"`
	CreatedBy string       `json:"createdBy"`
}

// MetadataDTO carries optional transaction context.
type MetadataDTO struct {
	Fee        string `json:"fee,omitempty"`
	FineReason string `json:"fineReason,omitempty"`
	ApprovedBy string `json:"approvedBy,omitempty"`
	ReceiptURL string `json:"receiptUrl,omitempty"`
}

// StatementDTO is one page of an account's history.
type StatementDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   string           `json:"nextCursor,omitempty"`
}

// SubmitResultDTO is the response to a submitted transaction: the updated
// snapshot plus everything persisted for it (rollover fines included).
type SubmitResultDTO struct {
	Account      AccountDTO       `json:"account"`
	Transactions []TransactionDTO `json:"transactions"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:                     string(a.ID),
		UserID:                 string(a.UserID),
		Status:                 string(a.Status),
		Balance:                a.Balance.String(),
		TotalDeposits:          a.TotalDeposits.String(),
		TotalWithdrawals:       a.TotalWithdrawals.String(),
		TotalFees:              a.TotalFees.String(),
		TotalInterest:          a.TotalInterest.String(),
		MonthlyContribution:    a.MonthlyContribution.String(),
		MinMonthlyContribution: a.MinMonthlyContribution.String(),
		ContributionState:      string(a.ContributionState),
		ContributionStreak:     a.ContributionStreak,
		LastContributionDate:   timePtr(a.LastContributionDate),
		WithdrawalsThisMonth:   a.WithdrawalsThisMonth,
		MaxWithdrawalsPerMonth: a.MaxWithdrawalsPerMonth,
		LastWithdrawalDate:     timePtr(a.LastWithdrawalDate),
		TotalFines:             a.TotalFines.String(),
		FinesPending:           a.FinesPending.String(),
		CycleMonth:             a.CycleMonth.Format("2006-01"),
		Version:                a.Version,
		CreatedAt:              a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              a.UpdatedAt.Format(time.RFC3339),
		LastTransactionID:      string(a.LastTransactionID),
	}
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:        string(tx.ID),
		AccountID: string(tx.AccountID),
		UserID:    string(tx.UserID),
		Type:      string(tx.Type),
		Amount:    tx.Amount.String(),
		Balance:   tx.Balance.String(),
		Concept:   tx.Concept,
		CreatedAt: tx.CreatedAt.Format(time.RFC3339),
		CreatedBy: tx.CreatedBy,
	}
	m := MetadataDTO{
		FineReason: tx.Metadata.FineReason,
		ApprovedBy: tx.Metadata.ApprovedBy,
		ReceiptURL: tx.Metadata.ReceiptURL,
	}
	if !tx.Metadata.Fee.IsZero() {
		m.Fee = tx.Metadata.Fee.String()
	}
	if m != (MetadataDTO{}) {
		dto.Metadata = &m
	}
	return dto
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
