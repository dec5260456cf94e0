/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Production persistence for accounts and their append-only transaction
  logs. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on the transactions table
  - Corrections happen via new offsetting transactions

OPTIMISTIC CONCURRENCY:
  The accounts table carries a version column. WriteAccountAndTransactions
  runs inside one DB transaction: a version-guarded UPDATE of the snapshot
  followed by the INSERTs of its transactions. Zero rows affected means a
  concurrent writer got there first; the caller sees ErrVersionConflict
  and nothing is persisted.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers, a single writer, better crash recovery.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definition
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Staillim/IQCapitalMaster-sub001/ledger"
)

const defaultPageSize = 50

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Accounts (derived snapshots, guarded by version)
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		balance TEXT NOT NULL,
		total_deposits TEXT NOT NULL,
		total_withdrawals TEXT NOT NULL,
		total_fees TEXT NOT NULL,
		total_interest TEXT NOT NULL,
		monthly_contribution TEXT NOT NULL,
		min_monthly_contribution TEXT NOT NULL,
		contribution_state TEXT NOT NULL,
		contribution_streak INTEGER NOT NULL DEFAULT 0,
		last_contribution_date TEXT,
		withdrawals_this_month INTEGER NOT NULL DEFAULT 0,
		max_withdrawals_per_month INTEGER NOT NULL,
		last_withdrawal_date TEXT,
		total_fines TEXT NOT NULL,
		fines_pending TEXT NOT NULL,
		cycle_month TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		last_transaction_id TEXT
	);

	-- Transactions (append-only ledger; seq gives total order and cursor)
	CREATE TABLE IF NOT EXISTS transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		account_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance TEXT NOT NULL,
		concept TEXT,
		metadata_json TEXT,
		created_at TEXT NOT NULL,
		created_by TEXT NOT NULL
	);

	-- Statement pagination (hot path)
	CREATE INDEX IF NOT EXISTS idx_transactions_account_seq
		ON transactions(account_id, seq);
	CREATE INDEX IF NOT EXISTS idx_transactions_account_created
		ON transactions(account_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) error {
	query := `
		INSERT INTO accounts
		(id, user_id, status, balance, total_deposits, total_withdrawals, total_fees,
		 total_interest, monthly_contribution, min_monthly_contribution, contribution_state,
		 contribution_streak, last_contribution_date, withdrawals_this_month,
		 max_withdrawals_per_month, last_withdrawal_date, total_fines, fines_pending,
		 cycle_month, version, created_at, updated_at, last_transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, accountArgs(a)...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrAccountExists
		}
		return fmt.Errorf("%w: create account: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) ReadAccount(ctx context.Context, id ledger.AccountID) (ledger.Account, error) {
	query := `
		SELECT id, user_id, status, balance, total_deposits, total_withdrawals, total_fees,
		       total_interest, monthly_contribution, min_monthly_contribution, contribution_state,
		       contribution_streak, last_contribution_date, withdrawals_this_month,
		       max_withdrawals_per_month, last_withdrawal_date, total_fines, fines_pending,
		       cycle_month, version, created_at, updated_at, last_transaction_id
		FROM accounts WHERE id = ?
	`

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("%w: read account: %v", ledger.ErrStoreUnavailable, err)
	}
	return a, nil
}

// WriteAccountAndTransactions performs the atomic pair-write: the new
// snapshot and its transactions commit together or not at all.
func (s *Store) WriteAccountAndTransactions(ctx context.Context, expectedVersion int64, a ledger.Account, txs []ledger.Transaction) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ledger.ErrStoreUnavailable, err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, `
		UPDATE accounts SET
			status = ?, balance = ?, total_deposits = ?, total_withdrawals = ?,
			total_fees = ?, total_interest = ?, monthly_contribution = ?,
			min_monthly_contribution = ?, contribution_state = ?, contribution_streak = ?,
			last_contribution_date = ?, withdrawals_this_month = ?,
			max_withdrawals_per_month = ?, last_withdrawal_date = ?, total_fines = ?,
			fines_pending = ?, cycle_month = ?, version = ?, updated_at = ?,
			last_transaction_id = ?
		WHERE id = ? AND version = ?`,
		a.Status, a.Balance.String(), a.TotalDeposits.String(), a.TotalWithdrawals.String(),
		a.TotalFees.String(), a.TotalInterest.String(), a.MonthlyContribution.String(),
		a.MinMonthlyContribution.String(), a.ContributionState, a.ContributionStreak,
		nullTime(a.LastContributionDate), a.WithdrawalsThisMonth,
		a.MaxWithdrawalsPerMonth, nullTime(a.LastWithdrawalDate), a.TotalFines.String(),
		a.FinesPending.String(), a.CycleMonth.Format(time.RFC3339), a.Version,
		a.UpdatedAt.Format(time.RFC3339), string(a.LastTransactionID),
		a.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("%w: write account: %v", ledger.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := sqlTx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM accounts WHERE id = ?", a.ID).Scan(&exists); err == nil && exists == 0 {
			return ledger.ErrAccountNotFound
		}
		return ledger.ErrVersionConflict
	}

	for _, tx := range txs {
		if err := appendTx(ctx, sqlTx, tx); err != nil {
			return err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) UpdateAccountStatus(ctx context.Context, id ledger.AccountID, expectedVersion int64, status ledger.AccountStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		status, time.Now().UTC().Format(time.RFC3339), id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("%w: update status: %v", ledger.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM accounts WHERE id = ?", id).Scan(&exists); err == nil && exists == 0 {
			return ledger.ErrAccountNotFound
		}
		return ledger.ErrVersionConflict
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func appendTx(ctx context.Context, sqlTx *sql.Tx, tx ledger.Transaction) error {
	metadataJSON, _ := json.Marshal(txMetadata{
		Fee:        tx.Metadata.Fee.String(),
		FineReason: tx.Metadata.FineReason,
		ApprovedBy: tx.Metadata.ApprovedBy,
		ReceiptURL: tx.Metadata.ReceiptURL,
	})

	_, err := sqlTx.ExecContext(ctx, `
		INSERT INTO transactions
		(id, account_id, user_id, tx_type, amount, balance, concept, metadata_json, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.AccountID, tx.UserID, tx.Type,
		tx.Amount.String(), tx.Balance.String(), tx.Concept,
		string(metadataJSON),
		tx.CreatedAt.UTC().Format(time.RFC3339), tx.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("%w: append transaction: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, id ledger.AccountID, page ledger.Page) (ledger.TransactionPage, error) {
	if _, err := s.ReadAccount(ctx, id); err != nil {
		return ledger.TransactionPage{}, err
	}

	afterSeq := int64(0)
	if page.Cursor != "" {
		n, err := strconv.ParseInt(page.Cursor, 10, 64)
		if err != nil {
			return ledger.TransactionPage{}, fmt.Errorf("%w %q", ledger.ErrInvalidCursor, page.Cursor)
		}
		afterSeq = n
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := `
		SELECT seq, id, account_id, user_id, tx_type, amount, balance, concept,
		       metadata_json, created_at, created_by
		FROM transactions
		WHERE account_id = ? AND seq > ?
	`
	args := []any{id, afterSeq}
	if page.SinceMonth != "" {
		query += " AND created_at >= ?"
		args = append(args, page.SinceMonth+"-01T00:00:00Z")
	}
	query += " ORDER BY seq ASC LIMIT ?"
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ledger.TransactionPage{}, fmt.Errorf("%w: list transactions: %v", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var (
		result  ledger.TransactionPage
		lastSeq int64
	)
	for rows.Next() {
		if len(result.Transactions) == limit {
			result.NextCursor = strconv.FormatInt(lastSeq, 10)
			break
		}
		seq, tx, err := scanTransaction(rows)
		if err != nil {
			return ledger.TransactionPage{}, err
		}
		result.Transactions = append(result.Transactions, tx)
		lastSeq = seq
	}
	return result, rows.Err()
}

// =============================================================================
// SCANNING
// =============================================================================

type txMetadata struct {
	Fee        string `json:"fee,omitempty"`
	FineReason string `json:"fineReason,omitempty"`
	ApprovedBy string `json:"approvedBy,omitempty"`
	ReceiptURL string `json:"receiptUrl,omitempty"`
}

func scanTransaction(rows *sql.Rows) (int64, ledger.Transaction, error) {
	var (
		seq          int64
		tx           ledger.Transaction
		amount       string
		balance      string
		concept      sql.NullString
		metadataJSON sql.NullString
		createdAt    string
	)

	err := rows.Scan(&seq, &tx.ID, &tx.AccountID, &tx.UserID, &tx.Type,
		&amount, &balance, &concept, &metadataJSON, &createdAt, &tx.CreatedBy)
	if err != nil {
		return 0, tx, fmt.Errorf("%w: scan transaction: %v", ledger.ErrStoreUnavailable, err)
	}

	tx.Amount = ledger.MustParseMoney(amount)
	tx.Balance = ledger.MustParseMoney(balance)
	tx.Concept = concept.String
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if metadataJSON.Valid && metadataJSON.String != "" {
		var m txMetadata
		if err := json.Unmarshal([]byte(metadataJSON.String), &m); err == nil {
			tx.Metadata = ledger.TxMetadata{
				Fee:        ledger.MustParseMoney(m.Fee),
				FineReason: m.FineReason,
				ApprovedBy: m.ApprovedBy,
				ReceiptURL: m.ReceiptURL,
			}
		}
	}
	return seq, tx, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (ledger.Account, error) {
	var (
		a                                          ledger.Account
		balance, deposits, withdrawals, fees       string
		interest, monthly, minMonthly              string
		fines, finesPending                        string
		lastContribution, lastWithdrawal, lastTxID sql.NullString
		cycleMonth, createdAt, updatedAt           string
	)

	err := row.Scan(&a.ID, &a.UserID, &a.Status, &balance, &deposits, &withdrawals,
		&fees, &interest, &monthly, &minMonthly, &a.ContributionState,
		&a.ContributionStreak, &lastContribution, &a.WithdrawalsThisMonth,
		&a.MaxWithdrawalsPerMonth, &lastWithdrawal, &fines, &finesPending,
		&cycleMonth, &a.Version, &createdAt, &updatedAt, &lastTxID)
	if err != nil {
		return a, err
	}

	a.Balance = ledger.MustParseMoney(balance)
	a.TotalDeposits = ledger.MustParseMoney(deposits)
	a.TotalWithdrawals = ledger.MustParseMoney(withdrawals)
	a.TotalFees = ledger.MustParseMoney(fees)
	a.TotalInterest = ledger.MustParseMoney(interest)
	a.MonthlyContribution = ledger.MustParseMoney(monthly)
	a.MinMonthlyContribution = ledger.MustParseMoney(minMonthly)
	a.TotalFines = ledger.MustParseMoney(fines)
	a.FinesPending = ledger.MustParseMoney(finesPending)
	a.CycleMonth, _ = time.Parse(time.RFC3339, cycleMonth)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	a.LastTransactionID = ledger.TransactionID(lastTxID.String)

	if lastContribution.Valid {
		t, _ := time.Parse(time.RFC3339, lastContribution.String)
		a.LastContributionDate = &t
	}
	if lastWithdrawal.Valid {
		t, _ := time.Parse(time.RFC3339, lastWithdrawal.String)
		a.LastWithdrawalDate = &t
	}
	return a, nil
}

func accountArgs(a ledger.Account) []any {
	return []any{
		a.ID, a.UserID, a.Status,
		a.Balance.String(), a.TotalDeposits.String(), a.TotalWithdrawals.String(),
		a.TotalFees.String(), a.TotalInterest.String(),
		a.MonthlyContribution.String(), a.MinMonthlyContribution.String(),
		a.ContributionState, a.ContributionStreak,
		nullTime(a.LastContributionDate), a.WithdrawalsThisMonth,
		a.MaxWithdrawalsPerMonth, nullTime(a.LastWithdrawalDate),
		a.TotalFines.String(), a.FinesPending.String(),
		a.CycleMonth.Format(time.RFC3339), a.Version,
		a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339),
		string(a.LastTransactionID),
	}
}

// Helper functions

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
