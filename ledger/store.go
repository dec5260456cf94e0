/*
store.go - Persistence boundary for accounts and transactions

PURPOSE:
  Defines the interface between the ledger engine and the database.
  The engine itself has no concurrency; serialization of concurrent
  requests against one account happens here, through optimistic
  version checks on the atomic pair-write.

APPEND-ONLY CONTRACT:
  Transactions are written exactly once, alongside the account snapshot
  they produced, and never updated or deleted. Corrections are new
  offsetting transactions.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - ledger/store: in-memory store for tests and development
*/
package ledger

import "context"

// =============================================================================
// STORE - Atomic account + transaction persistence
// =============================================================================

// Store persists accounts and their append-only transaction logs.
type Store interface {
	// CreateAccount persists a freshly opened account.
	// Returns ErrAccountExists if the member already has one.
	CreateAccount(ctx context.Context, account Account) error

	// ReadAccount returns the current snapshot, or ErrAccountNotFound.
	ReadAccount(ctx context.Context, id AccountID) (Account, error)

	// WriteAccountAndTransactions atomically writes the new snapshot and
	// appends its transactions. The write succeeds only if the stored
	// version still equals expectedVersion; otherwise ErrVersionConflict
	// and nothing is persisted.
	WriteAccountAndTransactions(ctx context.Context, expectedVersion int64, account Account, txs []Transaction) error

	// UpdateAccountStatus changes only the status field, version-guarded
	// like WriteAccountAndTransactions. Used by admin suspend/reactivate.
	UpdateAccountStatus(ctx context.Context, id AccountID, expectedVersion int64, status AccountStatus) error

	// ListTransactions returns one page of the account's history ordered
	// by creation. The sequence is finite and restartable via the cursor.
	ListTransactions(ctx context.Context, id AccountID, page Page) (TransactionPage, error)
}

// =============================================================================
// PAGINATION
// =============================================================================

// Page selects a slice of an account's history. A zero Page means
// "from the beginning, default limit".
type Page struct {
	// Cursor restarts iteration where a previous page left off.
	// Empty means from the start.
	Cursor string

	// Limit caps the page size; implementations apply a default when 0.
	Limit int

	// SinceMonth, when set ("2006-01"), restricts to transactions created
	// in or after that calendar month.
	SinceMonth string
}

// TransactionPage is one page of history plus the cursor for the next.
type TransactionPage struct {
	Transactions []Transaction
	NextCursor   string // empty when the sequence is exhausted
}
