// Package store provides Store implementations.
package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/Staillim/IQCapitalMaster-sub001/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

const defaultPageSize = 50

// Compile-time check that Memory satisfies the store boundary.
var _ ledger.Store = (*Memory)(nil)

type Memory struct {
	mu           sync.RWMutex
	accounts     map[ledger.AccountID]ledger.Account
	transactions map[ledger.AccountID][]ledger.Transaction
	byUser       map[ledger.UserID]ledger.AccountID
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[ledger.AccountID]ledger.Account),
		transactions: make(map[ledger.AccountID][]ledger.Transaction),
		byUser:       make(map[ledger.UserID]ledger.AccountID),
	}
}

func (m *Memory) CreateAccount(_ context.Context, account ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.ID]; ok {
		return ledger.ErrAccountExists
	}
	if _, ok := m.byUser[account.UserID]; ok {
		return ledger.ErrAccountExists
	}
	m.accounts[account.ID] = account
	m.byUser[account.UserID] = account.ID
	return nil
}

func (m *Memory) ReadAccount(_ context.Context, id ledger.AccountID) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[id]
	if !ok {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return acct, nil
}

func (m *Memory) WriteAccountAndTransactions(_ context.Context, expectedVersion int64, account ledger.Account, txs []ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.accounts[account.ID]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	if stored.Version != expectedVersion {
		return ledger.ErrVersionConflict
	}

	// Pair-write: snapshot and log move together or not at all.
	m.accounts[account.ID] = account
	m.transactions[account.ID] = append(m.transactions[account.ID], txs...)
	return nil
}

func (m *Memory) UpdateAccountStatus(_ context.Context, id ledger.AccountID, expectedVersion int64, status ledger.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.accounts[id]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	if stored.Version != expectedVersion {
		return ledger.ErrVersionConflict
	}
	stored.Status = status
	stored.Version++
	m.accounts[id] = stored
	return nil
}

func (m *Memory) ListTransactions(_ context.Context, id ledger.AccountID, page ledger.Page) (ledger.TransactionPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.accounts[id]; !ok {
		return ledger.TransactionPage{}, ledger.ErrAccountNotFound
	}

	all := m.transactions[id]

	start := 0
	if page.Cursor != "" {
		n, err := strconv.Atoi(page.Cursor)
		if err != nil || n < 0 {
			return ledger.TransactionPage{}, ledger.ErrInvalidCursor
		}
		start = n
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	var out []ledger.Transaction
	i := start
	for ; i < len(all) && len(out) < limit; i++ {
		tx := all[i]
		if page.SinceMonth != "" && tx.CreatedAt.Format("2006-01") < page.SinceMonth {
			continue
		}
		out = append(out, tx)
	}

	next := ""
	if i < len(all) {
		next = strconv.Itoa(i)
	}
	return ledger.TransactionPage{Transactions: out, NextCursor: next}, nil
}
