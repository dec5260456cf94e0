/*
Package savings orchestrates the ledger engine against a Store.

PURPOSE:
  The ledger engine is pure; this package owns the read-apply-write cycle
  around it. Concurrent requests against one account are serialized with
  optimistic concurrency control: read the snapshot, run Apply, write
  conditioned on the version being unchanged, and retry from a fresh read
  on conflict. The retry budget is bounded; once it is exhausted the
  caller gets ErrConcurrentModification.

CORRUPTION HALT:
  When a full-history verification fails, the account is flagged and all
  further mutation is refused until an operator reconciles it. The flag
  is never cleared automatically.

SEE ALSO:
  - ledger/apply.go: The pure applier this service drives
  - ledger/verify.go: The replay law enforced by Verify
*/
package savings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Staillim/IQCapitalMaster-sub001/ledger"
)

// DefaultMaxRetries bounds the optimistic retry loop.
const DefaultMaxRetries = 5

// Metrics is the subset of instrumentation the service emits. Satisfied by
// metrics.Collector; a nil-safe no-op is used when absent.
type Metrics interface {
	TransactionApplied(txType string, duration time.Duration)
	TransactionRejected(txType string, reason string)
	RetryDepth(attempts int)
}

// Service applies member requests to their savings accounts.
type Service struct {
	store      ledger.Store
	policy     ledger.Policy
	clock      func() time.Time
	log        *slog.Logger
	metrics    Metrics
	maxRetries int

	mu        sync.RWMutex
	corrupted map[ledger.AccountID]error
}

// Option configures a Service.
type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithMaxRetries(n int) Option {
	return func(s *Service) { s.maxRetries = n }
}

// New creates a Service. Store and policy are explicit dependencies;
// nothing here is reachable through package-level state.
func New(store ledger.Store, policy ledger.Policy, opts ...Option) *Service {
	s := &Service{
		store:      store,
		policy:     policy,
		clock:      time.Now,
		log:        slog.Default(),
		metrics:    noopMetrics{},
		maxRetries: DefaultMaxRetries,
		corrupted:  make(map[ledger.AccountID]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenAccount creates the single account for a member.
func (s *Service) OpenAccount(ctx context.Context, userID ledger.UserID) (ledger.Account, error) {
	now := s.clock()
	acct := ledger.NewAccount(ledger.AccountID(uuid.NewString()), userID, s.policy, now)

	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return ledger.Account{}, fmt.Errorf("open account for %s: %w", userID, err)
	}

	s.log.InfoContext(ctx, "account opened",
		"account_id", acct.ID, "user_id", userID)
	return acct, nil
}

// Account returns the current snapshot.
func (s *Service) Account(ctx context.Context, id ledger.AccountID) (ledger.Account, error) {
	return s.store.ReadAccount(ctx, id)
}

// Submit runs one request through the read-apply-write cycle. On success it
// returns the updated snapshot and every transaction persisted for the
// request (rollover fines included). Once the write is acknowledged the
// transactions are durable; an abandoned context before that point commits
// nothing.
func (s *Service) Submit(ctx context.Context, req ledger.Request) (ledger.Account, []ledger.Transaction, error) {
	if err := s.haltedErr(req.AccountID); err != nil {
		return ledger.Account{}, nil, err
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = s.clock()
	}

	start := s.clock()
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		acct, err := s.store.ReadAccount(ctx, req.AccountID)
		if err != nil {
			return ledger.Account{}, nil, err
		}

		updated, txs, err := ledger.Apply(acct, req, s.policy)
		if err != nil {
			s.metrics.TransactionRejected(string(req.Type), rejectionReason(err))
			return ledger.Account{}, nil, err
		}

		err = s.store.WriteAccountAndTransactions(ctx, acct.Version, updated, txs)
		if err == nil {
			s.metrics.TransactionApplied(string(req.Type), s.clock().Sub(start))
			s.metrics.RetryDepth(attempt)
			s.log.InfoContext(ctx, "transaction applied",
				"account_id", req.AccountID,
				"type", req.Type,
				"amount", req.Amount.String(),
				"balance", updated.Balance.String(),
				"attempt", attempt)
			return updated, txs, nil
		}
		if !ledger.IsRetryable(err) {
			return ledger.Account{}, nil, err
		}

		s.log.DebugContext(ctx, "version conflict, retrying",
			"account_id", req.AccountID, "attempt", attempt)
		if ctx.Err() != nil {
			return ledger.Account{}, nil, ctx.Err()
		}
	}

	s.metrics.TransactionRejected(string(req.Type), "concurrent_modification")
	return ledger.Account{}, nil, ledger.ErrConcurrentModification
}

// Statement returns one page of the account's transaction history.
func (s *Service) Statement(ctx context.Context, id ledger.AccountID, page ledger.Page) (ledger.TransactionPage, error) {
	return s.store.ListTransactions(ctx, id, page)
}

// Verify replays the account's full history against its stored snapshot.
// A failure flags the account: every later Submit is refused with
// ErrLedgerCorruption until Reconcile clears the flag.
func (s *Service) Verify(ctx context.Context, id ledger.AccountID) error {
	acct, err := s.store.ReadAccount(ctx, id)
	if err != nil {
		return err
	}

	var history []ledger.Transaction
	page := ledger.Page{}
	for {
		tp, err := s.store.ListTransactions(ctx, id, page)
		if err != nil {
			return err
		}
		history = append(history, tp.Transactions...)
		if tp.NextCursor == "" {
			break
		}
		page.Cursor = tp.NextCursor
	}

	if err := ledger.Verify(acct, history); err != nil {
		s.mu.Lock()
		s.corrupted[id] = err
		s.mu.Unlock()
		s.log.ErrorContext(ctx, "ledger corruption detected",
			"account_id", id, "error", err)
		return err
	}
	return nil
}

// Reconcile clears a corruption halt after manual review. It re-verifies
// first; a still-inconsistent ledger stays halted.
func (s *Service) Reconcile(ctx context.Context, id ledger.AccountID) error {
	s.mu.Lock()
	delete(s.corrupted, id)
	s.mu.Unlock()

	if err := s.Verify(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "account reconciled", "account_id", id)
	return nil
}

// SetStatus suspends or reactivates an account (admin operation).
// A corruption halt blocks status changes like any other mutation.
func (s *Service) SetStatus(ctx context.Context, id ledger.AccountID, status ledger.AccountStatus) (ledger.Account, error) {
	if err := s.haltedErr(id); err != nil {
		return ledger.Account{}, err
	}
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		acct, err := s.store.ReadAccount(ctx, id)
		if err != nil {
			return ledger.Account{}, err
		}
		err = s.store.UpdateAccountStatus(ctx, id, acct.Version, status)
		if err == nil {
			s.log.InfoContext(ctx, "account status changed",
				"account_id", id, "status", status)
			return s.store.ReadAccount(ctx, id)
		}
		if !ledger.IsRetryable(err) {
			return ledger.Account{}, err
		}
	}
	return ledger.Account{}, ledger.ErrConcurrentModification
}

func (s *Service) haltedErr(id ledger.AccountID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.corrupted[id]; ok {
		return fmt.Errorf("account halted pending reconciliation: %w", err)
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case ledger.IsClientError(err):
		return clientReason(err)
	case ledger.IsNotFound(err):
		return "not_found"
	default:
		return "internal"
	}
}

func clientReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrAccountNotActive):
		return "account_not_active"
	case errors.Is(err, ledger.ErrAmountBelowMinimum):
		return "amount_below_minimum"
	case errors.Is(err, ledger.ErrWithdrawalLimitExceeded):
		return "withdrawal_limit_exceeded"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrFineExceedsPending):
		return "fine_exceeds_pending"
	case errors.Is(err, ledger.ErrFineReasonRequired):
		return "fine_reason_required"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrUnsupportedTransactionType):
		return "unsupported_transaction_type"
	default:
		return "rejected"
	}
}

type noopMetrics struct{}

func (noopMetrics) TransactionApplied(string, time.Duration) {}
func (noopMetrics) TransactionRejected(string, string)       {}
func (noopMetrics) RetryDepth(int)                           {}
