package services

import (
	"context"
	"database/sql"
	"sync"

	"wallet/internal/store"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// serialTxRunner emulates the serializable isolation of the real runner:
// only one transaction body runs at a time, so under it the memory-backed
// stores behave like locked rows.
type serialTxRunner struct {
	mu sync.Mutex
}

func (r *serialTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

type stubDepositStore struct {
	getForUpdateFn func(ctx context.Context, tx store.Getter, depositID string) (store.Deposit, error)
	markReviewedFn func(ctx context.Context, tx store.Execer, depositID, status string, comment *string, reviewedBy string) (int64, error)
}

func (s stubDepositStore) GetForUpdate(ctx context.Context, tx store.Getter, depositID string) (store.Deposit, error) {
	return s.getForUpdateFn(ctx, tx, depositID)
}

func (s stubDepositStore) MarkReviewed(ctx context.Context, tx store.Execer, depositID, status string, comment *string, reviewedBy string) (int64, error) {
	if s.markReviewedFn == nil {
		return 1, nil
	}
	return s.markReviewedFn(ctx, tx, depositID, status, comment, reviewedBy)
}

type stubWithdrawalStore struct {
	getForUpdateFn func(ctx context.Context, tx store.Getter, withdrawalID string) (store.Withdrawal, error)
	markReviewedFn func(ctx context.Context, tx store.Execer, withdrawalID, status string, comment *string, reviewedBy string) (int64, error)
}

func (s stubWithdrawalStore) GetForUpdate(ctx context.Context, tx store.Getter, withdrawalID string) (store.Withdrawal, error) {
	return s.getForUpdateFn(ctx, tx, withdrawalID)
}

func (s stubWithdrawalStore) MarkReviewed(ctx context.Context, tx store.Execer, withdrawalID, status string, comment *string, reviewedBy string) (int64, error) {
	if s.markReviewedFn == nil {
		return 1, nil
	}
	return s.markReviewedFn(ctx, tx, withdrawalID, status, comment, reviewedBy)
}

type stubWalletStore struct {
	upsertForUpdateFn func(ctx context.Context, tx store.Tx, walletID, userID string) (store.Wallet, error)
	updateBalanceFn   func(ctx context.Context, tx store.Execer, walletID string, balance int64) error
}

func (s stubWalletStore) UpsertForUpdate(ctx context.Context, tx store.Tx, walletID, userID string) (store.Wallet, error) {
	if s.upsertForUpdateFn == nil {
		return store.Wallet{}, nil
	}
	return s.upsertForUpdateFn(ctx, tx, walletID, userID)
}

func (s stubWalletStore) UpdateBalance(ctx context.Context, tx store.Execer, walletID string, balance int64) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, walletID, balance)
}

type stubTransactionStore struct {
	createFn func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

type stubActivityStore struct {
	mu      sync.Mutex
	entries []store.ActivityEntry
	err     error
}

func (s *stubActivityStore) Record(ctx context.Context, entry store.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return s.err
}

type stubCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (s *stubCache) Invalidate(_ context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, userID)
}

type stubNotifier struct {
	mu    sync.Mutex
	calls map[string][]int64
}

func (s *stubNotifier) NotifyBalance(userID string, balanceMinor int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string][]int64)
	}
	s.calls[userID] = append(s.calls[userID], balanceMinor)
}

// memoryLedger backs the concurrency and conservation tests with real
// mutable state behind the serialTxRunner.
type memoryLedger struct {
	deposits     map[string]*store.Deposit
	withdrawals  map[string]*store.Withdrawal
	wallets      map[string]*store.Wallet
	transactions []store.TransactionInput
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		deposits:    make(map[string]*store.Deposit),
		withdrawals: make(map[string]*store.Withdrawal),
		wallets:     make(map[string]*store.Wallet),
	}
}

func (m *memoryLedger) GetForUpdate(_ context.Context, _ store.Getter, depositID string) (store.Deposit, error) {
	deposit, ok := m.deposits[depositID]
	if !ok {
		return store.Deposit{}, sql.ErrNoRows
	}
	return *deposit, nil
}

func (m *memoryLedger) MarkReviewed(_ context.Context, _ store.Execer, depositID, status string, comment *string, reviewedBy string) (int64, error) {
	deposit, ok := m.deposits[depositID]
	if !ok || deposit.Status != store.StatusPending {
		return 0, nil
	}
	deposit.Status = status
	deposit.AdminComment = comment
	deposit.ReviewedBy = &reviewedBy
	return 1, nil
}

type memoryWithdrawals struct {
	ledger *memoryLedger
}

func (m memoryWithdrawals) GetForUpdate(_ context.Context, _ store.Getter, withdrawalID string) (store.Withdrawal, error) {
	withdrawal, ok := m.ledger.withdrawals[withdrawalID]
	if !ok {
		return store.Withdrawal{}, sql.ErrNoRows
	}
	return *withdrawal, nil
}

func (m memoryWithdrawals) MarkReviewed(_ context.Context, _ store.Execer, withdrawalID, status string, comment *string, reviewedBy string) (int64, error) {
	withdrawal, ok := m.ledger.withdrawals[withdrawalID]
	if !ok || withdrawal.Status != store.StatusPending {
		return 0, nil
	}
	withdrawal.Status = status
	withdrawal.AdminComment = comment
	withdrawal.ReviewedBy = &reviewedBy
	return 1, nil
}

type memoryWallets struct {
	ledger *memoryLedger
}

func (m memoryWallets) UpsertForUpdate(_ context.Context, _ store.Tx, walletID, userID string) (store.Wallet, error) {
	if wallet, ok := m.ledger.wallets[userID]; ok {
		return *wallet, nil
	}
	wallet := &store.Wallet{ID: walletID, UserID: userID, Balance: 0}
	m.ledger.wallets[userID] = wallet
	return *wallet, nil
}

func (m memoryWallets) UpdateBalance(_ context.Context, _ store.Execer, walletID string, balance int64) error {
	for _, wallet := range m.ledger.wallets {
		if wallet.ID == walletID {
			wallet.Balance = balance
			return nil
		}
	}
	return sql.ErrNoRows
}

type memoryTransactions struct {
	ledger *memoryLedger
}

func (m memoryTransactions) Create(_ context.Context, _ store.Execer, input store.TransactionInput) error {
	m.ledger.transactions = append(m.ledger.transactions, input)
	return nil
}
