package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"wallet/internal/auth"
	"wallet/internal/db"
	"wallet/internal/money"
	"wallet/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrForbidden         = errors.New("admin capability required")
	ErrNotFound          = errors.New("record not found")
	ErrNotPending        = errors.New("record is not pending")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrSameUserTransfer  = errors.New("cannot transfer to yourself")
)

type DepositStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, depositID string) (store.Deposit, error)
	MarkReviewed(ctx context.Context, tx store.Execer, depositID, status string, comment *string, reviewedBy string) (int64, error)
}

type WithdrawalStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, withdrawalID string) (store.Withdrawal, error)
	MarkReviewed(ctx context.Context, tx store.Execer, withdrawalID, status string, comment *string, reviewedBy string) (int64, error)
}

type WalletStore interface {
	UpsertForUpdate(ctx context.Context, tx store.Tx, walletID, userID string) (store.Wallet, error)
	UpdateBalance(ctx context.Context, tx store.Execer, walletID string, balance int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

type ActivityStore interface {
	Record(ctx context.Context, entry store.ActivityEntry) error
}

type WalletCache interface {
	Invalidate(ctx context.Context, userID string)
}

type BalanceNotifier interface {
	NotifyBalance(userID string, balanceMinor int64)
}

// ApprovalService moves deposits and withdrawals out of PENDING and is
// the only writer of wallet balances for those flows. Every mutation
// happens inside one serializable transaction with the reviewed row and
// the wallet row locked, so two concurrent approvals of the same record
// end as one success and one ErrNotPending.
type ApprovalService struct {
	txRunner     db.TxRunner
	deposits     DepositStore
	withdrawals  WithdrawalStore
	wallets      WalletStore
	transactions TransactionStore
	activity     ActivityStore
	cache        WalletCache
	notifier     BalanceNotifier
}

func NewApprovalService(txRunner db.TxRunner, deposits DepositStore, withdrawals WithdrawalStore, wallets WalletStore, transactions TransactionStore, activity ActivityStore, cache WalletCache, notifier BalanceNotifier) *ApprovalService {
	return &ApprovalService{
		txRunner:     txRunner,
		deposits:     deposits,
		withdrawals:  withdrawals,
		wallets:      wallets,
		transactions: transactions,
		activity:     activity,
		cache:        cache,
		notifier:     notifier,
	}
}

// ReviewRequest carries the acting admin explicitly; the service never
// reads ambient session state.
type ReviewRequest struct {
	ActorID   string
	ActorRole string
	Comment   *string
	IPAddress string
	UserAgent string
}

func (s *ApprovalService) ApproveDeposit(ctx context.Context, depositID string, req ReviewRequest) (store.Deposit, error) {
	if req.ActorRole != auth.RoleAdmin {
		return store.Deposit{}, ErrForbidden
	}
	var (
		deposit    store.Deposit
		credited   int64
		newBalance int64
	)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		deposit, err = s.deposits.GetForUpdate(ctx, tx, depositID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		// Status re-checked under the row lock: a second concurrent
		// approval sees APPROVED here and aborts without touching money.
		if deposit.Status != store.StatusPending {
			return ErrNotPending
		}
		rate, err := money.ParseRate(deposit.Rate)
		if err != nil {
			return err
		}
		credited = money.ApplyRate(deposit.Amount, rate)
		if credited <= 0 {
			return ErrInvalidAmount
		}
		rows, err := s.deposits.MarkReviewed(ctx, tx, depositID, store.StatusApproved, req.Comment, req.ActorID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotPending
		}
		wallet, err := s.wallets.UpsertForUpdate(ctx, tx, uuid.NewString(), deposit.UserID)
		if err != nil {
			return err
		}
		newBalance = wallet.Balance + credited
		if err := s.wallets.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
			return err
		}
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:        uuid.NewString(),
			UserID:    deposit.UserID,
			AdminID:   &req.ActorID,
			WalletID:  wallet.ID,
			Type:      store.TypeDeposit,
			Status:    store.TxCompleted,
			Amount:    credited,
			DepositID: &depositID,
			Reference: "deposit approval",
		})
	})
	if err != nil {
		return store.Deposit{}, err
	}
	s.afterReview(ctx, req, "approve_deposit", "deposit", depositID, deposit.Status, store.StatusApproved, credited)
	s.cache.Invalidate(ctx, deposit.UserID)
	s.notifier.NotifyBalance(deposit.UserID, newBalance)
	deposit.Status = store.StatusApproved
	deposit.AdminComment = req.Comment
	deposit.ReviewedBy = &req.ActorID
	return deposit, nil
}

func (s *ApprovalService) RejectDeposit(ctx context.Context, depositID string, req ReviewRequest) (store.Deposit, error) {
	if req.ActorRole != auth.RoleAdmin {
		return store.Deposit{}, ErrForbidden
	}
	var deposit store.Deposit
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		deposit, err = s.deposits.GetForUpdate(ctx, tx, depositID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if deposit.Status != store.StatusPending {
			return ErrNotPending
		}
		rows, err := s.deposits.MarkReviewed(ctx, tx, depositID, store.StatusRejected, req.Comment, req.ActorID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotPending
		}
		return nil
	})
	if err != nil {
		return store.Deposit{}, err
	}
	s.afterReview(ctx, req, "reject_deposit", "deposit", depositID, deposit.Status, store.StatusRejected, 0)
	deposit.Status = store.StatusRejected
	deposit.AdminComment = req.Comment
	deposit.ReviewedBy = &req.ActorID
	return deposit, nil
}

func (s *ApprovalService) ApproveWithdrawal(ctx context.Context, withdrawalID string, req ReviewRequest) (store.Withdrawal, error) {
	if req.ActorRole != auth.RoleAdmin {
		return store.Withdrawal{}, ErrForbidden
	}
	var (
		withdrawal store.Withdrawal
		newBalance int64
	)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		withdrawal, err = s.withdrawals.GetForUpdate(ctx, tx, withdrawalID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if withdrawal.Status != store.StatusPending {
			return ErrNotPending
		}
		wallet, err := s.wallets.UpsertForUpdate(ctx, tx, uuid.NewString(), withdrawal.UserID)
		if err != nil {
			return err
		}
		// The balance may have shrunk since the request was filed, so
		// the funds check happens here, under the wallet lock.
		if wallet.Balance < withdrawal.Amount {
			return ErrInsufficientFunds
		}
		rows, err := s.withdrawals.MarkReviewed(ctx, tx, withdrawalID, store.StatusApproved, req.Comment, req.ActorID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotPending
		}
		newBalance = wallet.Balance - withdrawal.Amount
		if err := s.wallets.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
			return err
		}
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:           uuid.NewString(),
			UserID:       withdrawal.UserID,
			AdminID:      &req.ActorID,
			WalletID:     wallet.ID,
			Type:         store.TypeWithdraw,
			Status:       store.TxCompleted,
			Amount:       withdrawal.Amount,
			WithdrawalID: &withdrawalID,
			Reference:    "withdrawal approval",
		})
	})
	if err != nil {
		return store.Withdrawal{}, err
	}
	s.afterReview(ctx, req, "approve_withdrawal", "withdrawal", withdrawalID, withdrawal.Status, store.StatusApproved, withdrawal.Amount)
	s.cache.Invalidate(ctx, withdrawal.UserID)
	s.notifier.NotifyBalance(withdrawal.UserID, newBalance)
	withdrawal.Status = store.StatusApproved
	withdrawal.AdminComment = req.Comment
	withdrawal.ReviewedBy = &req.ActorID
	return withdrawal, nil
}

func (s *ApprovalService) RejectWithdrawal(ctx context.Context, withdrawalID string, req ReviewRequest) (store.Withdrawal, error) {
	if req.ActorRole != auth.RoleAdmin {
		return store.Withdrawal{}, ErrForbidden
	}
	var withdrawal store.Withdrawal
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		withdrawal, err = s.withdrawals.GetForUpdate(ctx, tx, withdrawalID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if withdrawal.Status != store.StatusPending {
			return ErrNotPending
		}
		rows, err := s.withdrawals.MarkReviewed(ctx, tx, withdrawalID, store.StatusRejected, req.Comment, req.ActorID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotPending
		}
		return nil
	})
	if err != nil {
		return store.Withdrawal{}, err
	}
	s.afterReview(ctx, req, "reject_withdrawal", "withdrawal", withdrawalID, withdrawal.Status, store.StatusRejected, 0)
	withdrawal.Status = store.StatusRejected
	withdrawal.AdminComment = req.Comment
	withdrawal.ReviewedBy = &req.ActorID
	return withdrawal, nil
}

// afterReview writes the activity trail once the financial transaction
// has committed. Failures are logged and swallowed: observability never
// undoes money movement.
func (s *ApprovalService) afterReview(ctx context.Context, req ReviewRequest, action, entityType, entityID, oldStatus, newStatus string, amount int64) {
	oldData, _ := json.Marshal(map[string]any{"status": oldStatus})
	newData, _ := json.Marshal(map[string]any{"status": newStatus, "amount": amount})
	err := s.activity.Record(ctx, store.ActivityEntry{
		ActorUserID: req.ActorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		OldData:     string(oldData),
		NewData:     string(newData),
		Description: action + " by admin",
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":    action,
			"entity_id": entityID,
		}).Warn("activity log write failed")
	}
}
