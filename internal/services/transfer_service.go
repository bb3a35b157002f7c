package services

import (
	"context"
	"encoding/json"

	"wallet/internal/auth"
	"wallet/internal/db"
	"wallet/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// TransferService covers the user-initiated money moves: transfers
// between users, purchases, and admin-granted gifts. Same lock and
// transaction discipline as the approval flow.
type TransferService struct {
	txRunner     db.TxRunner
	wallets      WalletStore
	transactions TransactionStore
	activity     ActivityStore
	cache        WalletCache
	notifier     BalanceNotifier
}

func NewTransferService(txRunner db.TxRunner, wallets WalletStore, transactions TransactionStore, activity ActivityStore, cache WalletCache, notifier BalanceNotifier) *TransferService {
	return &TransferService{
		txRunner:     txRunner,
		wallets:      wallets,
		transactions: transactions,
		activity:     activity,
		cache:        cache,
		notifier:     notifier,
	}
}

type TransferRequest struct {
	ActorID     string
	ToUserID    string
	AmountMinor int64
	Reference   string
	IPAddress   string
	UserAgent   string
}

func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if req.AmountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	if req.ActorID == req.ToUserID {
		return "", ErrSameUserTransfer
	}
	var (
		transactionID    string
		fromBalanceAfter int64
		toBalanceAfter   int64
	)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		fromWallet, toWallet, err := s.lockTwoWallets(ctx, tx, req.ActorID, req.ToUserID)
		if err != nil {
			return err
		}
		if fromWallet.Balance < req.AmountMinor {
			return ErrInsufficientFunds
		}
		fromBalanceAfter = fromWallet.Balance - req.AmountMinor
		toBalanceAfter = toWallet.Balance + req.AmountMinor
		if err := s.wallets.UpdateBalance(ctx, tx, fromWallet.ID, fromBalanceAfter); err != nil {
			return err
		}
		if err := s.wallets.UpdateBalance(ctx, tx, toWallet.ID, toBalanceAfter); err != nil {
			return err
		}
		transactionID = uuid.NewString()
		if err := s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:         transactionID,
			UserID:     req.ActorID,
			WalletID:   fromWallet.ID,
			Type:       store.TypeTransferOut,
			Status:     store.TxCompleted,
			Amount:     req.AmountMinor,
			PeerUserID: &req.ToUserID,
			Reference:  req.Reference,
		}); err != nil {
			return err
		}
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:         uuid.NewString(),
			UserID:     req.ToUserID,
			WalletID:   toWallet.ID,
			Type:       store.TypeTransferIn,
			Status:     store.TxCompleted,
			Amount:     req.AmountMinor,
			PeerUserID: &req.ActorID,
			Reference:  req.Reference,
		})
	})
	if err != nil {
		return "", err
	}
	s.recordActivity(ctx, req.ActorID, "transfer", "transaction", transactionID, req.AmountMinor, req.IPAddress, req.UserAgent)
	s.cache.Invalidate(ctx, req.ActorID)
	s.cache.Invalidate(ctx, req.ToUserID)
	s.notifier.NotifyBalance(req.ActorID, fromBalanceAfter)
	s.notifier.NotifyBalance(req.ToUserID, toBalanceAfter)
	return transactionID, nil
}

type PurchaseRequest struct {
	ActorID     string
	AmountMinor int64
	ItemRef     string
	IPAddress   string
	UserAgent   string
}

func (s *TransferService) Purchase(ctx context.Context, req PurchaseRequest) (string, error) {
	if req.AmountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	var (
		transactionID string
		balanceAfter  int64
	)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.wallets.UpsertForUpdate(ctx, tx, uuid.NewString(), req.ActorID)
		if err != nil {
			return err
		}
		if wallet.Balance < req.AmountMinor {
			return ErrInsufficientFunds
		}
		balanceAfter = wallet.Balance - req.AmountMinor
		if err := s.wallets.UpdateBalance(ctx, tx, wallet.ID, balanceAfter); err != nil {
			return err
		}
		transactionID = uuid.NewString()
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:        transactionID,
			UserID:    req.ActorID,
			WalletID:  wallet.ID,
			Type:      store.TypePurchase,
			Status:    store.TxCompleted,
			Amount:    req.AmountMinor,
			Reference: req.ItemRef,
		})
	})
	if err != nil {
		return "", err
	}
	s.recordActivity(ctx, req.ActorID, "purchase", "transaction", transactionID, req.AmountMinor, req.IPAddress, req.UserAgent)
	s.cache.Invalidate(ctx, req.ActorID)
	s.notifier.NotifyBalance(req.ActorID, balanceAfter)
	return transactionID, nil
}

type GiftRequest struct {
	ActorID     string
	ActorRole   string
	ToUserID    string
	AmountMinor int64
	Reference   string
	IPAddress   string
	UserAgent   string
}

func (s *TransferService) Gift(ctx context.Context, req GiftRequest) (string, error) {
	if req.ActorRole != auth.RoleAdmin {
		return "", ErrForbidden
	}
	if req.AmountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	var (
		transactionID string
		balanceAfter  int64
	)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.wallets.UpsertForUpdate(ctx, tx, uuid.NewString(), req.ToUserID)
		if err != nil {
			return err
		}
		balanceAfter = wallet.Balance + req.AmountMinor
		if err := s.wallets.UpdateBalance(ctx, tx, wallet.ID, balanceAfter); err != nil {
			return err
		}
		transactionID = uuid.NewString()
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:        transactionID,
			UserID:    req.ToUserID,
			AdminID:   &req.ActorID,
			WalletID:  wallet.ID,
			Type:      store.TypeGift,
			Status:    store.TxCompleted,
			Amount:    req.AmountMinor,
			Reference: req.Reference,
		})
	})
	if err != nil {
		return "", err
	}
	s.recordActivity(ctx, req.ActorID, "gift", "transaction", transactionID, req.AmountMinor, req.IPAddress, req.UserAgent)
	s.cache.Invalidate(ctx, req.ToUserID)
	s.notifier.NotifyBalance(req.ToUserID, balanceAfter)
	return transactionID, nil
}

// Wallets lock in user-id order so two opposing transfers cannot
// deadlock on each other.
func (s *TransferService) lockTwoWallets(ctx context.Context, tx store.Tx, firstUserID, secondUserID string) (store.Wallet, store.Wallet, error) {
	leftID, rightID := firstUserID, secondUserID
	if rightID < leftID {
		leftID, rightID = rightID, leftID
	}
	leftWallet, err := s.wallets.UpsertForUpdate(ctx, tx, uuid.NewString(), leftID)
	if err != nil {
		return store.Wallet{}, store.Wallet{}, err
	}
	rightWallet, err := s.wallets.UpsertForUpdate(ctx, tx, uuid.NewString(), rightID)
	if err != nil {
		return store.Wallet{}, store.Wallet{}, err
	}
	if firstUserID == leftID {
		return leftWallet, rightWallet, nil
	}
	return rightWallet, leftWallet, nil
}

func (s *TransferService) recordActivity(ctx context.Context, actorID, action, entityType, entityID string, amount int64, ip, userAgent string) {
	data, _ := json.Marshal(map[string]any{"amount": amount})
	err := s.activity.Record(ctx, store.ActivityEntry{
		ActorUserID: actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		NewData:     string(data),
		Description: action + " completed",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
	if err != nil {
		logrus.WithError(err).WithField("action", action).Warn("activity log write failed")
	}
}
