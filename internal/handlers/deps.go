package handlers

import (
	"context"
	"time"

	"wallet/internal/services"
	"wallet/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash, role string) error
	GetByEmail(ctx context.Context, email string) (map[string]any, error)
	GetByUsername(ctx context.Context, username string) (map[string]any, error)
	GetByID(ctx context.Context, userID string) (map[string]any, error)
	GetAccess(ctx context.Context, userID string) (string, bool, error)
	HasAnyAdmin(ctx context.Context) (bool, error)
	ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type WalletStore interface {
	GetByUser(ctx context.Context, userID string) (store.Wallet, error)
}

type DepositStore interface {
	Create(ctx context.Context, tx store.Execer, input store.DepositInput) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]map[string]any, error)
}

type WithdrawalStore interface {
	Create(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]map[string]any, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]map[string]any, error)
	ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error)
	SumByWallet(ctx context.Context, walletID string) (int64, error)
}

type ActivityStore interface {
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type ApprovalService interface {
	ApproveDeposit(ctx context.Context, depositID string, req services.ReviewRequest) (store.Deposit, error)
	RejectDeposit(ctx context.Context, depositID string, req services.ReviewRequest) (store.Deposit, error)
	ApproveWithdrawal(ctx context.Context, withdrawalID string, req services.ReviewRequest) (store.Withdrawal, error)
	RejectWithdrawal(ctx context.Context, withdrawalID string, req services.ReviewRequest) (store.Withdrawal, error)
}

type TransferService interface {
	Transfer(ctx context.Context, req services.TransferRequest) (string, error)
	Purchase(ctx context.Context, req services.PurchaseRequest) (string, error)
	Gift(ctx context.Context, req services.GiftRequest) (string, error)
}

type UserService interface {
	BlockUser(ctx context.Context, userID string, req services.BlockRequest) error
	UnblockUser(ctx context.Context, userID string, req services.BlockRequest) error
}

type BalanceCache interface {
	GetBalance(ctx context.Context, userID string) (int64, bool)
	SetBalance(ctx context.Context, userID string, balance int64)
}

type blockPayload struct {
	Reason string     `json:"reason"`
	Until  *time.Time `json:"until,omitempty"`
}
