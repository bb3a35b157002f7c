package store

import (
	"context"
	"fmt"
)

const (
	TypeDeposit     = "DEPOSIT"
	TypeWithdraw    = "WITHDRAW"
	TypeTransferIn  = "TRANSFER_IN"
	TypeTransferOut = "TRANSFER_OUT"
	TypePurchase    = "PURCHASE"
	TypeGift        = "GIFT"

	TxCompleted = "COMPLETED"
)

type TransactionStore struct {
	db DB
}

type transactionRow struct {
	ID           string  `db:"id"`
	UserID       string  `db:"user_id"`
	AdminID      *string `db:"admin_id"`
	WalletID     string  `db:"wallet_id"`
	Type         string  `db:"type"`
	Status       string  `db:"status"`
	Amount       int64   `db:"amount"`
	DepositID    *string `db:"deposit_id"`
	WithdrawalID *string `db:"withdrawal_id"`
	PeerUserID   *string `db:"peer_user_id"`
	Reference    string  `db:"reference"`
	CreatedAt    any     `db:"created_at"`
}

type TransactionInput struct {
	ID           string
	UserID       string
	AdminID      *string
	WalletID     string
	Type         string
	Status       string
	Amount       int64
	DepositID    *string
	WithdrawalID *string
	PeerUserID   *string
	Reference    string
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Transactions are append-only: there is intentionally no update or
// delete method on this store.
func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, user_id, admin_id, wallet_id, type, status, amount, deposit_id, withdrawal_id, peer_user_id, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.AdminID, input.WalletID, input.Type, input.Status,
		input.Amount, input.DepositID, input.WithdrawalID, input.PeerUserID, input.Reference,
	)
	return err
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]map[string]any, error) {
	var rows []transactionRow
	query := `
		SELECT id, user_id, admin_id, wallet_id, type, status, amount, deposit_id, withdrawal_id, peer_user_id, reference, created_at
		FROM transactions
		WHERE user_id = $1
	`
	args := []any{userID}
	param := 2
	if txType != "" {
		query += " AND type = $2"
		args = append(args, txType)
		param = 3
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", param, param+1)
	args = append(args, limit, offset)
	err := s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}
	return transactionRowsToMaps(rows), nil
}

func (s *TransactionStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	var rows []transactionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, admin_id, wallet_id, type, status, amount, deposit_id, withdrawal_id, peer_user_id, reference, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return transactionRowsToMaps(rows), nil
}

// SumByWallet returns the signed transaction total for a wallet, the
// amount its cached balance must equal.
func (s *TransactionStore) SumByWallet(ctx context.Context, walletID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(CASE
			WHEN type IN ('DEPOSIT', 'TRANSFER_IN', 'GIFT') THEN amount
			ELSE -amount
		END), 0)
		FROM transactions
		WHERE wallet_id = $1
	`, walletID)
	return sum, err
}

func transactionRowsToMaps(rows []transactionRow) []map[string]any {
	maps := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		maps = append(maps, map[string]any{
			"id":            row.ID,
			"user_id":       row.UserID,
			"admin_id":      derefStringPtr(row.AdminID),
			"wallet_id":     row.WalletID,
			"type":          row.Type,
			"status":        row.Status,
			"amount":        row.Amount,
			"deposit_id":    derefStringPtr(row.DepositID),
			"withdrawal_id": derefStringPtr(row.WithdrawalID),
			"peer_user_id":  derefStringPtr(row.PeerUserID),
			"reference":     row.Reference,
			"created_at":    row.CreatedAt,
		})
	}
	return maps
}
