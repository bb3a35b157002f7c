package store

import "context"

type WalletStore struct {
	db DB
}

type Wallet struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Balance   int64  `db:"balance"`
	CreatedAt any    `db:"created_at"`
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) GetByUser(ctx context.Context, userID string) (Wallet, error) {
	var row Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, balance, created_at
		FROM wallets
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return Wallet{}, err
	}
	return row, nil
}

// UpsertForUpdate creates the wallet with a zero balance if the user does
// not have one yet, then locks the row for the rest of the transaction.
func (s *WalletStore) UpsertForUpdate(ctx context.Context, tx Tx, walletID, userID string) (Wallet, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, walletID, userID); err != nil {
		return Wallet{}, err
	}
	var row Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, balance
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) UpdateBalance(ctx context.Context, tx Execer, walletID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, walletID)
	return err
}
