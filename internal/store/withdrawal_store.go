package store

import "context"

type WithdrawalStore struct {
	db DB
}

type Withdrawal struct {
	ID           string  `db:"id"`
	UserID       string  `db:"user_id"`
	Amount       int64   `db:"amount"`
	BankAccount  string  `db:"bank_account"`
	Status       string  `db:"status"`
	AdminComment *string `db:"admin_comment"`
	ReviewedBy   *string `db:"reviewed_by"`
	CreatedAt    any     `db:"created_at"`
	UpdatedAt    any     `db:"updated_at"`
}

type WithdrawalInput struct {
	ID          string
	UserID      string
	Amount      int64
	BankAccount string
}

func NewWithdrawalStore(db DB) *WithdrawalStore {
	return &WithdrawalStore{db: db}
}

func (s *WithdrawalStore) Create(ctx context.Context, tx Execer, input WithdrawalInput) error {
	query := `
		INSERT INTO withdrawals (id, user_id, amount, bank_account, status)
		VALUES ($1, $2, $3, $4, 'PENDING')
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.UserID, input.Amount, input.BankAccount)
	return err
}

func (s *WithdrawalStore) GetForUpdate(ctx context.Context, tx Getter, withdrawalID string) (Withdrawal, error) {
	var row Withdrawal
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, amount, bank_account, status, admin_comment, reviewed_by
		FROM withdrawals
		WHERE id = $1
		FOR UPDATE
	`, withdrawalID)
	if err != nil {
		return Withdrawal{}, err
	}
	return row, nil
}

func (s *WithdrawalStore) MarkReviewed(ctx context.Context, tx Execer, withdrawalID, status string, comment *string, reviewedBy string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE withdrawals
		SET status = $1, admin_comment = $2, reviewed_by = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'PENDING'
	`, status, comment, reviewedBy, withdrawalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *WithdrawalStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error) {
	var rows []Withdrawal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, bank_account, status, admin_comment, reviewed_by, created_at, updated_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return withdrawalRowsToMaps(rows), nil
}

func (s *WithdrawalStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]map[string]any, error) {
	var rows []Withdrawal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, bank_account, status, admin_comment, reviewed_by, created_at, updated_at
		FROM withdrawals
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return withdrawalRowsToMaps(rows), nil
}

func withdrawalRowsToMaps(rows []Withdrawal) []map[string]any {
	maps := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		maps = append(maps, map[string]any{
			"id":            row.ID,
			"user_id":       row.UserID,
			"amount":        row.Amount,
			"bank_account":  row.BankAccount,
			"status":        row.Status,
			"admin_comment": derefStringPtr(row.AdminComment),
			"reviewed_by":   derefStringPtr(row.ReviewedBy),
			"created_at":    row.CreatedAt,
			"updated_at":    row.UpdatedAt,
		})
	}
	return maps
}
