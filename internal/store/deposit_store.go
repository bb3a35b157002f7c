package store

import "context"

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type DepositStore struct {
	db DB
}

type Deposit struct {
	ID           string  `db:"id"`
	UserID       string  `db:"user_id"`
	Amount       int64   `db:"amount"`
	Rate         string  `db:"rate"`
	SlipImage    string  `db:"slip_image"`
	Status       string  `db:"status"`
	AdminComment *string `db:"admin_comment"`
	ReviewedBy   *string `db:"reviewed_by"`
	CreatedAt    any     `db:"created_at"`
	UpdatedAt    any     `db:"updated_at"`
}

type DepositInput struct {
	ID        string
	UserID    string
	Amount    int64
	Rate      string
	SlipImage string
}

func NewDepositStore(db DB) *DepositStore {
	return &DepositStore{db: db}
}

func (s *DepositStore) Create(ctx context.Context, tx Execer, input DepositInput) error {
	query := `
		INSERT INTO deposits (id, user_id, amount, rate, slip_image, status)
		VALUES ($1, $2, $3, $4, $5, 'PENDING')
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.UserID, input.Amount, input.Rate, input.SlipImage)
	return err
}

func (s *DepositStore) GetForUpdate(ctx context.Context, tx Getter, depositID string) (Deposit, error) {
	var row Deposit
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, amount, rate, slip_image, status, admin_comment, reviewed_by
		FROM deposits
		WHERE id = $1
		FOR UPDATE
	`, depositID)
	if err != nil {
		return Deposit{}, err
	}
	return row, nil
}

// MarkReviewed moves a pending deposit into a terminal state. The WHERE
// clause repeats the PENDING check so a lost race is visible as zero rows
// affected even without the row lock.
func (s *DepositStore) MarkReviewed(ctx context.Context, tx Execer, depositID, status string, comment *string, reviewedBy string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE deposits
		SET status = $1, admin_comment = $2, reviewed_by = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'PENDING'
	`, status, comment, reviewedBy, depositID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *DepositStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error) {
	var rows []Deposit
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, rate, slip_image, status, admin_comment, reviewed_by, created_at, updated_at
		FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return depositRowsToMaps(rows), nil
}

func (s *DepositStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]map[string]any, error) {
	var rows []Deposit
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, rate, slip_image, status, admin_comment, reviewed_by, created_at, updated_at
		FROM deposits
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return depositRowsToMaps(rows), nil
}

func depositRowsToMaps(rows []Deposit) []map[string]any {
	maps := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		maps = append(maps, map[string]any{
			"id":            row.ID,
			"user_id":       row.UserID,
			"amount":        row.Amount,
			"rate":          row.Rate,
			"slip_image":    row.SlipImage,
			"status":        row.Status,
			"admin_comment": derefStringPtr(row.AdminComment),
			"reviewed_by":   derefStringPtr(row.ReviewedBy),
			"created_at":    row.CreatedAt,
			"updated_at":    row.UpdatedAt,
		})
	}
	return maps
}
