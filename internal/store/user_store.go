package store

import (
	"context"
	"time"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

type userRow struct {
	ID            string     `db:"id"`
	Username      string     `db:"username"`
	Email         string     `db:"email"`
	PasswordHash  string     `db:"password_hash"`
	Role          string     `db:"role"`
	IsBlocked     bool       `db:"is_blocked"`
	BlockedReason *string    `db:"blocked_reason"`
	BlockedUntil  *time.Time `db:"blocked_until"`
	BlockedBy     *string    `db:"blocked_by"`
	CreatedAt     any        `db:"created_at"`
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, username, email, passwordHash, role string) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, id, username, email, passwordHash, role)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, role, is_blocked, blocked_reason, blocked_until, created_at
		FROM users
		WHERE email = $1
	`, email)
	if err != nil {
		return nil, err
	}
	return userRowToMap(row, true), nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (map[string]any, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, role, is_blocked, blocked_reason, blocked_until, created_at
		FROM users
		WHERE username = $1
	`, username)
	if err != nil {
		return nil, err
	}
	return userRowToMap(row, false), nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, role, is_blocked, blocked_reason, blocked_until, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return userRowToMap(row, false), nil
}

func (s *UserStore) GetAccess(ctx context.Context, userID string) (string, bool, error) {
	var row struct {
		Role      string `db:"role"`
		IsBlocked bool   `db:"is_blocked"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT role, is_blocked FROM users WHERE id = $1`, userID)
	if err != nil {
		return "", false, err
	}
	return row.Role, row.IsBlocked, nil
}

// SetBlocked flips the block state only when the stored state differs,
// so the rows-affected count tells the caller whether the toggle took.
func (s *UserStore) SetBlocked(ctx context.Context, tx Execer, userID string, blocked bool, reason *string, until *time.Time, by *string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET is_blocked = $1, blocked_reason = $2, blocked_until = $3, blocked_by = $4
		WHERE id = $5 AND is_blocked <> $1
	`, blocked, reason, until, by, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM users WHERE role = 'ADMIN'`)
	return count > 0, err
}

func (s *UserStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, username, email, role, is_blocked, blocked_reason, blocked_until, blocked_by, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	users := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		entry := userRowToMap(row, false)
		entry["blocked_by"] = derefStringPtr(row.BlockedBy)
		users = append(users, entry)
	}
	return users, nil
}

func userRowToMap(row userRow, withHash bool) map[string]any {
	entry := map[string]any{
		"id":             row.ID,
		"username":       row.Username,
		"email":          row.Email,
		"role":           row.Role,
		"is_blocked":     row.IsBlocked,
		"blocked_reason": derefStringPtr(row.BlockedReason),
		"created_at":     row.CreatedAt,
	}
	if row.BlockedUntil != nil {
		entry["blocked_until"] = *row.BlockedUntil
	}
	if withHash {
		entry["password_hash"] = row.PasswordHash
	}
	return entry
}

func derefStringPtr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
