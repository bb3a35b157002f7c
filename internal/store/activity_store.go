package store

import "context"

type ActivityStore struct {
	db DB
}

type ActivityEntry struct {
	ActorUserID string
	Action      string
	EntityType  string
	EntityID    string
	OldData     string
	NewData     string
	Description string
	IPAddress   string
	UserAgent   string
}

type activityRow struct {
	ID          string  `db:"id"`
	ActorUserID *string `db:"actor_user_id"`
	Action      string  `db:"action"`
	EntityType  string  `db:"entity_type"`
	EntityID    string  `db:"entity_id"`
	OldData     string  `db:"old_data"`
	NewData     string  `db:"new_data"`
	Description string  `db:"description"`
	IPAddress   string  `db:"ip_address"`
	UserAgent   string  `db:"user_agent"`
	CreatedAt   any     `db:"created_at"`
}

func NewActivityStore(db DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Record runs on the plain pool, not inside the financial transaction:
// activity logging is best effort and must never roll back a commit.
func (s *ActivityStore) Record(ctx context.Context, entry ActivityEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, actor_user_id, action, entity_type, entity_id, old_data, new_data, description, ip_address, user_agent)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ActorUserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.OldData, entry.NewData, entry.Description, entry.IPAddress, entry.UserAgent)
	return err
}

func (s *ActivityStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	var rows []activityRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, actor_user_id, action, entity_type, entity_id, old_data, new_data, description, ip_address, user_agent, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	logs := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, map[string]any{
			"id":            row.ID,
			"actor_user_id": derefStringPtr(row.ActorUserID),
			"action":        row.Action,
			"entity_type":   row.EntityType,
			"entity_id":     row.EntityID,
			"old_data":      row.OldData,
			"new_data":      row.NewData,
			"description":   row.Description,
			"ip_address":    row.IPAddress,
			"user_agent":    row.UserAgent,
			"created_at":    row.CreatedAt,
		})
	}
	return logs, nil
}
