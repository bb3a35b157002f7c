package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"wallet/internal/auth"
	"wallet/internal/db"
	"wallet/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type UserStore interface {
	GetAccess(ctx context.Context, userID string) (string, bool, error)
	SetBlocked(ctx context.Context, tx store.Execer, userID string, blocked bool, reason *string, until *time.Time, by *string) (int64, error)
}

// UserService handles the block/unblock toggle. Same verify-mutate-log
// shape as the approval flow, without any balance implications.
type UserService struct {
	txRunner db.TxRunner
	users    UserStore
	activity ActivityStore
}

func NewUserService(txRunner db.TxRunner, users UserStore, activity ActivityStore) *UserService {
	return &UserService{txRunner: txRunner, users: users, activity: activity}
}

type BlockRequest struct {
	ActorID   string
	ActorRole string
	Reason    *string
	Until     *time.Time
	IPAddress string
	UserAgent string
}

func (s *UserService) BlockUser(ctx context.Context, userID string, req BlockRequest) error {
	return s.setBlocked(ctx, userID, true, "block_user", req)
}

func (s *UserService) UnblockUser(ctx context.Context, userID string, req BlockRequest) error {
	return s.setBlocked(ctx, userID, false, "unblock_user", req)
}

func (s *UserService) setBlocked(ctx context.Context, userID string, blocked bool, action string, req BlockRequest) error {
	if req.ActorRole != auth.RoleAdmin {
		return ErrForbidden
	}
	var wasBlocked bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, currentlyBlocked, err := s.users.GetAccess(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		wasBlocked = currentlyBlocked
		if currentlyBlocked == blocked {
			return ErrNotPending
		}
		var reason *string
		var until *time.Time
		var by *string
		if blocked {
			reason = req.Reason
			until = req.Until
			by = &req.ActorID
		}
		rows, err := s.users.SetBlocked(ctx, tx, userID, blocked, reason, until, by)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotPending
		}
		return nil
	})
	if err != nil {
		return err
	}
	oldData, _ := json.Marshal(map[string]any{"is_blocked": wasBlocked})
	newData, _ := json.Marshal(map[string]any{"is_blocked": blocked, "reason": derefString(req.Reason)})
	if err := s.activity.Record(ctx, store.ActivityEntry{
		ActorUserID: req.ActorID,
		Action:      action,
		EntityType:  "user",
		EntityID:    userID,
		OldData:     string(oldData),
		NewData:     string(newData),
		Description: action + " by admin",
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
	}); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("activity log write failed")
	}
	return nil
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
