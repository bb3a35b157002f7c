package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// WalletCache keeps recently read balances in redis. It is purely an
// accelerator: every error path falls back to the database and a redis
// outage never fails a request.
type WalletCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewWalletCache(rdb *redis.Client, ttl time.Duration) *WalletCache {
	return &WalletCache{rdb: rdb, ttl: ttl}
}

func balanceKey(userID string) string {
	return "wallet:balance:" + userID
}

func (c *WalletCache) GetBalance(ctx context.Context, userID string) (int64, bool) {
	if c.rdb == nil {
		return 0, false
	}
	val, err := c.rdb.Get(ctx, balanceKey(userID)).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		logrus.WithError(err).Debug("wallet cache read failed")
		return 0, false
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return balance, true
}

func (c *WalletCache) SetBalance(ctx context.Context, userID string, balance int64) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, balanceKey(userID), strconv.FormatInt(balance, 10), c.ttl).Err(); err != nil {
		logrus.WithError(err).Debug("wallet cache write failed")
	}
}

func (c *WalletCache) Invalidate(ctx context.Context, userID string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, balanceKey(userID)).Err(); err != nil {
		logrus.WithError(err).Debug("wallet cache invalidate failed")
	}
}
