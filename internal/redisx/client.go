package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// CacheOrderStatus is the one shape every status cache write uses, so the API
// fast path and the notifier never disagree. Cache only; DB stays the truth.
func CacheOrderStatus(ctx context.Context, rdb *redis.Client, orderID, status string) {
	if rdb == nil {
		return
	}
	b, _ := json.Marshal(map[string]string{"order_id": orderID, "status": status})
	_ = rdb.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLStatusCache).Err()
}
