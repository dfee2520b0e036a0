package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const KeyPrefix = "carsearch:ratelimit:"

// Redis keeps one sorted set per client: score is the request time in unix
// milliseconds, member a random id so simultaneous requests do not collapse.
type Redis struct {
	rdb   *redis.Client
	limit int
	now   func() time.Time
}

func NewRedis(rdb *redis.Client, perMinute int) *Redis {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	return &Redis{rdb: rdb, limit: perMinute, now: time.Now}
}

func (r *Redis) Admit(ctx context.Context, client string) (bool, error) {
	since := r.now().Add(-Window).UnixMilli()
	n, err := r.rdb.ZCount(ctx, KeyPrefix+client, "("+strconv.FormatInt(since, 10), "+inf").Result()
	if err != nil {
		return false, err
	}
	return n < int64(r.limit), nil
}

func (r *Redis) Record(ctx context.Context, client string) error {
	key := KeyPrefix + client
	now := r.now()
	cutoff := now.Add(-Retention).UnixMilli()

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		pipe.PExpire(ctx, key, Retention)
		return nil
	})
	return err
}
