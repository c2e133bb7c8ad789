package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore — разделяемое между экземплярами сервиса хранилище счётчиков.
// Ключ дополняется меткой начала окна, TTL выставляется в размер окна,
// поэтому устаревшие счётчики Redis удаляет сам.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "rl:".
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	const op = "ratelimit.NewRedisStore"

	if prefix == "" {
		prefix = "rl:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

// Incr — INCR по ключу текущего окна; EXPIRE ставится тем же pipeline.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	const op = "ratelimit.RedisStore.Incr"

	bucket := time.Now().Truncate(window).Unix()
	redisKey := s.prefix + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return incr.Val(), nil
}

// Close закрывает клиент Redis.
func (s *RedisStore) Close() error { return s.rdb.Close() }
