package middlewares

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore backs the rate limiter with a shared redis counter
// so the limit holds across instances.
type RedisCounterStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{
		client:  client,
		prefix:  "accounthub:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

func (s *RedisCounterStore) Incr(key string, window time.Duration) (int, time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	redisKey := s.prefix + key

	counter, err := s.client.Incr(ctx, redisKey).Result()

	if err != nil {
		return 0, time.Time{}, err
	}

	if counter == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()

	if err != nil || ttl <= 0 {
		ttl = window
	}

	return int(counter), time.Now().Add(ttl), nil
}
