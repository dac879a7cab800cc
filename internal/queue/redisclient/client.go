package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrQueueEmpty = errors.New("queue empty")

type Client struct {
	redisdb *redis.Client
	key     string
}

type Config struct {
	Addr     string
	Password string
	DB       int
	QueueKey string
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  -1, // blocking pops manage their own deadlines
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb, key: cfg.QueueKey}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Enqueue pushes an encoded job onto the left of the list.
func (c *Client) Enqueue(ctx context.Context, payload []byte) error {
	return c.redisdb.LPush(ctx, c.key, payload).Err()
}

// Dequeue blocks up to timeout for the next job from the right of the
// list. ErrQueueEmpty when nothing arrived within the window.
func (c *Client) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := c.redisdb.BRPop(ctx, timeout, c.key).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQueueEmpty
		}
		return nil, err
	}

	// BRPOP returns [key, value]
	if len(res) != 2 {
		return nil, ErrQueueEmpty
	}

	return []byte(res[1]), nil
}

// Raw exposes the underlying client for callers with other needs
// (the rate limiter shares this connection).
func (c *Client) Raw() *redis.Client {
	return c.redisdb
}
