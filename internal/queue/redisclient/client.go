package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sehyun-dev/taxlink/internal/jobs"
)

const deliveryQueueKey = "taxlink:delivery_queue"

var ErrEmpty = errors.New("queue is empty")

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// Ping checks redis connectivity.

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Enqueue pushes a delivery job for the worker.
func (c *Client) Enqueue(ctx context.Context, j jobs.DeliveryJob) error {
	raw, err := jobs.Encode(j)

	if err != nil {
		return err
	}

	return c.redisdb.LPush(ctx, deliveryQueueKey, raw).Err()
}

// Dequeue blocks up to timeout for the next job. ErrEmpty means the
// wait expired with nothing to do.
func (c *Client) Dequeue(ctx context.Context, timeout time.Duration) (jobs.DeliveryJob, error) {
	res, err := c.redisdb.BRPop(ctx, timeout, deliveryQueueKey).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.DeliveryJob{}, ErrEmpty
		}

		return jobs.DeliveryJob{}, err
	}

	// BRPop returns [key, value]
	if len(res) != 2 {
		return jobs.DeliveryJob{}, ErrEmpty
	}

	return jobs.Decode([]byte(res[1]))
}
