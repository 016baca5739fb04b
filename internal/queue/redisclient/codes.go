package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sehyun-dev/taxlink/internal/service"
)

const codeKeyPrefix = "taxlink:verify_code:"

// The redis-backed CodeStore. TTL expiry does the cleanup the legacy
// system handled with a sleeping goroutine per code.

func (c *Client) SetCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	return c.redisdb.Set(ctx, codeKeyPrefix+phone, code, ttl).Err()
}

func (c *Client) GetCode(ctx context.Context, phone string) (string, error) {
	val, err := c.redisdb.Get(ctx, codeKeyPrefix+phone).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", service.ErrCodeNotFound
		}

		return "", err
	}

	return val, nil
}

func (c *Client) DeleteCode(ctx context.Context, phone string) error {
	return c.redisdb.Del(ctx, codeKeyPrefix+phone).Err()
}
