package httpapi

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests in fixed redis windows. Without redis, or when
// redis fails, every request is allowed.
type RateLimiter struct {
	rdb    *redis.Client
	logger logging.Logger
}

func NewRateLimiter(rdb *redis.Client, logger logging.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, logger: logger}
}

// Allow reports whether id may make another request to resource within the
// current window.
func (r *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if r.rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	cnt, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if cnt == 1 {
		if err := r.rdb.Expire(ctx, key, window).Err(); err != nil {
			return true, err
		}
	}
	return cnt <= int64(limit), nil
}

// Limit returns middleware allowing limit requests per window, keyed by the
// signed-in user or else the client address.
func (r *RateLimiter) Limit(name string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if u := currentUser(c); u != nil {
			id = fmt.Sprintf("user:%d", u.ID)
		}

		allowed, err := r.Allow(c.UserContext(), name, id, limit, window)
		if err != nil {
			r.logger.Warn(c.UserContext(), "rate limit check failed", "resource", name, "error", err)
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(errorResponse{Error: "Too many requests, please try again later."})
		}
		return c.Next()
	}
}
