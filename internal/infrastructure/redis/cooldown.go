package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown throttles code issuance per email address. A key lives for the
// cooldown window after a successful Acquire.
type Cooldown struct {
	client *redis.Client
	prefix string
}

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

func NewCooldown(client *redis.Client) *Cooldown {
	return &Cooldown{client: client, prefix: "otp:cooldown:"}
}

func (c *Cooldown) key(email string) string {
	return c.prefix + email
}

// Acquire reports whether a new code may be issued now and, if so, starts the window.
func (c *Cooldown) Acquire(ctx context.Context, email string, window time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.key(email), time.Now().Unix(), window).Result()
	if err != nil {
		return false, fmt.Errorf("acquire cooldown: %w", err)
	}
	return ok, nil
}

// Release ends the window early, e.g. when the email never went out.
func (c *Cooldown) Release(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("release cooldown: %w", err)
	}
	return nil
}

// Remaining returns how long until the next code may be issued.
func (c *Cooldown) Remaining(ctx context.Context, email string) (time.Duration, error) {
	ttl, err := c.client.PTTL(ctx, c.key(email)).Result()
	if err != nil {
		return 0, fmt.Errorf("cooldown ttl: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
