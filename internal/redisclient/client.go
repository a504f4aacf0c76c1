package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client is a thin wrapper keeping a read-side snapshot of variant
// stock. The database is the only authority for stock decisions; the
// snapshot just serves cheap catalog reads.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(variantID int64) string {
	return fmt.Sprintf("stock:variant:%d", variantID)
}

// SetStock stores the stock snapshot for a variant
func (c *Client) SetStock(ctx context.Context, variantID int64, qty int) error {
	return c.rdb.Set(ctx, stockKey(variantID), qty, 0).Err()
}

// GetStock reads the stock snapshot for a variant. Missing keys
// report found=false so callers can fall back to the database.
func (c *Client) GetStock(ctx context.Context, variantID int64) (qty int, found bool, err error) {
	qty, err = c.rdb.Get(ctx, stockKey(variantID)).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}
