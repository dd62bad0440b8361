// Package cache provides the Redis-backed mirror of product state and the
// notification channel used to fan out stock changes.
//
// The cache holds two derived entries per product (see keys.go): the bare
// stock scalar and the serialized product snapshot. Neither is authoritative;
// the store is. Writers that touch one mirrored key re-write the other so the
// pair never diverges by more than one read.
//
// The same connection doubles as the pub/sub transport for stock events. The
// channel is transient: messages published while a subscriber is away are
// lost, which is fine because events are re-fetch hints, not a changelog.
package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string // host:port
	Username string // optional (ACL / managed Redis)
	Password string // optional
	DB       int    // 0-15
	TLS      bool   // managed offerings usually require TLS
}

// Client wraps go-redis with the few operations the storefront needs. All
// methods are safe for concurrent use; the underlying client pools
// connections.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis and validates the connection with a ping.
func New(ctx context.Context, opts Options) (*Client, error) {
	ro := &redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}
	if opts.TLS {
		// Verification relaxed: local tunnels to managed Redis present
		// unverifiable certs.
		ro.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	rdb := redis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// NewFromClient wraps an existing go-redis client. Used by tests (miniredis)
// and by callers that manage the connection themselves.
func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Get reads a key. The second return reports presence: a missing key is
// ("", false, nil), not an error.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set writes a key without TTL; mirrored entries live until overwritten.
func (c *Client) Set(ctx context.Context, key, value string) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Publish sends a payload on the named channel (fire-and-forget broadcast).
func (c *Client) Publish(ctx context.Context, channel, payload string) error {
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a subscription on the named channel and waits for the
// subscription confirmation before returning, so the caller never misses
// messages published after Subscribe returns.
func (c *Client) Subscribe(ctx context.Context, channel string) (*redis.PubSub, error) {
	ps := c.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}
	return ps, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
