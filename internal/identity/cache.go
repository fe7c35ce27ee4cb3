package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"agencyblog/internal/utils"

	"github.com/redis/go-redis/v9"
)

type ProfileCache interface {
	Get(ctx context.Context, userID string) (*User, bool)
	Set(ctx context.Context, u *User)
}

// CachedDirectory consults cache before the underlying directory. Only hits are cached so a user
// created after a miss shows up on the next lookup.
type CachedDirectory struct {
	next  Directory
	cache ProfileCache
}

func NewCachedDirectory(next Directory, cache ProfileCache) *CachedDirectory {
	return &CachedDirectory{next: next, cache: cache}
}

func (d *CachedDirectory) FindUser(ctx context.Context, userID string) (*User, error) {
	if u, ok := d.cache.Get(ctx, userID); ok {
		return u, nil
	}
	u, err := d.next.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.cache.Set(ctx, u)
	return u, nil
}

// LocalProfileCache keeps profiles in process memory.
type LocalProfileCache struct {
	entries *utils.TTLCache[User]
	ttl     time.Duration
}

func NewLocalProfileCache(size int, ttl time.Duration) (*LocalProfileCache, error) {
	entries, err := utils.NewTTLCache[User](size)
	if err != nil {
		return nil, fmt.Errorf("create profile cache: %w", err)
	}
	return &LocalProfileCache{entries: entries, ttl: ttl}, nil
}

func (c *LocalProfileCache) Get(_ context.Context, userID string) (*User, bool) {
	u, ok := c.entries.Get(userID)
	if !ok {
		return nil, false
	}
	return &u, true
}

func (c *LocalProfileCache) Set(_ context.Context, u *User) {
	c.entries.Set(u.ID, *u, c.ttl)
}

// RedisProfileCache shares profiles between instances. Redis errors degrade to cache misses.
type RedisProfileCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisProfileCache {
	return &RedisProfileCache{
		client: client,
		prefix: "profile:",
		ttl:    ttl,
		log:    log.With("component", "profile_cache"),
	}
}

func (c *RedisProfileCache) key(userID string) string {
	return c.prefix + userID
}

func (c *RedisProfileCache) Get(ctx context.Context, userID string) (*User, bool) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.WarnContext(ctx, "profile cache read failed", "user_id", userID, "error", err)
		return nil, false
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		c.log.WarnContext(ctx, "profile cache entry unreadable", "user_id", userID, "error", err)
		return nil, false
	}
	return &u, true
}

func (c *RedisProfileCache) Set(ctx context.Context, u *User) {
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(u.ID), raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "profile cache write failed", "user_id", u.ID, "error", err)
	}
}

// NewRedisClient parses url and checks the connection, as the session store does.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}
