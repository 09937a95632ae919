package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultPrefix = "adaptive-chess:"

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// CacheService stores JSON values in Redis under a common key prefix.
type CacheService struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("redis host required")
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opts := &redis.Options{
		Addr:     cfg.Host + ":" + strconv.Itoa(port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	return newService(opts, cfg.Prefix, logger)
}

// NewCacheServiceFromURL accepts redis:// and rediss:// URLs.
func NewCacheServiceFromURL(raw string, logger *zap.Logger) (*CacheService, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return newService(opts, "", logger)
}

func newService(opts *redis.Options, prefix string, logger *zap.Logger) (*CacheService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	logger.Info("redis cache connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &CacheService{client: client, prefix: prefix, logger: logger}, nil
}

func (c *CacheService) key(k string) string { return c.prefix + k }

// Get decodes the value at key into dest. It reports false on a miss.
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *CacheService) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}
	return c.client.Del(ctx, full...).Err()
}

func (c *CacheService) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *CacheService) Close() error {
	return c.client.Close()
}
