package db

import (
  "context"
  "fmt"
  "strings"
  "time"

  goredis "github.com/redis/go-redis/v9"

  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/utils"
)

// NewRedisClient connects to the redis instance used for webhook replay
// guards. Returns an error when REDIS_ADDR is unset; callers may treat the
// client as optional.
func NewRedisClient(log *logger.Logger) (*goredis.Client, error) {
  serviceLog := log.With("service", "RedisClient")

  addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
  if addr == "" {
    return nil, fmt.Errorf("missing REDIS_ADDR")
  }
  password := utils.GetEnv("REDIS_PASSWORD", "", nil)

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    Password:    password,
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    serviceLog.Error("Failed to connect to Redis", "error", err)
    return nil, fmt.Errorf("failed to connect to redis: %w", err)
  }
  serviceLog.Info("Connected to Redis", "addr", addr)
  return rdb, nil
}
