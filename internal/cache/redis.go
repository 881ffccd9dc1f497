package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const scoreKeyPrefix = "credit_score:"

// NewRedisClient connects to Redis and verifies the connection with a ping
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// KeyValue is the part of the Redis client the score cache needs
type KeyValue interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisScoreCache stores credit scores as JSON in Redis so every instance of
// the service shares them. A ttl of 0 keeps keys until invalidated.
type RedisScoreCache struct {
	client KeyValue
	ttl    time.Duration
	log    *logrus.Logger
}

func NewRedisScoreCache(client KeyValue, ttl time.Duration, log *logrus.Logger) *RedisScoreCache {
	return &RedisScoreCache{client: client, ttl: ttl, log: log}
}

// Get returns (nil, false) on a miss or any read or decode error
func (c *RedisScoreCache) Get(ctx context.Context, userID string) (*models.CreditScoreData, bool) {
	raw, err := c.client.Get(ctx, scoreKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("user_id", userID).Warn("Score cache read failed")
		}
		return nil, false
	}
	var data models.CreditScoreData
	if err := json.Unmarshal(raw, &data); err != nil {
		c.log.WithError(err).WithField("user_id", userID).Warn("Score cache entry is corrupt")
		return nil, false
	}
	return &data, true
}

// Set logs write errors; a failed cache write is not fatal
func (c *RedisScoreCache) Set(ctx context.Context, userID string, data *models.CreditScoreData) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.log.WithError(err).WithField("user_id", userID).Warn("Score cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, scoreKey(userID), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("user_id", userID).Warn("Score cache write failed")
	}
}

func (c *RedisScoreCache) Delete(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, scoreKey(userID)).Err(); err != nil {
		c.log.WithError(err).WithField("user_id", userID).Warn("Score cache delete failed")
	}
}

func scoreKey(userID string) string {
	return scoreKeyPrefix + userID
}
