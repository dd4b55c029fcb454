package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces this service's entries on a shared Redis.
const keyPrefix = "moneyloop:"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache shares cached source responses across replicas, so a burst
// of loop runs does not hammer the upstream search APIs.
type RedisCache struct {
	cli *redis.Client
}

func NewRedisCache(cfg RedisConfig) *RedisCache {
	return &RedisCache{cli: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (r *RedisCache) GetBytes(key string) ([]byte, bool, error) {
	b, err := r.cli.Get(context.Background(), keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	return r.cli.Set(context.Background(), keyPrefix+key, value, ttl).Err()
}
