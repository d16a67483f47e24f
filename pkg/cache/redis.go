package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Redis shares the registry cache between several server processes.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

var _ Cache = (*Redis)(nil)

func NewRedis(cfg RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client, prefix: cfg.Prefix}
}

// NewRedisWithClient wraps an existing client (tests, sentinel setups).
func NewRedisWithClient(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Ping(ctx context.Context) error {
	return errors.Wrap(r.client.Ping(ctx).Err(), "redis ping")
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "redis get %s", key)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return errors.Wrapf(r.client.Set(ctx, r.prefix+key, val, ttl).Err(), "redis set %s", key)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return errors.Wrapf(r.client.Del(ctx, r.prefix+key).Err(), "redis del %s", key)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
