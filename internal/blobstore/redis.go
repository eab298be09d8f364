package blobstore

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// Redis stores each blob under "nexostock:<key>" with no expiry.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr string, password string, db int) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Redis{client: client}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *Redis) Save(ctx context.Context, key string, blob []byte) error {
	return r.client.Set(ctx, redisKey(key), blob, 0).Err()
}

func redisKey(key string) string {
	return fmt.Sprintf("nexostock:%s", key)
}
