package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKV keeps all values in one hash at "<prefix>:session".
type RedisKV struct {
	rdb redis.UniversalClient
	key string
}

var _ KV = (*RedisKV)(nil)

func NewRedisKV(rdb redis.UniversalClient, prefix string) *RedisKV {
	return &RedisKV{rdb: rdb, key: prefix + ":session"}
}

func (k *RedisKV) Load(ctx context.Context) (map[string][]byte, error) {
	values, err := k.rdb.HGetAll(ctx, k.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", k.key, err)
	}
	out := make(map[string][]byte, len(values))
	for field, v := range values {
		out[field] = []byte(v)
	}
	return out, nil
}

// SetMany writes all entries in a MULTI/EXEC block.
func (k *RedisKV) SetMany(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	pipe := k.rdb.TxPipeline()
	for _, e := range entries {
		pipe.HSet(ctx, k.key, e.Key, e.Value)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write %s: %w", k.key, err)
	}
	return nil
}

func (k *RedisKV) DeleteMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := k.rdb.HDel(ctx, k.key, keys...).Err(); err != nil {
		return fmt.Errorf("delete from %s: %w", k.key, err)
	}
	return nil
}

func (k *RedisKV) Close() error {
	return k.rdb.Close()
}
