package listcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ukydev/fleetfix/internal/models"
)

// RedisStore keeps the list and its fetch time under two keys, as
// repair_cache_<filter> and repair_cache_timestamp_<filter>.
type RedisStore struct {
	client *redis.Client
	expiry time.Duration
}

// NewRedisStore connects to url (redis://...). Keys expire after expiry so
// abandoned filter sets do not accumulate.
func NewRedisStore(url string, expiry time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts), expiry: expiry}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, expiry time.Duration) *RedisStore {
	return &RedisStore{client: client, expiry: expiry}
}

func timestampKey(key string) string {
	return TimestampPrefix + strings.TrimPrefix(key, KeyPrefix)
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	vals, err := s.client.MGet(ctx, key, timestampKey(key)).Result()
	if err != nil {
		return nil, false, err
	}
	data, ok1 := vals[0].(string)
	ts, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return nil, false, nil
	}

	millis, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("parse cache timestamp: %w", err)
	}
	entry := models.CacheEntry{FetchedAt: time.UnixMilli(millis)}
	if err := json.Unmarshal([]byte(data), &entry.Data); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return &entry, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, entry models.CacheEntry) error {
	data, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, s.expiry)
		pipe.Set(ctx, timestampKey(key), strconv.FormatInt(entry.FetchedAt.UnixMilli(), 10), s.expiry)
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key, timestampKey(key)).Err()
}

// Purge removes every repair_cache_ key, timestamps included.
func (s *RedisStore) Purge(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	err := s.client.Del(ctx, keys...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
