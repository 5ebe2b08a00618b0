package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps each record as a JSON string under
// <prefix><project>:<key>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStoreWithClient(client, cfg.KeyPrefix)
}

func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Ping checks the connection; useful at startup.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) key(projectID string, name RecordName) string {
	return r.prefix + projectID + ":" + name.Key()
}

func (r *RedisStore) Load(ctx context.Context, projectID string, name RecordName) (coldroom.Record, error) {
	if err := checkArgs(projectID, name); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.key(projectID, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	rec := coldroom.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func (r *RedisStore) Save(ctx context.Context, projectID string, name RecordName, rec coldroom.Record) error {
	if err := checkArgs(projectID, name); err != nil {
		return err
	}
	data, err := encodeRecord(".json", rec)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(projectID, name), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, projectID string, name RecordName) error {
	if err := checkArgs(projectID, name); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.key(projectID, name)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
