package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Compile-time interface check.
var _ domain.RecordStore = (*RedisStore)(nil)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string // defaults to "facecapture"
}

// RedisStore keeps records as JSON strings under <prefix>:record:<id> and
// tracks ids in the <prefix>:records set.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	log    *logger.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions, log *logger.Logger) (*RedisStore, error) {
	log.Info("connecting to redis at %s (db=%d)", opts.Addr, opts.DB)

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	return NewRedisStoreWithClient(client, opts.KeyPrefix, log), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string, log *logger.Logger) *RedisStore {
	if prefix == "" {
		prefix = "facecapture"
	}
	return &RedisStore{client: client, prefix: prefix, log: log}
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + ":record:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":records"
}

// Save persists a record. Overwrites if it already exists.
func (s *RedisStore) Save(ctx context.Context, record *domain.FaceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", record.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(record.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), record.ID)
		return nil
	})
	if err != nil {
		s.log.Error("saving record %s: %v", record.ID, err)
		return fmt.Errorf("saving record %s: %w", record.ID, err)
	}
	s.log.Debug("saved record %s (%d bytes)", record.ID, len(data))
	return nil
}

// Load retrieves a record by ID.
func (s *RedisStore) Load(ctx context.Context, id string) (*domain.FaceRecord, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		s.log.Debug("record not found: %s", id)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading record %s: %w", id, err)
	}

	var rec domain.FaceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", id, err)
	}
	return &rec, nil
}

// Delete removes a record by ID.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.recordKey(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	if del.Val() == 0 {
		return domain.ErrNotFound
	}
	s.log.Debug("deleted record %s", id)
	return nil
}

// List returns every record, oldest first. Ids whose record key has
// vanished are skipped.
func (s *RedisStore) List(ctx context.Context) ([]*domain.FaceRecord, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("listing record ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}

	out := make([]*domain.FaceRecord, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			s.log.Warn("record %s indexed but missing", ids[i])
			continue
		}
		var rec domain.FaceRecord
		if err := json.UnmarshalFromString(str, &rec); err != nil {
			s.log.Warn("skipping undecodable record %s: %v", ids[i], err)
			continue
		}
		out = append(out, &rec)
	}
	sortRecords(out)
	return out, nil
}

// Close releases the connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
