package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string

	// Password is optional.
	Password string

	// DB selects the Redis logical database.
	DB int

	// KeyPrefix namespaces all keys. Defaults to "renderjob:".
	KeyPrefix string

	// TTL is the record expiry. Zero means records never expire.
	TTL time.Duration
}

// RedisStore persists job records in Redis. Records are stored as JSON
// values with an index list for recency ordering, so List stays cheap even
// with many records.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "renderjob:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

func (s *RedisStore) recordKey(jobID string) string { return s.prefix + jobID }

func (s *RedisStore) indexKey() string { return s.prefix + "index" }

// Save stores rec and pushes its ID to the recency index.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(rec.JobID), data, s.ttl)
	pipe.LRem(ctx, s.indexKey(), 0, rec.JobID)
	pipe.LPush(ctx, s.indexKey(), rec.JobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save job record: %w", err)
	}
	return nil
}

// Get retrieves a record by job ID.
func (s *RedisStore) Get(ctx context.Context, jobID string) (*Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse job record: %w", err)
	}
	return &rec, nil
}

// List returns up to limit records, newest first, following the index list.
// IDs whose records have expired are skipped.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	ids, err := s.client.LRange(ctx, s.indexKey(), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list job records: %w", err)
	}

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
