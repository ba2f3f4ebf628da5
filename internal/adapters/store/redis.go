package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikey/email-verifier/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps results in a per-run list and the summary in a per-run key.
// Run IDs are indexed in a sorted set scored by start time.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore connects to the Redis server at redisURL
func NewRedisStore(redisURL, prefix string, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(rdb, prefix, logger), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(rdb *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		prefix: prefix,
		logger: logger,
	}
}

// Key helpers
func (s *RedisStore) resultsKey(runID string) string {
	return fmt.Sprintf("%s:run:%s:results", s.prefix, runID)
}

func (s *RedisStore) summaryKey(runID string) string {
	return fmt.Sprintf("%s:run:%s:summary", s.prefix, runID)
}

func (s *RedisStore) runsKey() string {
	return fmt.Sprintf("%s:runs", s.prefix)
}

// SaveResult appends a result record to the run's list
func (s *RedisStore) SaveResult(ctx context.Context, record *core.ResultRecord) error {
	data, err := json.Marshal(newResultDocument(record))
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if err := s.rdb.RPush(ctx, s.resultsKey(record.RunID), data).Err(); err != nil {
		return fmt.Errorf("rpush failed: %w", err)
	}
	return nil
}

// SaveSummary stores the run summary and indexes the run
func (s *RedisStore) SaveSummary(ctx context.Context, record *core.SummaryRecord) error {
	data, err := json.Marshal(newSummaryDocument(record))
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.summaryKey(record.RunID), data, 0)
	pipe.ZAdd(ctx, s.runsKey(), redis.Z{
		Score:  float64(record.StartedAt.Unix()),
		Member: record.RunID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}

	s.logger.Debug("Stored run summary", zap.String("run_id", record.RunID))
	return nil
}

// ResultsForRun returns the result records of a run in arrival order
func (s *RedisStore) ResultsForRun(ctx context.Context, runID string) ([]*core.ResultRecord, error) {
	items, err := s.rdb.LRange(ctx, s.resultsKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}

	records := make([]*core.ResultRecord, 0, len(items))
	for _, item := range items {
		var doc resultDocument
		if err := json.Unmarshal([]byte(item), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
		records = append(records, doc.record())
	}
	return records, nil
}

// Summary returns the stored summary of a run
func (s *RedisStore) Summary(ctx context.Context, runID string) (*core.SummaryRecord, error) {
	data, err := s.rdb.Get(ctx, s.summaryKey(runID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("get summary failed: %w", err)
	}

	var doc summaryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return doc.record(), nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
