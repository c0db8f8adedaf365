package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	REDIS_KEY_RESULTS     = "roulette:results"
	REDIS_KEY_LAST_ROUND  = "roulette:last_round"
	RESULTS_HISTORY       = 100
	RESULTS_TTL           = 24 * time.Hour
	DEFAULT_RESULTS_LIMIT = 20
)

// ResultStore keeps the most recent round outcomes for display
type ResultStore interface {
	RoundRecorder
	RecentResults(ctx context.Context, limit int) ([]RoundResult, error)
	// LastResult returns the newest round, or nil when none is stored
	LastResult(ctx context.Context) (*RoundResult, error)
}

// RedisResultStore keeps a capped list of recent rounds in Redis, newest first
type RedisResultStore struct {
	client *redis.Client
}

func NewRedisResultStore(client *redis.Client) *RedisResultStore {
	return &RedisResultStore{client: client}
}

func (s *RedisResultStore) RecordRound(ctx context.Context, result RoundResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, REDIS_KEY_RESULTS, data)
	pipe.LTrim(ctx, REDIS_KEY_RESULTS, 0, RESULTS_HISTORY-1)
	pipe.Expire(ctx, REDIS_KEY_RESULTS, RESULTS_TTL)
	pipe.Set(ctx, REDIS_KEY_LAST_ROUND, data, RESULTS_TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store round %s: %w", result.RoundID, err)
	}
	return nil
}

func (s *RedisResultStore) RecentResults(ctx context.Context, limit int) ([]RoundResult, error) {
	limit = clampLimit(limit)

	raw, err := s.client.LRange(ctx, REDIS_KEY_RESULTS, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]RoundResult, 0, len(raw))
	for _, item := range raw {
		var r RoundResult
		if json.Unmarshal([]byte(item), &r) == nil {
			results = append(results, r)
		}
	}
	return results, nil
}

func (s *RedisResultStore) LastResult(ctx context.Context) (*RoundResult, error) {
	data, err := s.client.Get(ctx, REDIS_KEY_LAST_ROUND).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var r RoundResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode last round: %w", err)
	}
	return &r, nil
}

// MemoryResultStore is the in-process fallback used when Redis is not available
type MemoryResultStore struct {
	cache *gocache.Cache
	mu    sync.Mutex
}

const memoryResultsKey = "recent_results"

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{
		cache: gocache.New(RESULTS_TTL, 10*time.Minute),
	}
}

func (s *MemoryResultStore) RecordRound(_ context.Context, result RoundResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.load()
	results = append([]RoundResult{result}, results...)
	if len(results) > RESULTS_HISTORY {
		results = results[:RESULTS_HISTORY]
	}
	s.cache.Set(memoryResultsKey, results, gocache.DefaultExpiration)
	return nil
}

func (s *MemoryResultStore) RecentResults(_ context.Context, limit int) ([]RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.load()
	limit = clampLimit(limit)
	if len(results) > limit {
		results = results[:limit]
	}

	out := make([]RoundResult, len(results))
	copy(out, results)
	return out, nil
}

func (s *MemoryResultStore) LastResult(_ context.Context) (*RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.load()
	if len(results) == 0 {
		return nil, nil
	}
	last := results[0]
	return &last, nil
}

func (s *MemoryResultStore) load() []RoundResult {
	if v, found := s.cache.Get(memoryResultsKey); found {
		return v.([]RoundResult)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DEFAULT_RESULTS_LIMIT
	}
	if limit > RESULTS_HISTORY {
		return RESULTS_HISTORY
	}
	return limit
}
