package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface, for
// deployments where several agent instances share state
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) SaveExecutedRewards(ctx context.Context, ids []model.RewardID) error {
	return save(ctx, s, s.executedRewardsKey(), ids)
}

func (s *Storage) LoadExecutedRewards(ctx context.Context) ([]model.RewardID, error) {
	return load[model.RewardID](ctx, s, s.executedRewardsKey())
}

func (s *Storage) SaveCachedBans(ctx context.Context, ids []model.PlayerID) error {
	return save(ctx, s, s.cachedBansKey(), ids)
}

func (s *Storage) LoadCachedBans(ctx context.Context) ([]model.PlayerID, error) {
	return load[model.PlayerID](ctx, s, s.cachedBansKey())
}

func (s *Storage) executedRewardsKey() string {
	return s.cfg.KeyPrefix + ":executed_rewards"
}

func (s *Storage) cachedBansKey() string {
	return s.cfg.KeyPrefix + ":cached_bans"
}

func save[T ~string](ctx context.Context, s *Storage, key string, ids []T) error {
	if ids == nil {
		ids = []T{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

func load[T ~string](ctx context.Context, s *Storage, key string) ([]T, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []T{}, nil
		}
		return nil, err
	}

	var ids []T
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return ids, nil
}
