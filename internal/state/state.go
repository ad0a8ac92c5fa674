package state

import (
	"bricklink/taxonomy/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TreeStore caches the latest fetched category tree per catalog type.
type TreeStore interface {
	GetTree(ctx context.Context, categoryType domain.CategoryType) (domain.CategoryTreeMap, error)
	SetTree(ctx context.Context, categoryType domain.CategoryType, tree domain.CategoryTreeMap) error
}

type redisTreeStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisTreeStore(redisClient *redis.Client, ttl time.Duration) TreeStore {
	return &redisTreeStore{
		redisClient: redisClient,
		keyPrefix:   "bricklink:taxonomy:tree:",
		ttl:         ttl,
	}
}

func (s *redisTreeStore) key(categoryType domain.CategoryType) string {
	return s.keyPrefix + categoryType.String()
}

// GetTree returns (nil, nil) when nothing is cached.
func (s *redisTreeStore) GetTree(ctx context.Context, categoryType domain.CategoryType) (domain.CategoryTreeMap, error) {
	val, err := s.redisClient.Get(ctx, s.key(categoryType)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached tree for category %s: %w", categoryType, err)
	}

	return decodeTree(val)
}

func (s *redisTreeStore) SetTree(ctx context.Context, categoryType domain.CategoryType, tree domain.CategoryTreeMap) error {
	data, err := encodeTree(tree)
	if err != nil {
		return fmt.Errorf("failed to encode tree for category %s: %w", categoryType, err)
	}

	if err := s.redisClient.Set(ctx, s.key(categoryType), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache tree for category %s: %w", categoryType, err)
	}
	return nil
}

// encodeTree drops per-session flags; a cached tree is always pristine.
func encodeTree(tree domain.CategoryTreeMap) ([]byte, error) {
	clean := make(domain.CategoryTreeMap, len(tree))
	for id, node := range tree {
		node.Checked = false
		node.Disabled = false
		node.Highlighted = false
		clean[id] = node
	}
	return json.Marshal(clean)
}

func decodeTree(data []byte) (domain.CategoryTreeMap, error) {
	var tree domain.CategoryTreeMap
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode cached tree: %w", err)
	}
	return tree, nil
}
