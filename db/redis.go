package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brettboylen/reddit-feeds/models"
)

// RedisStore keeps each document as a JSON string under a key derived from its link_hash.
// SETNX on that key is the uniqueness constraint.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, uri, database, collection string) (*RedisStore, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid redis uri: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: database + ":" + collection + ":",
	}, nil
}

// EnsureIndexes verifies the server is reachable; key uniqueness needs no index
func (s *RedisStore) EnsureIndexes(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Insert writes one document if its key does not exist yet
func (s *RedisStore) Insert(ctx context.Context, doc models.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: failed to encode document: %v", models.ErrStorageWrite, err)
	}

	// no expiry: documents are never evicted
	created, err := s.client.SetNX(ctx, s.key(doc.LinkHash), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageWrite, err)
	}
	if !created {
		return fmt.Errorf("%w: link_hash %s", models.ErrDuplicate, doc.LinkHash)
	}
	return nil
}

func (s *RedisStore) key(linkHash string) string {
	return s.prefix + linkHash
}

// Close closes the Redis connection
func (s *RedisStore) Close(ctx context.Context) error {
	return s.client.Close()
}
