package redis

import (
	"context"
	"errors"
	"time"

	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/redis/go-redis/v9"
)

// BlobStore keeps progress documents as plain strings: SET progress:{key} {document}
// A zero ttl stores them without expiry.
type BlobStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBlobStore(client *redis.Client, ttl time.Duration) *BlobStore {
	return &BlobStore{client: client, ttl: ttl}
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, s.key(key), data, s.ttl).Err()
}

func (s *BlobStore) key(key string) string {
	return "progress:" + key
}
