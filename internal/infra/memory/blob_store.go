package memory

import (
	"context"
	"sync"

	"github.com/andreluis2005/cognira/internal/domain"
)

// BlobStore is an in-memory implementation of app.BlobStore, backing the
// `profile.store: memory` setting and tests.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

func (s *BlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *BlobStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}
