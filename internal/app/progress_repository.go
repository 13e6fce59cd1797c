package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/andreluis2005/cognira/internal/snapshot"
)

// BlobStore abstracts where progress documents are kept (in-memory, Redis, SQLite).
// Get returns domain.ErrProgressNotFound when nothing was saved under key.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// ProgressRepository loads and saves a learner's progress document.
type ProgressRepository struct {
	store  BlobStore
	cat    *catalog.Catalog
	logger *slog.Logger
}

func NewProgressRepository(store BlobStore, cat *catalog.Catalog, logger *slog.Logger) *ProgressRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressRepository{store: store, cat: cat, logger: logger}
}

// Load returns the stored progress for key. A missing or unreadable document
// yields a default progress; only store failures are returned as errors.
func (r *ProgressRepository) Load(ctx context.Context, key string) (domain.UserProgress, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, domain.ErrProgressNotFound) {
		data, err = nil, nil
	}
	if err != nil {
		return domain.UserProgress{}, fmt.Errorf("load progress %s: %w", key, err)
	}

	progress, decodeErr := snapshot.Decode(data, r.cat)
	if decodeErr != nil && !errors.Is(decodeErr, snapshot.ErrEmpty) {
		r.logger.Warn("stored progress unreadable, starting fresh", "key", key, "error", decodeErr)
	}
	if progress.UserID == "" {
		progress.UserID = key
	}
	return progress, nil
}

// Save stores progress under key.
func (r *ProgressRepository) Save(ctx context.Context, key string, progress domain.UserProgress) error {
	data, err := snapshot.Encode(progress)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save progress %s: %w", key, err)
	}
	return nil
}
