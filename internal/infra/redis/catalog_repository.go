package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches reference data from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadDataset(ctx context.Context, certification string) (catalog.Dataset, error)
}

// CatalogRepository caches datasets in Redis and falls back to a loader on cache miss.
// Datasets are stored as JSON: SET catalog:{certification} {dataset}
// The last validated catalog per certification is kept in process so a cache hit
// on unchanged data does not rebuild the indexes.
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu   sync.Mutex
	memo map[string]memoCatalog
}

type memoCatalog struct {
	raw string
	cat *catalog.Catalog
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		memo:   make(map[string]memoCatalog),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, certification string) (*catalog.Catalog, error) {
	key := r.key(certification)
	if raw, err := r.client.Get(ctx, key).Result(); err == nil {
		if cat, err := r.fromCache(certification, raw); err == nil {
			return cat, nil
		}
	}

	result, err, _ := r.sf.Do(certification, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Result(); err == nil {
			if cat, err := r.fromCache(certification, raw); err == nil {
				return cat, nil
			}
		}

		ds, err := r.loader.LoadDataset(ctx, certification)
		if err != nil {
			return nil, err
		}
		cat, err := catalog.New(ds)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(cat.Dataset())
		if err != nil {
			return nil, err
		}
		_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		r.remember(certification, string(raw), cat)
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*catalog.Catalog), nil
}

func (r *CatalogRepository) fromCache(certification, raw string) (*catalog.Catalog, error) {
	r.mu.Lock()
	m, ok := r.memo[certification]
	r.mu.Unlock()
	if ok && m.raw == raw {
		return m.cat, nil
	}

	var ds catalog.Dataset
	if err := json.Unmarshal([]byte(raw), &ds); err != nil {
		return nil, err
	}
	cat, err := catalog.New(ds)
	if err != nil {
		return nil, err
	}
	r.remember(certification, raw, cat)
	return cat, nil
}

func (r *CatalogRepository) remember(certification, raw string, cat *catalog.Catalog) {
	r.mu.Lock()
	r.memo[certification] = memoCatalog{raw: raw, cat: cat}
	r.mu.Unlock()
}

func (r *CatalogRepository) key(certification string) string {
	return "catalog:" + certification
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
