package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches reference data from a backing store (embedded file, Postgres).
type CatalogLoader interface {
	LoadDataset(ctx context.Context, certification string) (catalog.Dataset, error)
}

// CatalogRepository caches validated catalogs with TTL to avoid repeated loads.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedCatalog
}

type cachedCatalog struct {
	cat       *catalog.Catalog
	expiresAt time.Time
}

// NewCatalogRepository caches forever when ttl is zero.
func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCatalog),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, certification string) (*catalog.Catalog, error) {
	if cat, ok := r.cached(certification); ok {
		return cat, nil
	}

	result, err, _ := r.sf.Do(certification, func() (interface{}, error) {
		if cat, ok := r.cached(certification); ok {
			return cat, nil
		}

		ds, err := r.loader.LoadDataset(ctx, certification)
		if err != nil {
			return nil, err
		}
		cat, err := catalog.New(ds)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[certification] = cachedCatalog{
			cat:       cat,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*catalog.Catalog), nil
}

func (r *CatalogRepository) cached(certification string) (*catalog.Catalog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[certification]
	if !ok {
		return nil, false
	}
	if r.ttl > 0 && !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.cat, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticCatalogLoader struct {
	datasets map[string]catalog.Dataset
}

func NewStaticCatalogLoader(datasets map[string]catalog.Dataset) *StaticCatalogLoader {
	return &StaticCatalogLoader{datasets: datasets}
}

func (l *StaticCatalogLoader) LoadDataset(_ context.Context, certification string) (catalog.Dataset, error) {
	if ds, ok := l.datasets[certification]; ok {
		return ds, nil
	}
	return catalog.Dataset{}, domain.ErrCatalogNotFound
}
