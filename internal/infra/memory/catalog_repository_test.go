package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
)

func TestCatalogRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		CatalogLoader: NewStaticCatalogLoader(map[string]catalog.Dataset{
			"SAMPLE": sampleDataset(),
		}),
	}
	repo := NewCatalogRepository(loader, time.Minute)

	first, err := repo.GetCatalog(context.Background(), "SAMPLE")
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	second, err := repo.GetCatalog(context.Background(), "SAMPLE")
	if err != nil {
		t.Fatalf("get catalog 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}
	if first != second {
		t.Fatalf("expected the cached catalog to be reused")
	}
}

func TestCatalogRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		CatalogLoader: NewStaticCatalogLoader(map[string]catalog.Dataset{"SAMPLE": sampleDataset()}),
	}
	repo := NewCatalogRepository(loader, time.Minute)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetCatalog(context.Background(), "SAMPLE"); err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetCatalog(context.Background(), "SAMPLE"); err != nil {
		t.Fatalf("get catalog after ttl: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls.Load())
	}
}

func TestCatalogRepositoryCollapsesConcurrentLoads(t *testing.T) {
	release := make(chan struct{})
	loader := &countingLoader{
		CatalogLoader: NewStaticCatalogLoader(map[string]catalog.Dataset{"SAMPLE": sampleDataset()}),
		gate:          release,
	}
	repo := NewCatalogRepository(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetCatalog(context.Background(), "SAMPLE"); err != nil {
				t.Errorf("get catalog: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if loader.calls.Load() != 1 {
		t.Fatalf("expected a single load, got %d", loader.calls.Load())
	}
}

func TestCatalogRepositoryRejectsInvalidData(t *testing.T) {
	bad := sampleDataset()
	bad.Questions[0].CorrectOptionID = "zz"
	repo := NewCatalogRepository(NewStaticCatalogLoader(map[string]catalog.Dataset{"BAD": bad}), 0)

	if _, err := repo.GetCatalog(context.Background(), "BAD"); !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected invalid catalog error, got %v", err)
	}
	if _, err := repo.GetCatalog(context.Background(), "MISSING"); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

type countingLoader struct {
	CatalogLoader
	calls atomic.Int32
	gate  chan struct{}
}

func (l *countingLoader) LoadDataset(ctx context.Context, certification string) (catalog.Dataset, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	return l.CatalogLoader.LoadDataset(ctx, certification)
}

func sampleDataset() catalog.Dataset {
	return catalog.Dataset{
		Certification: "SAMPLE",
		Topics: []domain.Topic{
			{ID: "EC2", Label: "Amazon EC2", MacroDomain: domain.DomainTechnologyServices, ExamWeight: domain.WeightHigh},
		},
		Questions: []domain.Question{
			{
				ID:      "q1",
				TopicID: "EC2",
				Text:    "Which service provides resizable compute capacity?",
				Options: []domain.Option{
					{ID: "a", Text: "Amazon EC2"},
					{ID: "b", Text: "Amazon S3"},
				},
				CorrectOptionID: "a",
				Explanation:     "EC2 provides virtual servers.",
			},
		},
	}
}
