package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/andreluis2005/cognira/internal/domain"
)

func TestBlobStoreRoundTrip(t *testing.T) {
	store := NewBlobStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	data := []byte(`{"version":2}`)
	if err := store.Put(ctx, "u1", data); err != nil {
		t.Fatalf("put: %v", err)
	}
	data[0] = 'x'

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"version":2}` {
		t.Fatalf("stored blob aliased caller buffer: %s", got)
	}
}
