package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "standings:league:waba:list", loader)
			if err != nil {
				errCh <- err
				return
			}
			if v != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errUnexpectedValue
		}
		return 7, nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); !errors.Is(err, errUnexpectedValue) {
		t.Fatalf("expected loader error, got %v", err)
	}
	v, err := store.GetOrLoad(context.Background(), "k", loader)
	if err != nil || v != 7 {
		t.Fatalf("second GetOrLoad = %d, %v", v, err)
	}
}

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "k", "v")
	if _, ok := store.Get(context.Background(), "k"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore[int](0)
	ctx := context.Background()
	store.Set(ctx, "standings:waba", 1)
	store.Set(ctx, "standings:waba-d2", 2)
	store.Set(ctx, "runs:20", 3)

	if removed := store.DeletePrefix(ctx, "standings:"); removed != 2 {
		t.Fatalf("removed %d keys, want 2", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one remaining key, got %d", store.Len())
	}
}

func TestStore_GetOrLoad_InvalidationDuringLoadIsNotCached(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	ctx := context.Background()
	key := "standings:league:waba:list"

	v, err := store.GetOrLoad(ctx, key, func(context.Context) (string, error) {
		// A replace lands while the read is still loading the old rows.
		store.DeletePrefix(ctx, "standings:league:waba:")
		return "old rows", nil
	})
	if err != nil || v != "old rows" {
		t.Fatalf("GetOrLoad = %q, %v", v, err)
	}
	if _, ok := store.Get(ctx, key); ok {
		t.Fatalf("expected value loaded across an invalidation to stay uncached")
	}

	v, err = store.GetOrLoad(ctx, key, func(context.Context) (string, error) { return "new rows", nil })
	if err != nil || v != "new rows" {
		t.Fatalf("GetOrLoad after replace = %q, %v", v, err)
	}
	if cached, ok := store.Get(ctx, key); !ok || cached != "new rows" {
		t.Fatalf("expected fresh rows cached, got %q ok=%v", cached, ok)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
