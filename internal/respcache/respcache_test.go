package respcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New(10, Hooks{})

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("products:list", []string{"a", "b"})
	v, ok := c.Get("products:list")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got := v.([]string); len(got) != 2 {
		t.Fatalf("unexpected cached value: %v", got)
	}
}

func TestLRUEviction(t *testing.T) {
	evicted := []string{}
	c := New(3, Hooks{OnEvict: func(key string) { evicted = append(evicted, key) }})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the oldest.
	c.Get("a")
	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to survive after being touched")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("unexpected evictions: %v", evicted)
	}
}

func TestDefaultCapacity(t *testing.T) {
	c := New(0, Hooks{})
	for i := 0; i < DefaultMaxEntries+5; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}
	size, _ := c.Stats()
	if size != DefaultMaxEntries {
		t.Fatalf("expected size %d, got %d", DefaultMaxEntries, size)
	}
}

func TestGetOrLoad(t *testing.T) {
	c := New(10, Hooks{})
	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return "loaded", nil
	}

	v, err := c.GetOrLoad(context.Background(), "k", loader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "loaded" {
		t.Fatalf("unexpected value: %v", v)
	}

	if _, err := c.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one loader call, got %d", calls)
	}
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	c := New(10, Hooks{})
	calls := 0
	failing := func(ctx context.Context) (any, error) {
		calls++
		return nil, errors.New("backend down")
	}

	if _, err := c.GetOrLoad(context.Background(), "k", failing); err == nil {
		t.Fatal("expected loader error")
	}
	if _, err := c.GetOrLoad(context.Background(), "k", failing); err == nil {
		t.Fatal("expected loader error on retry")
	}
	if calls != 2 {
		t.Fatalf("expected failed loads to not be cached, got %d calls", calls)
	}
}

func TestGetOrLoad_Concurrent(t *testing.T) {
	c := New(10, Hooks{})
	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", loader)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one collapsed loader call, got %d", got)
	}
	for i, v := range results {
		if v != "shared" {
			t.Fatalf("caller %d got %v", i, v)
		}
	}
}

func TestInvalidate(t *testing.T) {
	c := New(10, Hooks{})
	c.Set("products:list", 1)
	c.Invalidate("products:list")
	if _, ok := c.Get("products:list"); ok {
		t.Fatal("expected key gone after Invalidate")
	}

	// Invalidating an absent key is a no-op.
	c.Invalidate("never-stored")
}

func TestInvalidateByPattern(t *testing.T) {
	c := New(10, Hooks{})
	c.Set("products:list:page=1", 1)
	c.Set("products:list:page=2", 2)
	c.Set("products:item:5", 3)
	c.Set("categories:list", 4)

	removed := c.InvalidateByPattern("products:")
	if removed != 3 {
		t.Fatalf("expected 3 removals, got %d", removed)
	}
	if _, ok := c.Get("categories:list"); !ok {
		t.Fatal("expected unrelated key to survive")
	}
	size, _ := c.Stats()
	if size != 1 {
		t.Fatalf("expected 1 entry left, got %d", size)
	}
}

func TestClear(t *testing.T) {
	c := New(10, Hooks{})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	size, keys := c.Stats()
	if size != 0 || len(keys) != 0 {
		t.Fatalf("expected empty cache, got size=%d keys=%v", size, keys)
	}
}

func TestHooksCounting(t *testing.T) {
	var hits, misses, stores int
	c := New(10, Hooks{
		OnHit:   func(string) { hits++ },
		OnMiss:  func(string) { misses++ },
		OnStore: func(string) { stores++ },
	})

	c.Get("a")
	c.Set("a", 1)
	c.Get("a")

	if hits != 1 || misses != 1 || stores != 1 {
		t.Fatalf("hits=%d misses=%d stores=%d", hits, misses, stores)
	}
}
