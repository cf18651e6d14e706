package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

// newTestRedisStore connects to a local Redis or skips the test.
// Note: these tests require a Redis instance on localhost:6379.
// Skip with: go test -short
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Redis integration test")
	}

	s := NewRedisStore(RedisConfig{
		Addr: "localhost:6379",
		DB:   15, // Use separate DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		t.Skip("Redis not available:", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("failed to clear test keys: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Clear(context.Background())
		_ = s.Close()
	})

	return s
}

func TestRedisStore_Increment(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx, "it:inc:1", time.Minute)
		if err != nil {
			t.Fatalf("Increment() error: %v", err)
		}
		if got != want {
			t.Errorf("Increment() = %d, want %d", got, want)
		}
	}
}

func TestRedisStore_TTLSetOnCreate(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := s.Increment(ctx, "it:ttl:1", 2*time.Second); err != nil {
		t.Fatal(err)
	}

	ttl, err := s.client.TTL(ctx, keyPrefix+"it:ttl:1").Result()
	if err != nil {
		t.Fatalf("TTL lookup failed: %v", err)
	}
	if ttl <= 0 || ttl > 2*time.Second {
		t.Errorf("TTL = %v, want in (0, 2s]", ttl)
	}

	// A second increment must not refresh the expiry.
	time.Sleep(100 * time.Millisecond)
	if _, err := s.Increment(ctx, "it:ttl:1", 2*time.Second); err != nil {
		t.Fatal(err)
	}
	ttl2, err := s.client.TTL(ctx, keyPrefix+"it:ttl:1").Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl2 > ttl {
		t.Errorf("TTL refreshed by second increment: %v -> %v", ttl, ttl2)
	}
}

func TestRedisStore_ConcurrentIncrements(t *testing.T) {
	s := newTestRedisStore(t)

	const n = 50
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = make(map[int64]int, n)
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := s.Increment(ctx, "it:conc:1", time.Minute)
			if err != nil {
				t.Errorf("Increment() error: %v", err)
				return
			}
			mu.Lock()
			counts[count]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(counts) != n {
		t.Fatalf("observed %d distinct counts, want %d", len(counts), n)
	}
}
