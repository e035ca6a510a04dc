package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

// TestLRUCacheEviction tests size-based eviction
func TestLRUCacheEviction(t *testing.T) {
	cache, _ := newTestCache(3, time.Hour)

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")
	cache.Set("key3", "value3")
	cache.Set("key4", "value4") // evicts key1

	if _, found := cache.Get("key1"); found {
		t.Error("key1 should have been evicted")
	}
	for _, k := range []string{"key2", "key3", "key4"} {
		if _, found := cache.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if s := cache.Stats(); s.Evictions != 1 || s.Size != 3 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestLRUCacheRecencyProtects(t *testing.T) {
	cache, _ := newTestCache(2, time.Hour)
	cache.Set("a", "1")
	cache.Set("b", "2")
	cache.Get("a")
	cache.Set("c", "3") // evicts b, not a

	if _, ok := cache.Get("a"); !ok {
		t.Error("recently used key evicted")
	}
	if _, ok := cache.Get("b"); ok {
		t.Error("least recently used key kept")
	}
}

func TestLRUCacheTTL(t *testing.T) {
	cache, clock := newTestCache(10, time.Minute)
	cache.Set("a", "1")
	cache.Set("b", "2")

	clock.t = clock.t.Add(30 * time.Second)
	if v, ok := cache.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit before expiry, got %q %v", v, ok)
	}

	clock.t = clock.t.Add(time.Minute)
	if _, ok := cache.Get("a"); ok {
		t.Fatal("expected miss after expiry")
	}
	if n := cache.CleanExpired(); n != 1 {
		t.Fatalf("expected b to be cleaned, got %d", n)
	}
	if cache.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Size())
	}
	s := cache.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestLRUCacheZeroTTLNeverExpires(t *testing.T) {
	cache, clock := newTestCache(2, 0)
	cache.Set("a", "1")
	clock.t = clock.t.Add(24 * time.Hour)
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("zero TTL entry expired")
	}
	if cache.CleanExpired() != 0 {
		t.Fatal("zero TTL entry cleaned")
	}
}

func TestLRUCacheDeletePrefixAndPurge(t *testing.T) {
	cache, _ := newTestCache(10, time.Hour)
	cache.Set("report:2024-03", "x")
	cache.Set("report:2024-03:view", "y")
	cache.Set("report:2024-04", "z")

	if n := cache.DeletePrefix("report:2024-03"); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := cache.Get("report:2024-04"); !ok {
		t.Fatal("unrelated key removed")
	}
	cache.Purge()
	if cache.Size() != 0 {
		t.Fatal("purge left entries")
	}
	cache.Set("again", "1")
	if cache.Size() != 1 {
		t.Fatal("cache unusable after purge")
	}
}

func TestLRUCacheConcurrentAccess(t *testing.T) {
	cache := NewLRUCache[int](16, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*i)%32)
				cache.Set(key, i)
				cache.Get(key)
				if i%50 == 0 {
					cache.DeletePrefix("k1")
				}
			}
		}(g)
	}
	wg.Wait()
	if cache.Size() > 16 {
		t.Fatalf("cache exceeded capacity: %d", cache.Size())
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	a, clock := newTestCache(4, time.Minute)
	b := NewLRUCache[int](4, time.Hour)
	a.Set("x", "1")
	b.Set("y", 2)

	m := NewManager(nil)
	m.Register(a)
	m.Register(b)

	clock.t = clock.t.Add(2 * time.Minute)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}

	m.StartCleanup(10 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without StartCleanup")
	}
}
