package loader

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingLoader returns a distinct 1x1 image per call and counts calls per
// source.
type countingLoader struct {
	mu    sync.Mutex
	calls map[string]int
	fail  bool
	gate  chan struct{}
}

func (l *countingLoader) Load(_ context.Context, src string) (image.Image, error) {
	if l.gate != nil {
		<-l.gate
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[src]++
	if l.fail {
		return nil, errors.New("fetch failed")
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (l *countingLoader) count(src string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[src]
}

func TestCacheHitAndMiss(t *testing.T) {
	next := &countingLoader{}
	c := NewCache(next, 4)
	ctx := context.Background()

	first, err := c.Load(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Load(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("cached load should return the same image")
	}
	if n := next.count("a"); n != 1 {
		t.Errorf("underlying loads = %d, want 1", n)
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Len != 1 || s.Capacity != 4 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	next := &countingLoader{}
	c := NewCache(next, 2)
	ctx := context.Background()

	for _, src := range []string{"a", "b", "a", "c"} {
		if _, err := c.Load(ctx, src); err != nil {
			t.Fatal(err)
		}
	}
	// "b" was least recently used when "c" arrived.
	if _, err := c.Load(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Load(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if n := next.count("a"); n != 1 {
		t.Errorf("a loaded %d times, want 1", n)
	}
	if n := next.count("b"); n != 2 {
		t.Errorf("b loaded %d times, want 2", n)
	}
	s := c.Stats()
	if s.Len != 2 || s.Evictions != 2 {
		t.Errorf("Stats() = %+v, want len 2 evictions 2", s)
	}
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	next := &countingLoader{fail: true}
	c := NewCache(next, 0)
	for i := 0; i < 2; i++ {
		if _, err := c.Load(context.Background(), "x"); err == nil {
			t.Fatal("Load() should fail")
		}
	}
	if n := next.count("x"); n != 2 {
		t.Errorf("underlying loads = %d, want 2", n)
	}
	if s := c.Stats(); s.Len != 0 || s.Capacity != DefaultCacheSize {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestCacheSharesConcurrentMisses(t *testing.T) {
	next := &countingLoader{gate: make(chan struct{})}
	c := NewCache(next, 4)

	const n = 8
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Load(context.Background(), "shared"); err != nil {
				failures.Add(1)
			}
		}()
	}
	// Let the goroutines reach the in-flight load before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(next.gate)
	wg.Wait()

	if failures.Load() != 0 {
		t.Errorf("%d loads failed", failures.Load())
	}
	// Late goroutines may miss the in-flight call but then hit the cache;
	// either way the source is fetched at most a few times, never n.
	if got := next.count("shared"); got < 1 || got >= n {
		t.Errorf("underlying loads = %d", got)
	}
}

func TestCacheForgetAndPurge(t *testing.T) {
	next := &countingLoader{}
	c := NewCache(next, 4)
	ctx := context.Background()
	for _, src := range []string{"a", "b"} {
		if _, err := c.Load(ctx, src); err != nil {
			t.Fatal(err)
		}
	}

	if !c.Forget("a") {
		t.Error("Forget(a) = false")
	}
	if c.Forget("a") {
		t.Error("second Forget(a) = true")
	}
	if _, err := c.Load(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if n := next.count("a"); n != 2 {
		t.Errorf("a loaded %d times after Forget, want 2", n)
	}

	c.Purge()
	if s := c.Stats(); s.Len != 0 {
		t.Errorf("Len after Purge = %d", s.Len)
	}
	if _, err := c.Load(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if n := next.count("b"); n != 2 {
		t.Errorf("b loaded %d times after Purge, want 2", n)
	}
}

func TestLRUList(t *testing.T) {
	var l lruList
	a := l.pushFront("a", nil)
	b := l.pushFront("b", nil)
	c := l.pushFront("c", nil)
	if l.head != c || l.tail != a {
		t.Fatalf("order head=%s tail=%s", l.head.src, l.tail.src)
	}

	l.moveToFront(a)
	if l.head != a || l.tail != b {
		t.Errorf("after moveToFront(a) head=%s tail=%s", l.head.src, l.tail.src)
	}

	l.remove(c)
	if a.next != b || b.prev != a || c.prev != nil || c.next != nil {
		t.Error("remove(c) left dangling links")
	}
	l.remove(a)
	l.remove(b)
	if l.head != nil || l.tail != nil {
		t.Error("list should be empty")
	}
}
