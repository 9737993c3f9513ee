package cache

import (
	"sync"
	"testing"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](3)

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get of a missing key should report false")
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should have survived eviction")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d; want 2", c.Len())
	}
}

func TestCache_GetOrSetComputesOnce(t *testing.T) {
	c := New[string, int](4)

	computed := 0
	for i := 0; i < 3; i++ {
		v := c.GetOrSet("key", func() int {
			computed++
			return 42
		})
		if v != 42 {
			t.Errorf("GetOrSet = %d; want 42", v)
		}
	}
	if computed != 1 {
		t.Errorf("compute count = %d; want 1", computed)
	}
}

func TestCache_Update(t *testing.T) {
	c := New[string, int](2)

	c.Set("a", 1)
	c.Set("a", 10)

	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) = %d; want 10", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d; want 1", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](2)

	c.Set("a", 1)
	c.Delete("a")
	c.Delete("never-existed")

	if _, ok := c.Get("a"); ok {
		t.Error("Get after Delete should report false")
	}
}

func TestCache_Stats(t *testing.T) {
	c := New[string, int](2)

	c.Set("a", 1)
	c.Get("a")
	c.Get("b")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats = %+v; want 1 hit, 1 miss", s)
	}
	if s.Size != 1 || s.Capacity != 2 {
		t.Errorf("Stats = %+v; want size 1, capacity 2", s)
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int, int](32)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(j%16, n)
				c.Get(j % 16)
				c.GetOrSet(j%16, func() int { return n })
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 16 {
		t.Errorf("Len = %d; want at most 16", c.Len())
	}
}
