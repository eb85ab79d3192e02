package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, 0)
	var evicted []string
	c.OnEvict(func(k string) { evicted = append(evicted, k) })

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a missing")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v", evicted)
	}
	keys := c.Keys()
	if len(keys) != 2 || keys[0] != "c" || keys[1] != "a" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	c := NewLRU[string](4, 0)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	c.Set("k", "v")
	c.now = func() time.Time { return base.Add(24 * 365 * time.Hour) }
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("entry expired without a ttl")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("cleaned %d entries", n)
	}
}

func TestLRUTTL(t *testing.T) {
	c := NewLRU[string](4, time.Minute)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	c.Set("old", "1")
	c.now = func() time.Time { return base.Add(45 * time.Second) }
	c.Set("new", "2")

	c.now = func() time.Time { return base.Add(90 * time.Second) }
	j := NewJanitor(time.Hour, c)
	if n := j.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, ok := c.Get("old"); ok {
		t.Fatalf("old should be gone")
	}
	if _, ok := c.Get("new"); !ok {
		t.Fatalf("new should survive")
	}
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c := NewLRU[int](0, 0)
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 || c.Size() != 1 {
		t.Fatalf("overwrite failed: %d size %d", v, c.Size())
	}
	c.Delete("a")
	if c.Size() != 0 {
		t.Fatalf("delete failed")
	}
	c.Set("b", 1)
	c.Purge()
	if c.Size() != 0 || len(c.Keys()) != 0 {
		t.Fatalf("purge failed")
	}
}
