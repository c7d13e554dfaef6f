// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package cache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestLRU(capacity int, ttl time.Duration) (*LRU[int64, string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[int64, string](capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRU_BasicOperations(t *testing.T) {
	c, _ := newTestLRU(3, time.Minute)

	c.Add(1, "a")
	c.Add(2, "b")
	c.Add(3, "c")

	for key, want := range map[int64]string{1: "a", 2: "b", 3: "c"} {
		if got, found := c.Get(key); !found || got != want {
			t.Errorf("Get(%d) = %q, %v; want %q", key, got, found, want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Expected len 3, got %d", c.Len())
	}

	c.Add(2, "b2")
	if got, _ := c.Get(2); got != "b2" {
		t.Errorf("Get(2) after replace = %q", got)
	}
	if !c.Remove(2) || c.Remove(2) {
		t.Error("Remove should report presence exactly once")
	}
}

func TestLRU_Eviction(t *testing.T) {
	c, _ := newTestLRU(3, time.Minute)

	c.Add(1, "a")
	c.Add(2, "b")
	c.Add(3, "c")
	c.Get(1)
	c.Add(4, "d")

	if _, found := c.Get(2); found {
		t.Error("Expected 2 to be evicted")
	}
	for _, key := range []int64{1, 3, 4} {
		if _, found := c.Get(key); !found {
			t.Errorf("Expected %d to be present", key)
		}
	}
}

func TestLRU_TTL(t *testing.T) {
	c, clock := newTestLRU(10, time.Minute)

	c.Add(1, "a")
	c.Add(2, "b")
	clock.Advance(30 * time.Second)
	c.Add(2, "b")
	clock.Advance(45 * time.Second)

	if _, found := c.Get(1); found {
		t.Error("Expected 1 to expire")
	}
	if _, found := c.Get(2); !found {
		t.Error("re-added 2 should still be live")
	}

	clock.Advance(time.Minute)
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired removed %d, want 1", removed)
	}
	if c.Len() != 0 {
		t.Errorf("Len after cleanup = %d", c.Len())
	}
}

func TestLRU_Stats(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)
	c.Add(1, "a")
	c.Get(1)
	c.Get(9)

	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("Stats = %d/%d/%d, want 1/1/1", hits, misses, size)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int, int](50, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Add(g*1000+i, i)
				c.Get(g*1000 + i/2)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 50 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}
