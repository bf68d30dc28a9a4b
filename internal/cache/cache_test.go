package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

type month struct{ income, expenses int }

func TestLRUCache_Eviction(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		capacity int
		touch    []string
		gone     []string
		kept     []string
	}{
		{
			name:     "reading a month keeps it over an older write",
			capacity: 2,
			touch:    []string{"u1:2024-04"},
			gone:     []string{"u1:2024-05"},
			kept:     []string{"u1:2024-04", "u1:2024-06"},
		},
		{
			name:     "untouched oldest month goes first",
			capacity: 2,
			gone:     []string{"u1:2024-04"},
			kept:     []string{"u1:2024-05", "u1:2024-06"},
		},
		{
			name:     "zero capacity still holds the latest month",
			capacity: 0,
			gone:     []string{"u1:2024-04", "u1:2024-05"},
			kept:     []string{"u1:2024-06"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewLRUCache[month](tc.capacity, time.Minute)
			c.Set(ctx, "u1:2024-04", month{income: 100})
			c.Set(ctx, "u1:2024-05", month{income: 200})
			for _, k := range tc.touch {
				c.Get(ctx, k)
			}
			c.Set(ctx, "u1:2024-06", month{income: 300})

			for _, k := range tc.gone {
				if _, ok := c.Get(ctx, k); ok {
					t.Errorf("%s should have been evicted", k)
				}
			}
			for _, k := range tc.kept {
				if _, ok := c.Get(ctx, k); !ok {
					t.Errorf("%s should still be cached", k)
				}
			}
			if c.Len() != len(tc.kept) {
				t.Errorf("len = %d, want %d", c.Len(), len(tc.kept))
			}
		})
	}
}

func TestLRUCache_SetRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	c := NewLRUCache[month](4, 30*time.Second)
	c.now = func() time.Time { return now }

	c.Set(ctx, "u1:2024-05", month{expenses: 10})
	now = now.Add(20 * time.Second)
	c.Set(ctx, "u1:2024-05", month{expenses: 15})
	now = now.Add(20 * time.Second)

	got, ok := c.Get(ctx, "u1:2024-05")
	if !ok || got.expenses != 15 {
		t.Fatalf("got %+v, %v; want the rewritten month", got, ok)
	}
}

func TestLRUCache_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	c := NewLRUCache[month](10, 30*time.Second)
	c.now = func() time.Time { return now }

	c.Set(ctx, "u1:2024-03", month{})
	c.Set(ctx, "u1:2024-04", month{})
	now = now.Add(25 * time.Second)
	c.Set(ctx, "u1:2024-05", month{})
	now = now.Add(10 * time.Second)

	if n := c.Sweep(); n != 2 {
		t.Errorf("Sweep removed %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
	if _, ok := c.Get(ctx, "u1:2024-05"); !ok {
		t.Error("fresh month was swept")
	}
}

func TestLRUCache_PurgeOnStoreChange(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[month](10, time.Minute)
	c.Set(ctx, "u1:2024-05", month{income: 1})
	c.Set(ctx, "u2:2024-05", month{income: 2})

	c.Delete(ctx, "u1:2024-05")
	if _, ok := c.Get(ctx, "u1:2024-05"); ok {
		t.Error("deleted month still cached")
	}
	c.Purge(ctx)
	if c.Len() != 0 {
		t.Errorf("len after purge = %d", c.Len())
	}
	c.Set(ctx, "u2:2024-05", month{income: 3})
	if got, _ := c.Get(ctx, "u2:2024-05"); got.income != 3 {
		t.Errorf("cache unusable after purge: %+v", got)
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
	m.Stop()
}

func TestRedisCache_Integration(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	type payload struct{ N int }
	c := NewRedisCache[payload](client, "carteira-test", time.Minute)
	c.Purge(ctx)
	c.Set(ctx, "x", payload{N: 7})
	if v, ok := c.Get(ctx, "x"); !ok || v.N != 7 {
		t.Fatalf("got %+v, %v", v, ok)
	}
	c.Purge(ctx)
	if _, ok := c.Get(ctx, "x"); ok {
		t.Error("expected miss after purge")
	}
}
