package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](0)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "a", 1, time.Minute)

	v, ok := c.Get(ctx, "a")
	if !ok || v != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", v, ok)
	}

	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, string](0)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "short", "x", 10*time.Millisecond)
	c.Set(ctx, "forever", "y", 0)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "short"); ok {
		t.Error("expected expired entry to be hidden")
	}
	if v, ok := c.Get(ctx, "forever"); !ok || v != "y" {
		t.Errorf("expected entry without ttl to survive, got (%q, %v)", v, ok)
	}
}

func TestCache_JanitorEvicts(t *testing.T) {
	c := New[int, int](5 * time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, 1, 1, time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for c.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not evict expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](0)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "a", 1, 0)
	c.Delete(ctx, "a")

	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("expected deleted entry to be gone")
	}
}
