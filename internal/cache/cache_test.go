package cache

import (
	"context"
	"testing"
	"time"

	"sentinela/internal/kvstore"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCacheRoundTrip(t *testing.T) {
	store := kvstore.NewMemory()
	c := New[payload](store, kvstore.NamespaceNewsCache, time.Hour)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(ctx, "k", payload{Name: "x", Count: 3}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Name != "x" || got.Count != 3 {
		t.Errorf("unexpected value: %+v", got)
	}
}

func TestCacheSurvivesMemoryTierLoss(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()

	first := New[payload](store, kvstore.NamespaceNewsCache, time.Hour)
	if err := first.Set(ctx, "k", payload{Name: "durable"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// A fresh cache over the same store simulates a restart.
	second := New[payload](store, kvstore.NamespaceNewsCache, time.Hour)
	got, ok := second.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit from durable tier")
	}
	if got.Name != "durable" {
		t.Errorf("unexpected value: %+v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	store := kvstore.NewMemory()
	c := New[payload](store, kvstore.NamespaceNewsCache, 10*time.Millisecond)
	ctx := context.Background()

	if err := c.Set(ctx, "k", payload{Name: "x"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := store.Get(ctx, kvstore.NamespaceNewsCache, "k"); err == nil {
		t.Error("expired entry should be evicted from the durable tier")
	}
}

func TestCacheInvalidate(t *testing.T) {
	store := kvstore.NewMemory()
	c := New[payload](store, kvstore.NamespaceNewsCache, time.Hour)
	ctx := context.Background()

	c.Set(ctx, "k", payload{Name: "x"})
	c.Invalidate(ctx, "k")

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestKeyJoinsParts(t *testing.T) {
	if got := Key("news", "prefeito"); got != "news:prefeito" {
		t.Errorf("unexpected key: %s", got)
	}
}
