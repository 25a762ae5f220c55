package matrixcache

import (
	"context"
	"testing"
	"time"

	"github.com/routingcore/routingcore/internal/cache"
)

func newMemoryBackend(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.New(&cache.Options{Backend: cache.BackendMemory, DefaultTTL: time.Minute, MaxEntries: 100})
	if err != nil {
		t.Fatalf("failed to create memory cache: %v", err)
	}
	return c
}

func TestLocationSetHash_OrderIndependent(t *testing.T) {
	a := LocationSetHash([]string{"x", "y", "z"})
	b := LocationSetHash([]string{"z", "x", "y"})
	if a != b {
		t.Errorf("expected hash to be order-independent, got %s vs %s", a, b)
	}

	c := LocationSetHash([]string{"x", "y"})
	if a == c {
		t.Error("expected different location sets to hash differently")
	}
}

func TestCache_SetAndGet(t *testing.T) {
	backend := newMemoryBackend(t)
	mc := New(backend, time.Minute)
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	distance := [][]float64{{0, 1, 2}, {1, 0, 3}, {2, 3, 0}}

	if err := mc.Set(ctx, ids, distance, nil, 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	entry, ok, err := mc.Get(ctx, ids, 0)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(entry.MatrixData) != 3 {
		t.Errorf("expected 3x3 matrix, got %d rows", len(entry.MatrixData))
	}
}

func TestCache_Miss(t *testing.T) {
	backend := newMemoryBackend(t)
	mc := New(backend, time.Minute)

	_, ok, err := mc.Get(context.Background(), []string{"unknown"}, 0)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("expected cache miss for unseen location set")
	}
}

func TestCache_Invalidate(t *testing.T) {
	backend := newMemoryBackend(t)
	mc := New(backend, time.Minute)
	ctx := context.Background()
	ids := []string{"a", "b"}

	_ = mc.Set(ctx, ids, [][]float64{{0, 1}, {1, 0}}, nil, 0)
	if err := mc.Invalidate(ctx, ids); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}

	_, ok, _ := mc.Get(ctx, ids, 0)
	if ok {
		t.Error("expected cache miss after invalidate")
	}
}
