package fetchcache

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCachePutGet(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t, time.Hour)

	const url = "https://example.com/page/1/"
	body := []byte("<html>page one</html>")

	if _, ok, err := c.Get(ctx, url); err != nil || ok {
		t.Fatalf("Get before Put = ok %v, err %v; want miss", ok, err)
	}

	if err := c.Put(ctx, url, body); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, ok, err := c.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() missed after Put")
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Get() = %q, want %q", got, body)
	}
}

func TestCachePutReplaces(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t, time.Hour)

	const url = "https://example.com/page/1/"
	if err := c.Put(ctx, url, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, url, []byte("new")); err != nil {
		t.Fatal(err)
	}

	got, ok, _ := c.Get(ctx, url)
	if !ok || string(got) != "new" {
		t.Errorf("Get() = %q, ok %v; want %q", got, ok, "new")
	}
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t, time.Hour)

	now := time.Now()
	c.now = func() time.Time { return now }

	const url = "https://example.com/page/1/"
	if err := c.Put(ctx, url, []byte("stale soon")); err != nil {
		t.Fatal(err)
	}

	c.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, ok, err := c.Get(ctx, url); err != nil || ok {
		t.Errorf("Get after expiry = ok %v, err %v; want miss", ok, err)
	}
}

func TestCachePurge(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t, time.Hour)

	now := time.Now()
	c.now = func() time.Time { return now }
	if err := c.Put(ctx, "https://example.com/old", []byte("old")); err != nil {
		t.Fatal(err)
	}

	c.now = func() time.Time { return now.Add(3 * time.Hour) }
	if err := c.Put(ctx, "https://example.com/new", []byte("new")); err != nil {
		t.Fatal(err)
	}

	dropped, err := c.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge() error: %v", err)
	}
	if dropped != 1 {
		t.Errorf("Purge() dropped %d, want 1", dropped)
	}

	if _, ok, _ := c.Get(ctx, "https://example.com/new"); !ok {
		t.Error("fresh entry was purged")
	}
}

func TestHashURLStable(t *testing.T) {
	a := hashURL("https://example.com/page/1/")
	b := hashURL("https://example.com/page/1/")
	if a != b {
		t.Errorf("hashURL not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("hashURL length = %d, want 64 hex chars", len(a))
	}
}
