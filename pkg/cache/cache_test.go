package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit=%v err=%v, want miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("value"), TTLGraph); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get = hit=%v err=%v, want hit", hit, err)
	}
	if string(data) != "value" {
		t.Errorf("data = %q, want %q", data, "value")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete = hit, want miss")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "expiring", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "expiring"); hit {
		t.Error("expired entry still hits")
	}

	// Zero TTL stores without expiry metadata.
	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero-TTL entry expired")
	}
}

func TestFileCacheNamespaceLayout(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	k := NewDefaultKeyer()
	if err := c.Set(ctx, k.GraphKey("h", GraphKeyOpts{}), []byte("g"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "ad-hoc", []byte("m"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	for _, ns := range []string{"graph", "misc"} {
		matches, err := filepath.Glob(filepath.Join(dir, ns, "*", "*.json"))
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 1 {
			t.Errorf("namespace %s holds %d entries, want 1", ns, len(matches))
		}
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "misc", "*", "*.json"))
	if len(matches) != 1 {
		t.Fatalf("entries = %d, want 1", len(matches))
	}
	if err := os.WriteFile(matches[0], []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("Get(corrupt) = hit=%v err=%v, want clean miss", hit, err)
	}
	if _, err := os.Stat(matches[0]); !os.IsNotExist(err) {
		t.Error("corrupt entry was not removed")
	}
}

func TestFileCacheDeleteMissing(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Delete(context.Background(), "never-set"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), TTLTree); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("NullCache stored a value")
	}
}

func TestKeyerDistinctNamespaces(t *testing.T) {
	k := NewDefaultKeyer()

	keys := []string{
		k.TreeKey("route-1"),
		k.GraphKey("hash", GraphKeyOpts{}),
		k.GraphKey("hash", GraphKeyOpts{StockID: "s1"}),
		k.DiffKey("a", "b", DiffKeyOpts{Mode: "overlay"}),
		k.DiffKey("a", "b", DiffKeyOpts{Mode: "side-by-side"}),
		k.DiffKey("a", "b", DiffKeyOpts{Mode: "side-by-side", IsPrimary: true}),
		k.ArtifactKey("hash", "svg"),
		k.ArtifactKey("hash", "dot"),
	}

	seen := make(map[string]int)
	for i, key := range keys {
		if prev, dup := seen[key]; dup {
			t.Errorf("keys %d and %d collide: %s", prev, i, key)
		}
		seen[key] = i
	}
}

func TestKeyerDeterministic(t *testing.T) {
	k := NewDefaultKeyer()
	a := k.GraphKey("h", GraphKeyOpts{StockID: "s", Prefix: "p-"})
	b := k.GraphKey("h", GraphKeyOpts{StockID: "s", Prefix: "p-"})
	if a != b {
		t.Errorf("same inputs produced different keys: %s vs %s", a, b)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "bench:x:")

	key := scoped.TreeKey("r1")
	if !strings.HasPrefix(key, "bench:x:") {
		t.Errorf("key %q missing scope prefix", key)
	}
	if strings.TrimPrefix(key, "bench:x:") != inner.TreeKey("r1") {
		t.Error("scoped key does not wrap the inner key")
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrUnavailable)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should unwrap to the original")
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoffNonRetryable(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("fatal")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (non-retryable)", calls)
	}
}

func TestRetryWithBackoffSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("err=%v calls=%d, want nil/1", err, calls)
	}
}

// flakyCache fails the first failures calls to Get with the given error,
// then serves a fixed value.
type flakyCache struct {
	NullCache
	failures int
	calls    int
	err      error
}

func (c *flakyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, false, c.err
	}
	return []byte("ok"), true, nil
}

func TestRetryingCacheRetriesTransient(t *testing.T) {
	prev := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = prev }()

	flaky := &flakyCache{failures: 2, err: Retryable(ErrUnavailable)}
	c := withRetry(flaky)

	data, hit, err := c.Get(context.Background(), "k")
	if err != nil || !hit || string(data) != "ok" {
		t.Fatalf("Get = %q hit=%v err=%v, want ok after retries", data, hit, err)
	}
	if flaky.calls != 3 {
		t.Errorf("backend called %d times, want 3", flaky.calls)
	}
}

func TestRetryingCacheNonRetryablePassesThrough(t *testing.T) {
	flaky := &flakyCache{failures: 1, err: errors.New("bad payload")}
	c := withRetry(flaky)

	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
	if flaky.calls != 1 {
		t.Errorf("backend called %d times, want 1 (no retry)", flaky.calls)
	}
}

func TestHashStable(t *testing.T) {
	if Hash([]byte("abc")) != Hash([]byte("abc")) {
		t.Error("Hash is not deterministic")
	}
	if len(Hash([]byte("abc"))) != 64 {
		t.Errorf("Hash length = %d, want 64", len(Hash([]byte("abc"))))
	}
}
