package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/ruleviz/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	runContract(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned as hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed from disk")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, hit, err := c.Get(ctx, "k")
	if err != nil || hit {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCacheClearKeepsDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cache dir removed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
}

// runContract exercises the behavior every backend must share.
func runContract(t *testing.T, c interface {
	Cache
	Clearer
}) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "ast:missing"); err != nil || hit {
		t.Fatalf("Get(missing) hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "ast:one", []byte(`{"value":"A"}`), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := c.Set(ctx, "layout:two", []byte("layout"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "ast:one")
	if err != nil || !hit {
		t.Fatalf("Get(one) hit=%v err=%v", hit, err)
	}
	if string(data) != `{"value":"A"}` {
		t.Errorf("Get(one) = %q", data)
	}

	if err := c.Set(ctx, "ast:one", []byte("replaced"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if data, _, _ := c.Get(ctx, "ast:one"); string(data) != "replaced" {
		t.Errorf("overwrite: got %q", data)
	}

	if err := c.Delete(ctx, "ast:one"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "ast:one"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "ast:one"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:two"); hit {
		t.Error("entry still present after Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	ak := k.ASTKey("age > 30 and salary > 50000")
	if !strings.HasPrefix(ak, "ast:") || len(ak) != len("ast:")+64 {
		t.Errorf("ASTKey unexpected: %s", ak)
	}
	if k.ASTKey("  age > 30 and salary > 50000\n") != ak {
		t.Error("ASTKey should ignore surrounding whitespace")
	}
	if k.ASTKey("age > 31 and salary > 50000") == ak {
		t.Error("Different rules should produce different keys")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Width: 400, Height: 300})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Width: 800, Height: 300})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey unexpected: %s", lk1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "localhost:5000:")

	if key := scoped.ASTKey("x"); key != "localhost:5000:"+NewDefaultKeyer().ASTKey("x") {
		t.Errorf("ScopedKeyer ASTKey unexpected: %s", key)
	}
	if key := scoped.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(key, "localhost:5000:layout:") {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if key := scoped.ASTKey("x"); !strings.HasPrefix(key, "prefix:ast:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets map[string]int
}

func (h *countingHooks) OnCacheHit(_ context.Context, k string)        { h.hits[k]++ }
func (h *countingHooks) OnCacheMiss(_ context.Context, k string)       { h.misses[k]++ }
func (h *countingHooks) OnCacheSet(_ context.Context, k string, _ int) { h.sets[k]++ }

func TestInstrument(t *testing.T) {
	t.Cleanup(observability.Reset)
	hooks := &countingHooks{hits: map[string]int{}, misses: map[string]int{}, sets: map[string]int{}}
	observability.SetCacheHooks(hooks)

	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := Instrument(fc)
	k := NewScopedKeyer(nil, "svc:5000:")

	_, _, _ = c.Get(ctx, k.ASTKey("r"))
	_ = c.Set(ctx, k.ASTKey("r"), []byte("{}"), 0)
	_, _, _ = c.Get(ctx, k.ASTKey("r"))
	_, _, _ = c.Get(ctx, k.LayoutKey("h", LayoutKeyOpts{}))

	if hooks.misses["ast"] != 1 || hooks.hits["ast"] != 1 || hooks.sets["ast"] != 1 {
		t.Errorf("ast hooks = hits %d misses %d sets %d", hooks.hits["ast"], hooks.misses["ast"], hooks.sets["ast"])
	}
	if hooks.misses["layout"] != 1 {
		t.Errorf("layout misses = %d, want 1", hooks.misses["layout"])
	}

	cl, ok := c.(Clearer)
	if !ok {
		t.Fatal("instrumented cache should expose Clear")
	}
	if err := cl.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := fc.Get(ctx, k.ASTKey("r")); hit {
		t.Error("Clear not forwarded to wrapped cache")
	}
}

func TestKeyType(t *testing.T) {
	tests := map[string]string{
		"ast:abc":              "ast",
		"host:5000:layout:abc": "layout",
		"plain":                "unknown",
	}
	for key, want := range tests {
		if got := keyType(key); got != want {
			t.Errorf("keyType(%q) = %q, want %q", key, got, want)
		}
	}
}
