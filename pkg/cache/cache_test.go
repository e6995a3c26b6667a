package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.URLKey("npm", "react"); got != "url:npm:react" {
		t.Errorf("URLKey = %q", got)
	}
	if got := k.HTTPKey("pypi", "requests"); got != "http:pypi:requests" {
		t.Errorf("HTTPKey = %q", got)
	}
}

func TestScopedKeyer(t *testing.T) {
	k := NewScopedKeyer(nil, "staging:")
	if got := k.URLKey("go", "golang.org/x/mod"); got != "staging:url:go:golang.org/x/mod" {
		t.Errorf("URLKey = %q", got)
	}
	if got := k.HTTPKey("npm", "a"); got != "staging:http:npm:a" {
		t.Errorf("HTTPKey = %q", got)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "url:npm:react", []byte("https://github.com/facebook/react"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "url:npm:react")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v", hit, err)
	}
	if !bytes.Equal(data, []byte("https://github.com/facebook/react")) {
		t.Errorf("Get = %q", data)
	}

	if err := c.Delete(ctx, "url:npm:react"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "url:npm:react"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "url:npm:react"); err != nil {
		t.Errorf("Delete of missing key should succeed, got %v", err)
	}
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
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should be a miss")
	}

	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v err %v, want miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entries should be gone after Clear")
	}
	if c.Dir() != dir {
		t.Errorf("Dir = %q, want %q", c.Dir(), dir)
	}
}

func TestFileCacheConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "shared", []byte("same-value"), 0)
		}()
	}
	wg.Wait()

	data, hit, err := c.Get(ctx, "shared")
	if err != nil || !hit || string(data) != "same-value" {
		t.Errorf("Get = %q hit %v err %v", data, hit, err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(c.path("shared")), ".entry-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	buf := []byte("one")
	_ = c.Set(ctx, "1", buf, 0)
	buf[0] = 'X'
	data, hit, _ := c.Get(ctx, "1")
	if !hit || string(data) != "one" {
		t.Errorf("Get(1) = %q hit %v, want stored copy", data, hit)
	}

	_ = c.Set(ctx, "2", []byte("two"), 0)
	// Touch "1" so that "2" becomes the least recently used entry.
	if _, hit, _ := c.Get(ctx, "1"); !hit {
		t.Fatal("Get(1) missed before eviction")
	}
	_ = c.Set(ctx, "3", []byte("three"), 0)
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "2"); hit {
		t.Error("least recently used entry should be evicted")
	}
	if _, hit, _ := c.Get(ctx, "1"); !hit {
		t.Error("recently used entry should survive eviction")
	}

	_ = c.Set(ctx, "short", []byte("x"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should be a miss")
	}

	_ = c.Delete(ctx, "3")
	if _, hit, _ := c.Get(ctx, "3"); hit {
		t.Error("deleted entry should be a miss")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, OpenOptions{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(default) error: %v", err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("Open(default) = %T, want *FileCache", c)
	}

	c, err = Open(ctx, OpenOptions{Kind: "MEMORY"})
	if err != nil {
		t.Fatalf("Open(memory) error: %v", err)
	}
	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("Open(memory) = %T", c)
	}

	c, err = Open(ctx, OpenOptions{Kind: "none"})
	if err != nil {
		t.Fatalf("Open(none) error: %v", err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("Open(none) = %T", c)
	}

	if _, err := Open(ctx, OpenOptions{Kind: "memcached"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(memcached) error = %v, want ErrUnknownBackend", err)
	}
	if _, err := Open(ctx, OpenOptions{Kind: "redis"}); err == nil {
		t.Error("Open(redis) without url should fail")
	}
	if _, err := Open(ctx, OpenOptions{Kind: "file"}); err == nil {
		t.Error("Open(file) without dir should fail")
	}
}
