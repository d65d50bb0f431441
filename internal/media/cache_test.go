package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// mockResolver counts calls and can block until released.
type mockResolver struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}

	mu     sync.Mutex
	result Resolved
	err    error
}

func newMockResolver(result Resolved, err error) *mockResolver {
	return &mockResolver{result: result, err: err}
}

func (m *mockResolver) Resolve(_ context.Context, _ string) (Resolved, error) {
	m.calls.Add(1)
	if m.started != nil {
		select {
		case m.started <- struct{}{}:
		default:
		}
	}
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result, m.err
}

func (m *mockResolver) set(result Resolved, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
	m.err = err
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestCacheRequestMemoises(t *testing.T) {
	res := newMockResolver(Resolved{Path: "/tmp/a.mp4"}, nil)
	c := NewCache(res, nil)

	for i := 0; i < 3; i++ {
		path, ok := c.Request(context.Background(), "comp-1", "a.mp4", false)
		if !ok || path != "/tmp/a.mp4" {
			t.Fatalf("Request() = %q, %v; want /tmp/a.mp4, true", path, ok)
		}
	}
	if got := res.calls.Load(); got != 1 {
		t.Errorf("resolver calls = %d, want 1", got)
	}
}

func TestCacheConcurrentRequestsShareResolution(t *testing.T) {
	res := newMockResolver(Resolved{Path: "/tmp/b.mp4"}, nil)
	res.started = make(chan struct{}, 1)
	res.release = make(chan struct{})
	c := NewCache(res, nil)

	var wg sync.WaitGroup
	results := make([]string, 2)
	oks := make([]bool, 2)
	for i, comp := range []string{"comp-1", "comp-2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], oks[i] = c.Request(context.Background(), comp, "b.mp4", false)
		}()
	}

	<-res.started
	time.Sleep(20 * time.Millisecond)
	close(res.release)
	wg.Wait()

	for i := range results {
		if !oks[i] || results[i] != "/tmp/b.mp4" {
			t.Errorf("caller %d got %q, %v", i, results[i], oks[i])
		}
	}
	if got := res.calls.Load(); got != 1 {
		t.Errorf("resolver calls = %d, want 1", got)
	}

	entries := c.Entries()
	if len(entries) != 1 || len(entries[0].Requesters) != 2 {
		t.Errorf("Entries() = %+v, want one entry with two requesters", entries)
	}
}

func TestCacheFailureIsNotCached(t *testing.T) {
	res := newMockResolver(Resolved{}, errors.New("boom"))
	c := NewCache(res, nil)

	if _, ok := c.Request(context.Background(), "comp-1", "bad.mp4", false); ok {
		t.Fatal("Request() ok = true, want false")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failure, want 0", c.Len())
	}

	res.set(Resolved{Path: "/tmp/good.mp4"}, nil)
	path, ok := c.Request(context.Background(), "comp-1", "bad.mp4", false)
	if !ok || path != "/tmp/good.mp4" {
		t.Errorf("retry = %q, %v; want /tmp/good.mp4, true", path, ok)
	}
	if got := res.calls.Load(); got != 2 {
		t.Errorf("resolver calls = %d, want 2", got)
	}
}

func TestCacheConcurrentFailureReachesAllCallers(t *testing.T) {
	res := newMockResolver(Resolved{}, errors.New("boom"))
	res.started = make(chan struct{}, 1)
	res.release = make(chan struct{})
	c := NewCache(res, nil)

	var wg sync.WaitGroup
	var okCount atomic.Int32
	for _, comp := range []string{"comp-1", "comp-2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.Request(context.Background(), comp, "x.mp4", false); ok {
				okCount.Add(1)
			}
		}()
	}
	<-res.started
	time.Sleep(20 * time.Millisecond)
	close(res.release)
	wg.Wait()

	if okCount.Load() != 0 {
		t.Errorf("%d callers saw success, want 0", okCount.Load())
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCacheNoCacheRetiresOwnedFileUntilRelease(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.bin")
	second := filepath.Join(dir, "second.bin")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	res := newMockResolver(Resolved{Path: first, Owned: true}, nil)
	c := NewCache(res, nil)
	if _, ok := c.Request(context.Background(), "comp-1", "src", false); !ok {
		t.Fatal("first Request failed")
	}

	res.set(Resolved{Path: second, Owned: true}, nil)
	path, ok := c.Request(context.Background(), "comp-1", "src", true)
	if !ok || path != second {
		t.Fatalf("noCache Request = %q, %v; want %q", path, ok, second)
	}
	if _, err := os.Stat(first); err != nil {
		t.Fatalf("old file removed while comp-1 may still show it: %v", err)
	}

	c.Release("comp-1")
	for _, p := range []string{first, second} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s not removed on release: %v", filepath.Base(p), err)
		}
	}
}

func TestCacheRefreshKeepsFileHeldByOtherComponent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.bin")
	second := filepath.Join(dir, "second.bin")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	res := newMockResolver(Resolved{Path: first, Owned: true}, nil)
	c := NewCache(res, nil)
	if path, ok := c.Request(context.Background(), "comp-a", "src", false); !ok || path != first {
		t.Fatalf("comp-a Request = %q, %v", path, ok)
	}

	res.set(Resolved{Path: second, Owned: true}, nil)
	if path, ok := c.Request(context.Background(), "comp-b", "src", true); !ok || path != second {
		t.Fatalf("comp-b noCache Request = %q, %v", path, ok)
	}
	if _, err := os.Stat(first); err != nil {
		t.Fatalf("file still held by comp-a was removed: %v", err)
	}

	if n := c.Release("comp-a"); n != 0 {
		t.Errorf("Release(comp-a) evicted %d, want 0", n)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Errorf("superseded file survived its last holder: %v", err)
	}
	if _, err := os.Stat(second); err != nil {
		t.Errorf("file held by comp-b removed: %v", err)
	}
}

func TestCacheRelease(t *testing.T) {
	dir := t.TempDir()
	owned := filepath.Join(dir, "owned.bin")
	if err := os.WriteFile(owned, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	res := newMockResolver(Resolved{Path: owned, Owned: true}, nil)
	c := NewCache(res, nil)
	c.Request(context.Background(), "comp-1", "src", false)
	c.Request(context.Background(), "comp-2", "src", false)

	if n := c.Release("comp-1"); n != 0 {
		t.Errorf("Release(comp-1) evicted %d, want 0", n)
	}
	if _, err := os.Stat(owned); err != nil {
		t.Errorf("file removed while still referenced: %v", err)
	}
	if n := c.Release("comp-2"); n != 1 {
		t.Errorf("Release(comp-2) evicted %d, want 1", n)
	}
	if _, err := os.Stat(owned); !os.IsNotExist(err) {
		t.Errorf("owned file not removed: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCacheReleaseKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "local.bin")
	if err := os.WriteFile(local, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	c := NewCache(newMockResolver(Resolved{Path: local}, nil), nil)
	c.Request(context.Background(), "comp-1", "src", false)
	c.Release("comp-1")

	if _, err := os.Stat(local); err != nil {
		t.Errorf("local file removed: %v", err)
	}
}

func TestCacheEmptySource(t *testing.T) {
	res := newMockResolver(Resolved{Path: "/x"}, nil)
	c := NewCache(res, nil)
	if _, ok := c.Request(context.Background(), "comp-1", "", false); ok {
		t.Error("Request(\"\") ok = true, want false")
	}
	if res.calls.Load() != 0 {
		t.Error("resolver called for empty source")
	}
}
