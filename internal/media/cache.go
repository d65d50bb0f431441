package media

import (
	"context"
	"os"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Logger defines the logging interface used by the Cache.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Resolved is the outcome of resolving a source.
type Resolved struct {
	// Path is the local file path.
	Path string

	// Owned is true when the resolver created the file and the cache may
	// delete it on eviction.
	Owned bool
}

// Resolver turns a source string into a local file.
type Resolver interface {
	Resolve(ctx context.Context, src string) (Resolved, error)
}

// Entry is a read-only view of one cache entry.
type Entry struct {
	Src        string   `json:"src"`
	Value      string   `json:"value,omitempty"`
	Pending    bool     `json:"pending"`
	Requesters []string `json:"requesters"`
}

type entry struct {
	value      string
	owned      bool
	pending    int
	requesters []string

	// adopted is the request sequence number that produced value.
	adopted uint64
}

// holdKey records that a component was given a path.
type holdKey struct {
	component string
	path      string
}

// Cache de-duplicates and memoises media resolution.
//
// Files the cache downloaded are deleted only once no component holds them.
// A component holds every path it was given until it is released, since
// each of its slots may still show an older file. A refresh or eviction
// retires the old file; it is removed when its last holder is released.
// Requests without a component id are not tracked as holders.
//
// All methods are safe for concurrent use.
type Cache struct {
	resolver Resolver
	logger   Logger
	group    singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64
	held    map[holdKey]struct{}
	retired map[string]struct{}
}

// NewCache creates a cache in front of a resolver.
func NewCache(resolver Resolver, logger Logger) *Cache {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Cache{
		resolver: resolver,
		logger:   logger,
		entries:  make(map[string]*entry),
		held:     make(map[holdKey]struct{}),
		retired:  make(map[string]struct{}),
	}
}

// Request resolves src on behalf of componentID.
//
// A settled entry is returned immediately unless noCache is set, in which
// case resolution runs again and the previous value stays visible to other
// callers until it completes. Concurrent requests for one source share a
// single resolution.
//
// Returns:
//   - string: local path of the resolved media
//   - bool: false if resolution failed; the entry is dropped so the next
//     request retries from scratch
func (c *Cache) Request(ctx context.Context, componentID, src string, noCache bool) (string, bool) {
	if src == "" {
		return "", false
	}

	c.mu.Lock()
	e, ok := c.entries[src]
	if !ok {
		e = &entry{}
		c.entries[src] = e
	}
	e.addRequester(componentID)
	if e.value != "" && !noCache {
		value := e.value
		c.hold(componentID, value)
		c.mu.Unlock()
		return value, true
	}
	e.pending++
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	// The shared resolution must outlive whichever caller started it.
	detached := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(src, func() (any, error) {
		return c.resolver.Resolve(detached, src)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	e.pending--

	if err != nil {
		if c.entries[src] == e {
			delete(c.entries, src)
			if e.owned {
				c.retire(e.value)
			}
			c.sweep()
		}
		c.logger.Warn("media resolution failed", "src", src, "component_id", componentID, "error", err)
		return "", false
	}

	// Released or replaced while in flight: settle into the live entry.
	if live, ok := c.entries[src]; ok {
		e = live
		e.addRequester(componentID)
	} else {
		c.entries[src] = e
	}

	res, _ := v.(Resolved) //nolint:errcheck // resolver always returns Resolved
	switch {
	case seq < e.adopted:
		// A later resolution already settled; keep its value.
		if res.Owned && res.Path != e.value {
			c.retire(res.Path)
		}
	case e.value != res.Path:
		if e.owned {
			c.retire(e.value)
		}
		e.value, e.owned, e.adopted = res.Path, res.Owned, seq
		delete(c.retired, res.Path)
	default:
		e.adopted = seq
	}
	c.hold(componentID, res.Path)

	if !shared {
		c.logger.Debug("media resolved", "src", src, "path", res.Path)
	}
	return res.Path, true
}

// Release removes componentID from every entry and evicts settled entries
// that no component references. Files downloaded by the cache are deleted
// once no other component holds them.
//
// Returns the number of evicted entries.
func (c *Cache) Release(componentID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.held {
		if k.component == componentID {
			delete(c.held, k)
		}
	}

	evicted := 0
	for src, e := range c.entries {
		e.requesters = slices.DeleteFunc(e.requesters, func(id string) bool { return id == componentID })
		if len(e.requesters) > 0 || e.pending > 0 {
			continue
		}
		delete(c.entries, src)
		if e.owned {
			c.retire(e.value)
		}
		evicted++
	}
	c.sweep()
	if evicted > 0 {
		c.logger.Debug("media entries evicted", "component_id", componentID, "count", evicted)
	}
	return evicted
}

func (e *entry) addRequester(componentID string) {
	if componentID != "" && !slices.Contains(e.requesters, componentID) {
		e.requesters = append(e.requesters, componentID)
	}
}

// hold records that componentID was given path. Caller holds c.mu.
func (c *Cache) hold(componentID, path string) {
	if componentID != "" {
		c.held[holdKey{componentID, path}] = struct{}{}
	}
}

// retire marks an owned file for deletion once nothing holds it.
func (c *Cache) retire(path string) {
	if path != "" {
		c.retired[path] = struct{}{}
	}
}

// sweep deletes retired files that are neither held nor the current value of
// an entry. Caller holds c.mu.
func (c *Cache) sweep() {
	if len(c.retired) == 0 {
		return
	}
	inUse := make(map[string]bool, len(c.held)+len(c.entries))
	for k := range c.held {
		inUse[k.path] = true
	}
	for _, e := range c.entries {
		inUse[e.value] = true
	}
	for p := range c.retired {
		if inUse[p] {
			continue
		}
		removeFile(p)
		delete(c.retired, p)
	}
}

// Entries returns a snapshot of the cache sorted by source.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.entries))
	for src, e := range c.entries {
		out = append(out, Entry{
			Src:        src,
			Value:      e.value,
			Pending:    e.pending > 0,
			Requesters: slices.Clone(e.requesters),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Src < out[j].Src })
	return out
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func removeFile(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path) //nolint:errcheck // best effort; a leftover temp file is harmless
}
