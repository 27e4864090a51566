// Package pokecache is a bounded, time-to-live pruned cache from an integer id
// to a value, persisted as one document in local storage.
//
// Eviction keeps the most recently written entries, not the most recently
// read ones. Every read and write prunes expired entries first and then trims
// to capacity, so there is no background sweep.
package pokecache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/storage"
)

const (
	DefaultCapacity = 200
	DefaultTTL      = 30 * 24 * time.Hour
)

// Entry is an immutable cached value. StoredAt is in unix milliseconds.
type Entry[V any] struct {
	StoredAt int64 `json:"storedAt"`
	Value    V     `json:"value"`
}

type Options struct {
	Capacity int
	TTL      time.Duration
	Now      func() time.Time
}

type Cache[V any] struct {
	log      zerolog.Logger
	store    *storage.Store
	key      string
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu sync.Mutex
}

func New[V any](log zerolog.Logger, store *storage.Store, key string, opts Options) *Cache[V] {
	c := &Cache[V]{
		log:      log.With().Str("module", "pokecache").Logger(),
		store:    store,
		key:      key,
		capacity: opts.Capacity,
		ttl:      opts.TTL,
		now:      opts.Now,
	}
	if c.capacity <= 0 {
		c.capacity = DefaultCapacity
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Get returns the value cached for id, if any.
func (c *Cache[V]) Get(ctx context.Context, id int) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load(ctx)
	entry, ok := entries[id]
	if !ok {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Put stores value under id and persists the pruned result.
func (c *Cache[V]) Put(ctx context.Context, id int, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.prune(c.read(ctx))
	entries[id] = Entry[V]{StoredAt: c.now().UnixMilli(), Value: value}
	c.write(ctx, c.prune(entries))
}

// Keys returns the ids that are currently cached, ascending.
func (c *Cache[V]) Keys(ctx context.Context) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load(ctx)
	ids := make([]int, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// load reads and prunes, rewriting the document when pruning dropped entries.
func (c *Cache[V]) load(ctx context.Context) map[int]Entry[V] {
	raw := c.read(ctx)
	pruned := c.prune(raw)
	if len(pruned) != len(raw) {
		c.write(ctx, pruned)
	}
	return pruned
}

func (c *Cache[V]) read(ctx context.Context) map[int]Entry[V] {
	entries := storage.Read(ctx, c.store, c.key, map[int]Entry[V]{})
	if entries == nil {
		entries = map[int]Entry[V]{}
	}
	return entries
}

func (c *Cache[V]) write(ctx context.Context, entries map[int]Entry[V]) {
	if err := storage.Write(ctx, c.store, c.key, entries); err != nil {
		c.log.Debug().Err(err).Msg("cache write dropped")
	}
}

func (c *Cache[V]) prune(entries map[int]Entry[V]) map[int]Entry[V] {
	cutoff := c.now().Add(-c.ttl).UnixMilli()

	type kept struct {
		id    int
		entry Entry[V]
	}
	fresh := make([]kept, 0, len(entries))
	for id, e := range entries {
		if e.StoredAt <= 0 || e.StoredAt < cutoff {
			continue
		}
		fresh = append(fresh, kept{id: id, entry: e})
	}

	sort.Slice(fresh, func(i, j int) bool {
		if fresh[i].entry.StoredAt != fresh[j].entry.StoredAt {
			return fresh[i].entry.StoredAt > fresh[j].entry.StoredAt
		}
		return fresh[i].id < fresh[j].id
	})
	if len(fresh) > c.capacity {
		fresh = fresh[:c.capacity]
	}

	out := make(map[int]Entry[V], len(fresh))
	for _, k := range fresh {
		out[k.id] = k.entry
	}
	return out
}
