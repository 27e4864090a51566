package pokecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/storage"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(t *testing.T, capacity int) (*Cache[string], *storage.Memory, *clock) {
	t.Helper()
	mem := storage.NewMemory()
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](zerolog.Nop(), storage.New(zerolog.Nop(), mem), storage.KeyPokemonCache, Options{
		Capacity: capacity,
		Now:      clk.now,
	})
	return c, mem, clk
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache(t, 0)

	if _, ok := c.Get(ctx, 25); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Put(ctx, 25, "pikachu")
	if v, ok := c.Get(ctx, 25); !ok || v != "pikachu" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	c.Put(ctx, 25, "raichu")
	if v, _ := c.Get(ctx, 25); v != "raichu" {
		t.Errorf("re-put value = %q", v)
	}
}

func TestCapacityKeepsMostRecentlyWritten(t *testing.T) {
	ctx := context.Background()
	c, _, clk := newTestCache(t, 3)

	for id := 1; id <= 5; id++ {
		c.Put(ctx, id, "v")
		clk.advance(time.Second)
		if n := len(c.Keys(ctx)); n > 3 {
			t.Fatalf("after put %d cache holds %d entries", id, n)
		}
	}

	// Reading id 3 does not protect it: recency is by write, not by read.
	c.Get(ctx, 3)
	c.Put(ctx, 6, "v")

	got := c.Keys(ctx)
	want := []int{4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("Keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys = %v, want %v", got, want)
		}
	}
}

func TestExpiredEntriesAreNeverReturned(t *testing.T) {
	ctx := context.Background()
	c, _, clk := newTestCache(t, 0)

	c.Put(ctx, 1, "old")
	clk.advance(10 * 24 * time.Hour)
	c.Put(ctx, 2, "new")

	clk.advance(DefaultTTL - 10*24*time.Hour + time.Millisecond)
	if _, ok := c.Get(ctx, 1); ok {
		t.Error("entry older than the TTL was returned")
	}
	if _, ok := c.Get(ctx, 2); !ok {
		t.Error("fresh entry was dropped")
	}
	if keys := c.Keys(ctx); len(keys) != 1 || keys[0] != 2 {
		t.Errorf("Keys = %v", keys)
	}
}

func TestCorruptStateReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	c, mem, _ := newTestCache(t, 0)

	mem.Set(ctx, storage.KeyPokemonCache, "{{{")
	if _, ok := c.Get(ctx, 1); ok {
		t.Error("corrupt state produced a value")
	}

	c.Put(ctx, 1, "bulbasaur")
	if v, ok := c.Get(ctx, 1); !ok || v != "bulbasaur" {
		t.Errorf("Get after recovery = %q, %v", v, ok)
	}
}

func TestStorageFailureDegradesToAbsent(t *testing.T) {
	ctx := context.Background()
	c, mem, _ := newTestCache(t, 0)
	mem.Fail = errors.New("storage disabled")

	c.Put(ctx, 1, "bulbasaur")
	if _, ok := c.Get(ctx, 1); ok {
		t.Error("cache returned a value while storage is failing")
	}
	if keys := c.Keys(ctx); len(keys) != 0 {
		t.Errorf("Keys = %v", keys)
	}
}
