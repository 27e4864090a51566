// Package profile holds the player's persisted state: team, stats, logbook,
// favorites and preferences. Every mutation is written through to local
// storage; write failures are logged and otherwise ignored.
package profile

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/sfx"
	"github.com/varoOP/pokechu/internal/storage"
)

// CapturedAtLayout matches the millisecond ISO-8601 timestamps of stored captures.
const CapturedAtLayout = "2006-01-02T15:04:05.000Z"

type Profile struct {
	log   zerolog.Logger
	store *storage.Store
	now   func() time.Time

	mu          sync.Mutex
	captured    []domain.CapturedPokemon
	favorites   []int
	preferences domain.Preferences
	stats       domain.Stats
	pokedex     domain.Pokedex
	lastCapture time.Time
}

func New(ctx context.Context, log zerolog.Logger, store *storage.Store, now func() time.Time) *Profile {
	if now == nil {
		now = time.Now
	}
	p := &Profile{
		log:   log.With().Str("module", "profile").Logger(),
		store: store,
		now:   now,
	}
	p.Reload(ctx)
	return p
}

// Reload replaces the in-memory state with what is stored. An oversized team
// is trimmed and duplicate favorites are dropped.
func (p *Profile) Reload(ctx context.Context) {
	captured := storage.Read(ctx, p.store, storage.KeyCaptured, []domain.CapturedPokemon{})
	favorites := storage.Read(ctx, p.store, storage.KeyFavorites, []int{})
	preferences := storage.Read(ctx, p.store, storage.KeyPreferences, domain.DefaultPreferences())
	stats := storage.Read(ctx, p.store, storage.KeyStats, domain.Stats{})
	pokedex := storage.Read(ctx, p.store, storage.KeyPokedex, domain.Pokedex{})
	if pokedex == nil {
		pokedex = domain.Pokedex{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.captured = captured
	if len(p.captured) > domain.MaxTeamSize {
		p.captured = p.captured[:domain.MaxTeamSize]
		p.save(ctx, storage.KeyCaptured, p.captured)
	}

	p.favorites = dedupe(favorites)
	if len(p.favorites) != len(favorites) {
		p.save(ctx, storage.KeyFavorites, p.favorites)
	}

	p.preferences = preferences
	p.stats = stats
	p.pokedex = pokedex
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (p *Profile) save(ctx context.Context, key string, value any) {
	if err := storage.Write(context.WithoutCancel(ctx), p.store, key, value); err != nil {
		p.log.Debug().Err(err).Str("key", key).Msg("write failed")
	}
}

// Captured returns the team in capture order.
func (p *Profile) Captured() []domain.CapturedPokemon {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.captured)
}

func (p *Profile) TeamFull() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.captured) >= domain.MaxTeamSize
}

// TeamIDs is the set of species currently on the team.
func (p *Profile) TeamIDs() map[int]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make(map[int]bool, len(p.captured))
	for _, c := range p.captured {
		ids[c.ID] = true
	}
	return ids
}

// Capture appends a new team member, marks the species as captured in the
// logbook and counts the capture. CapturedAt is strictly increasing so that
// (ID, CapturedAt) stays unique.
func (p *Profile) Capture(ctx context.Context, pokemon domain.Pokemon, shiny bool) domain.CapturedPokemon {
	p.mu.Lock()
	defer p.mu.Unlock()

	at := p.now().UTC().Truncate(time.Millisecond)
	if !at.After(p.lastCapture) {
		at = p.lastCapture.Add(time.Millisecond)
	}
	p.lastCapture = at

	rec := domain.CapturedPokemon{
		ID:         pokemon.ID,
		Name:       pokemon.Name,
		Sprite:     pokemon.Sprite(shiny),
		Types:      slices.Clone(pokemon.Types),
		Shiny:      shiny,
		CapturedAt: at.Format(CapturedAtLayout),
	}
	if rec.Types == nil {
		rec.Types = []string{}
	}

	p.captured = append(p.captured, rec)
	p.save(ctx, storage.KeyCaptured, p.captured)

	if entry, ok := p.pokedex[pokemon.ID]; ok {
		entry.CapturedEver = true
		p.pokedex[pokemon.ID] = entry
		p.save(ctx, storage.KeyPokedex, p.pokedex)
	}

	p.stats.Captures++
	p.save(ctx, storage.KeyStats, p.stats)

	return rec
}

// Release removes the team member identified by (id, capturedAt) and counts
// the release in the logbook. It reports whether a member was removed.
func (p *Profile) Release(ctx context.Context, id int, capturedAt string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.captured)
	p.captured = slices.DeleteFunc(p.captured, func(c domain.CapturedPokemon) bool {
		return c.ID == id && c.CapturedAt == capturedAt
	})
	if len(p.captured) == n {
		return false
	}
	p.save(ctx, storage.KeyCaptured, p.captured)

	if entry, ok := p.pokedex[id]; ok {
		entry.ReleasedCount++
		p.pokedex[id] = entry
		p.save(ctx, storage.KeyPokedex, p.pokedex)
	}
	return true
}

// RecordEncounter counts one encounter of pokemon and ORs in shiny.
func (p *Profile) RecordEncounter(ctx context.Context, pokemon domain.Pokemon, shiny bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry := p.pokedex[pokemon.ID]
	entry.ID = pokemon.ID
	entry.Name = pokemon.Name
	entry.TimesEncountered++
	entry.ShinySeen = entry.ShinySeen || shiny
	p.pokedex[pokemon.ID] = entry

	p.save(ctx, storage.KeyPokedex, p.pokedex)
}

func (p *Profile) Pokedex() domain.Pokedex {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(domain.Pokedex, len(p.pokedex))
	for k, v := range p.pokedex {
		out[k] = v
	}
	return out
}

func (p *Profile) Stats() domain.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// UpdateStats applies f to the counters and persists the result.
func (p *Profile) UpdateStats(ctx context.Context, f func(*domain.Stats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f(&p.stats)
	p.save(ctx, storage.KeyStats, p.stats)
}

func (p *Profile) Favorites() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.favorites)
}

func (p *Profile) IsFavorite(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Contains(p.favorites, id)
}

// ToggleFavorite flips id in the favorites list and reports the new state.
func (p *Profile) ToggleFavorite(ctx context.Context, id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fav := !slices.Contains(p.favorites, id)
	if fav {
		p.favorites = append(p.favorites, id)
	} else {
		p.favorites = slices.DeleteFunc(p.favorites, func(f int) bool { return f == id })
	}
	p.save(ctx, storage.KeyFavorites, p.favorites)
	return fav
}

func (p *Profile) Preferences() domain.Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preferences
}

// UpdatePreferences applies f, clamps the volume and persists the result.
func (p *Profile) UpdatePreferences(ctx context.Context, f func(*domain.Preferences)) domain.Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	f(&p.preferences)
	p.preferences.SoundVolume = sfx.Clamp(p.preferences.SoundVolume)
	if p.preferences.Theme != domain.ThemeDark {
		p.preferences.Theme = domain.ThemeLight
	}
	p.save(ctx, storage.KeyPreferences, p.preferences)
	return p.preferences
}
