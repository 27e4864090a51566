package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/storage"
)

var (
	charmander = domain.Pokemon{ID: 4, Name: "charmander", Types: []string{"fire"}, Sprites: domain.Sprites{Default: "4.png", Shiny: "4s.png"}}
	charizard  = domain.Pokemon{ID: 6, Name: "charizard", Types: []string{"fire", "flying"}, Sprites: domain.Sprites{Default: "6.png"}}
	pikachu    = domain.Pokemon{ID: 25, Name: "pikachu", Types: []string{"electric"}, Sprites: domain.Sprites{Default: "25.png"}}
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func newProfile(t *testing.T, kv *storage.Memory) *Profile {
	t.Helper()
	return New(context.Background(), zerolog.Nop(), storage.New(zerolog.Nop(), kv), fixedClock())
}

func TestCaptureAndReleaseByIdentity(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	p := newProfile(t, kv)

	p.RecordEncounter(ctx, charizard, false)
	first := p.Capture(ctx, charizard, false)
	second := p.Capture(ctx, charizard, true)
	if first.CapturedAt == second.CapturedAt {
		t.Fatalf("captures share CapturedAt %s", first.CapturedAt)
	}
	if first.CapturedAt != "2024-05-01T12:00:00.000Z" {
		t.Errorf("CapturedAt = %s", first.CapturedAt)
	}
	if second.Sprite != "6.png" {
		t.Errorf("shiny capture without shiny sprite = %q, want default", second.Sprite)
	}

	if !p.Release(ctx, 6, first.CapturedAt) {
		t.Fatal("Release found nothing")
	}
	team := p.Captured()
	if len(team) != 1 || team[0].CapturedAt != second.CapturedAt {
		t.Fatalf("team after release = %+v", team)
	}
	if p.Release(ctx, 6, first.CapturedAt) {
		t.Error("second Release of the same pair removed something")
	}

	e := p.Pokedex()[6]
	if !e.CapturedEver || e.ReleasedCount != 1 || e.TimesEncountered != 1 {
		t.Errorf("logbook entry = %+v", e)
	}
	if s := p.Stats(); s.Captures != 2 {
		t.Errorf("captures = %d", s.Captures)
	}

	reloaded := newProfile(t, kv)
	if got := reloaded.Captured(); len(got) != 1 || got[0].CapturedAt != second.CapturedAt {
		t.Errorf("reloaded team = %+v", got)
	}
	if got := reloaded.Pokedex()[6]; got != e {
		t.Errorf("reloaded entry = %+v, want %+v", got, e)
	}
}

func TestRecordEncounterAccumulates(t *testing.T) {
	ctx := context.Background()
	p := newProfile(t, storage.NewMemory())

	p.RecordEncounter(ctx, pikachu, true)
	p.RecordEncounter(ctx, pikachu, false)

	e := p.Pokedex()[25]
	if e.TimesEncountered != 2 || !e.ShinySeen || e.Name != "pikachu" {
		t.Errorf("entry = %+v", e)
	}
}

func TestReloadRepairsState(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := storage.New(zerolog.Nop(), kv)

	team := make([]domain.CapturedPokemon, 8)
	for i := range team {
		team[i] = domain.CapturedPokemon{ID: i + 1, CapturedAt: "t"}
	}
	storage.Write(ctx, s, storage.KeyCaptured, team)
	storage.Write(ctx, s, storage.KeyFavorites, []int{4, 25, 4, 6, 25})
	kv.Set(ctx, storage.KeyPreferences, `{"theme":"dark"}`)
	kv.Set(ctx, storage.KeyStats, `not json`)

	p := newProfile(t, kv)
	if n := len(p.Captured()); n != domain.MaxTeamSize {
		t.Errorf("team size = %d", n)
	}
	if !p.TeamFull() {
		t.Error("TeamFull = false")
	}
	if got := p.Favorites(); len(got) != 3 || got[0] != 4 || got[1] != 25 || got[2] != 6 {
		t.Errorf("favorites = %v", got)
	}
	if pr := p.Preferences(); pr.Theme != domain.ThemeDark || !pr.SoundEnabled || pr.SoundVolume != 0.65 {
		t.Errorf("preferences = %+v", pr)
	}
	if st := p.Stats(); st != (domain.Stats{}) {
		t.Errorf("stats = %+v", st)
	}

	stored := storage.Read(ctx, s, storage.KeyFavorites, []int{})
	if len(stored) != 3 {
		t.Errorf("deduplicated favorites not written back: %v", stored)
	}
}

func TestFavoritesAndPreferences(t *testing.T) {
	ctx := context.Background()
	p := newProfile(t, storage.NewMemory())

	if !p.ToggleFavorite(ctx, 25) || !p.IsFavorite(25) {
		t.Fatal("toggle on failed")
	}
	if p.ToggleFavorite(ctx, 25) || p.IsFavorite(25) {
		t.Fatal("toggle off failed")
	}

	pr := p.UpdatePreferences(ctx, func(pr *domain.Preferences) {
		pr.SoundVolume = 3
		pr.Theme = "neon"
	})
	if pr.SoundVolume != 1 || pr.Theme != domain.ThemeLight {
		t.Errorf("preferences = %+v", pr)
	}
}

func TestStorageFailureIsInvisible(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	kv.Fail = errors.New("quota exceeded")
	p := newProfile(t, kv)

	p.RecordEncounter(ctx, pikachu, false)
	p.Capture(ctx, pikachu, false)
	p.UpdateStats(ctx, func(s *domain.Stats) { s.Throws++ })

	if len(p.Captured()) != 1 || p.Stats().Throws != 1 || p.Pokedex()[25].TimesEncountered != 1 {
		t.Error("in-memory state lost on storage failure")
	}
}

func TestLogbookFilters(t *testing.T) {
	ctx := context.Background()
	p := newProfile(t, storage.NewMemory())

	p.RecordEncounter(ctx, pikachu, false)
	p.RecordEncounter(ctx, charizard, true)
	p.RecordEncounter(ctx, charmander, false)
	rec := p.Capture(ctx, charmander, false)
	p.Release(ctx, rec.ID, rec.CapturedAt)
	p.Capture(ctx, pikachu, false)
	p.ToggleFavorite(ctx, 6)

	ids := func(es []domain.PokedexEntry) []int {
		out := make([]int, len(es))
		for i, e := range es {
			out[i] = e.ID
		}
		return out
	}

	tests := []struct {
		filter Filter
		query  string
		want   []int
	}{
		{FilterAll, "", []int{4, 6, 25}},
		{FilterTeam, "", []int{25}},
		{FilterCaptured, "", []int{4, 25}},
		{FilterFavorites, "", []int{6}},
		{FilterShiny, "", []int{6}},
		{FilterAll, "char", []int{4, 6}},
		{FilterAll, " PIKA ", []int{25}},
		{FilterAll, "6", []int{6}},
		{FilterAll, "0", []int{}},
		{FilterCaptured, "char", []int{4}},
	}
	for _, tt := range tests {
		got := ids(p.Logbook(tt.filter, tt.query))
		if len(got) != len(tt.want) {
			t.Errorf("Logbook(%s, %q) = %v, want %v", tt.filter, tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Logbook(%s, %q) = %v, want %v", tt.filter, tt.query, got, tt.want)
				break
			}
		}
	}

	if _, err := ParseFilter("legendary"); err == nil {
		t.Error("ParseFilter accepted an unknown filter")
	}
	if f, err := ParseFilter(""); err != nil || f != FilterAll {
		t.Errorf("ParseFilter(\"\") = %s, %v", f, err)
	}
}
