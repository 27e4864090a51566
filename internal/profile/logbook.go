package profile

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/varoOP/pokechu/internal/domain"
)

// Filter narrows the logbook view.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterTeam      Filter = "team"
	FilterCaptured  Filter = "captured"
	FilterFavorites Filter = "favorites"
	FilterShiny     Filter = "shiny"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterTeam, FilterCaptured, FilterFavorites, FilterShiny:
		return f, nil
	default:
		return "", errors.Errorf("unknown logbook filter %q", s)
	}
}

// Logbook lists logbook entries matching filter and query, sorted by id. A
// positive numeric query matches the dex number exactly; any other query
// matches a name substring, case-insensitively.
func (p *Profile) Logbook(filter Filter, query string) []domain.PokedexEntry {
	pokedex := p.Pokedex()
	team := p.TeamIDs()
	favorites := make(map[int]bool)
	for _, id := range p.Favorites() {
		favorites[id] = true
	}

	entries := make([]domain.PokedexEntry, 0, len(pokedex))
	for _, e := range pokedex {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	keep := func(e domain.PokedexEntry) bool {
		switch filter {
		case FilterTeam:
			return team[e.ID]
		case FilterCaptured:
			return e.CapturedEver
		case FilterFavorites:
			return favorites[e.ID]
		case FilterShiny:
			return e.ShinySeen
		default:
			return true
		}
	}

	q := strings.ToLower(strings.TrimSpace(query))
	match := func(domain.PokedexEntry) bool { return true }
	if q != "" {
		if n, err := strconv.ParseFloat(q, 64); err == nil && n > 0 && !math.IsInf(n, 0) {
			match = func(e domain.PokedexEntry) bool { return float64(e.ID) == n }
		} else {
			match = func(e domain.PokedexEntry) bool { return strings.Contains(strings.ToLower(e.Name), q) }
		}
	}

	out := entries[:0]
	for _, e := range entries {
		if keep(e) && match(e) {
			out = append(out, e)
		}
	}
	return out
}
