package domain

import "context"

const (
	// Gen1MaxID is the highest entity id an encounter may draw.
	Gen1MaxID = 151

	MaxThrowsPerEncounter = 3
	MaxTeamSize           = 6

	DefaultShinyProbability = 1.0 / 512
)

// Sprites holds the front sprite URLs of an entity. Either may be empty.
type Sprites struct {
	Default string `json:"default,omitempty"`
	Shiny   string `json:"shiny,omitempty"`
}

// Pokemon is a normalized entity record as returned by the Entity Fetcher.
type Pokemon struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Types   []string `json:"types"`
	Sprites Sprites  `json:"sprites"`
}

// Sprite picks the shiny sprite when asked for and available.
func (p Pokemon) Sprite(shiny bool) string {
	if shiny && p.Sprites.Shiny != "" {
		return p.Sprites.Shiny
	}
	return p.Sprites.Default
}

// PokemonFetcher resolves an entity by id.
type PokemonFetcher interface {
	Fetch(ctx context.Context, id int) (Pokemon, error)
	CachedIDs(ctx context.Context) []int
}
