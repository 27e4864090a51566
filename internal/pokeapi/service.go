package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/pokecache"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://pokeapi.co/api/v2"

// FetchError reports a non-success response with no cached fallback.
type FetchError struct {
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("PokeAPI error %d", e.Status)
}

// Connectivity reports whether network reads are worth attempting.
type Connectivity interface {
	Online() bool
}

type service struct {
	log     zerolog.Logger
	baseURL string
	client  *http.Client
	cache   *pokecache.Cache[domain.Pokemon]
	net     Connectivity
	limiter *rate.Limiter
}

type pokemonResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Types []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		FrontShiny   string `json:"front_shiny"`
	} `json:"sprites"`
}

func NewService(log zerolog.Logger, config *domain.Config, client *http.Client, cache *pokecache.Cache[domain.Pokemon], net Connectivity) domain.PokemonFetcher {
	baseURL := DefaultBaseURL
	limit := rate.Inf
	if config != nil {
		if config.PokeAPIBase != "" {
			baseURL = config.PokeAPIBase
		}
		if config.EntityRPS > 0 {
			limit = rate.Limit(config.EntityRPS)
		}
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &service{
		log:     log.With().Str("module", "pokeapi").Logger(),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		cache:   cache,
		net:     net,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch resolves a pokemon by id. A cached copy is served when offline, and
// stands in for any network failure except cancellation.
func (s *service) Fetch(ctx context.Context, id int) (domain.Pokemon, error) {
	cached, hasCached := s.cache.Get(ctx, id)
	if hasCached && s.net != nil && !s.net.Online() {
		s.log.Debug().Int("id", id).Msg("offline, serving cached pokemon")
		return cached, nil
	}

	p, err := s.fetch(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Pokemon{}, ctx.Err()
		}
		if hasCached {
			s.log.Warn().Err(err).Int("id", id).Msg("fetch failed, serving cached pokemon")
			return cached, nil
		}
		return domain.Pokemon{}, err
	}

	s.cache.Put(context.WithoutCancel(ctx), p.ID, p)
	return p, nil
}

// CachedIDs lists the ids available without network access.
func (s *service) CachedIDs(ctx context.Context) []int {
	return s.cache.Keys(ctx)
}

func (s *service) fetch(ctx context.Context, id int) (domain.Pokemon, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return domain.Pokemon{}, errors.Wrap(err, "rate limiter")
	}

	url := fmt.Sprintf("%s/pokemon/%d", s.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Pokemon{}, errors.Wrap(err, "failed to create request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Pokemon{}, errors.Wrap(err, "failed to fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Pokemon{}, &FetchError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Pokemon{}, errors.Wrap(err, "failed to read response body")
	}

	var payload pokemonResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Pokemon{}, errors.Wrap(err, "failed to unmarshal response")
	}

	s.log.Debug().Int("id", payload.ID).Str("name", payload.Name).Msg("fetched pokemon")
	return normalize(payload), nil
}

func normalize(payload pokemonResponse) domain.Pokemon {
	slots := payload.Types
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Slot < slots[j].Slot
	})

	types := make([]string, 0, len(slots))
	for _, t := range slots {
		if t.Type.Name != "" {
			types = append(types, t.Type.Name)
		}
	}

	return domain.Pokemon{
		ID:    payload.ID,
		Name:  payload.Name,
		Types: types,
		Sprites: domain.Sprites{
			Default: payload.Sprites.FrontDefault,
			Shiny:   payload.Sprites.FrontShiny,
		},
	}
}
