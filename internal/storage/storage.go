// Package storage keeps the namespaced JSON documents of the local key-value
// store. Unreadable documents fall back to a caller-supplied default.
package storage

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
)

const Prefix = "pokechu."

const (
	KeyCaptured     = Prefix + "captured"
	KeyFavorites    = Prefix + "favorites"
	KeyPreferences  = Prefix + "preferences"
	KeyStats        = Prefix + "stats"
	KeyPokedex      = Prefix + "pokedex"
	KeyPokemonCache = Prefix + "pokemonCache"
)

// Keys lists every namespaced key owned by the app.
func Keys() []string {
	return []string{KeyCaptured, KeyFavorites, KeyPreferences, KeyStats, KeyPokedex, KeyPokemonCache}
}

type Store struct {
	log  zerolog.Logger
	repo domain.KVRepository
}

func New(log zerolog.Logger, repo domain.KVRepository) *Store {
	return &Store{
		log:  log.With().Str("module", "storage").Logger(),
		repo: repo,
	}
}

// Read decodes the document stored under key. Missing or unparseable
// documents yield a copy of fallback. When fallback is object-shaped the
// stored fields are merged over it.
func Read[T any](ctx context.Context, s *Store, key string, fallback T) T {
	raw, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("read failed, using default")
		return clone(fallback)
	}
	if !ok {
		return clone(fallback)
	}

	var out T
	if objectShaped(fallback) {
		out = clone(fallback)
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("unparseable document, using default")
		return clone(fallback)
	}
	return out
}

// Write encodes value under key.
func Write[T any](ctx context.Context, s *Store, key string, value T) error {
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", key)
	}
	if err := s.repo.Set(ctx, key, string(b)); err != nil {
		return errors.Wrapf(err, "failed to write %s", key)
	}
	return nil
}

// Clear removes every namespaced key.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, Keys()...); err != nil {
		return errors.Wrap(err, "failed to clear local storage")
	}
	return nil
}

func objectShaped(v any) bool {
	t := reflect.TypeOf(v)
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct || t.Kind() == reflect.Map
}

func clone[T any](v T) T {
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
